package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a training run.
// Zero values mean "unspecified" and are replaced by Defaults via Merge.
// A non-empty CORSOrigins enables CORS on the status server.
type Config struct {
	Output           string   `json:"output" yaml:"output" toml:"output"`
	Patience         int      `json:"patience" yaml:"patience" toml:"patience"`
	MaxEpoch         int      `json:"max_epoch" yaml:"max_epoch" toml:"max_epoch"`
	ProgressBar      *bool    `json:"progress_bar,omitempty" yaml:"progress_bar,omitempty" toml:"progress_bar,omitempty"`
	StartFromScratch bool     `json:"start_from_scratch" yaml:"start_from_scratch" toml:"start_from_scratch"`
	Tuning           bool     `json:"tuning" yaml:"tuning" toml:"tuning"`
	ResultsPath      string   `json:"results_path" yaml:"results_path" toml:"results_path"`
	TrainCSV         string   `json:"train_csv" yaml:"train_csv" toml:"train_csv"`
	DevCSV           string   `json:"dev_csv" yaml:"dev_csv" toml:"dev_csv"`
	BatchSize        int      `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	LearningRate     float64  `json:"learning_rate" yaml:"learning_rate" toml:"learning_rate"`
	WeightDecay      float64  `json:"weight_decay" yaml:"weight_decay" toml:"weight_decay"`
	Seed             int64    `json:"seed" yaml:"seed" toml:"seed"`
	MaxBatchElements int      `json:"max_batch_elements" yaml:"max_batch_elements" toml:"max_batch_elements"`
	MetricsAddr      string   `json:"metrics_addr" yaml:"metrics_addr" toml:"metrics_addr"`
	CORSOrigins      []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty"`
	CORSMethods      []string `json:"cors_methods,omitempty" yaml:"cors_methods,omitempty" toml:"cors_methods,omitempty"`
	CORSHeaders      []string `json:"cors_headers,omitempty" yaml:"cors_headers,omitempty" toml:"cors_headers,omitempty"`
	TrackingDB       string   `json:"tracking_db" yaml:"tracking_db" toml:"tracking_db"`
	RunName          string   `json:"run_name" yaml:"run_name" toml:"run_name"`
	LogLevel         string   `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Environment variables naming the tuner's results file. Either one being set
// switches tuning mode on.
const (
	EnvResultsPath      = "TRAINLOOP_RESULTS_PATH"
	EnvOrionResultsPath = "ORION_RESULTS_PATH"
)

// Defaults returns the configuration used for unset fields.
func Defaults() Config {
	on := true
	return Config{
		Patience:     5,
		MaxEpoch:     100,
		ProgressBar:  &on,
		BatchSize:    32,
		LearningRate: 0.1,
		Seed:         1,
		LogLevel:     "info",
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge fills every unset field of c from base.
func (c Config) Merge(base Config) Config {
	if c.Output == "" {
		c.Output = base.Output
	}
	if c.Patience == 0 {
		c.Patience = base.Patience
	}
	if c.MaxEpoch == 0 {
		c.MaxEpoch = base.MaxEpoch
	}
	if c.ProgressBar == nil {
		c.ProgressBar = base.ProgressBar
	}
	c.StartFromScratch = c.StartFromScratch || base.StartFromScratch
	c.Tuning = c.Tuning || base.Tuning
	if c.ResultsPath == "" {
		c.ResultsPath = base.ResultsPath
	}
	if c.TrainCSV == "" {
		c.TrainCSV = base.TrainCSV
	}
	if c.DevCSV == "" {
		c.DevCSV = base.DevCSV
	}
	if c.BatchSize == 0 {
		c.BatchSize = base.BatchSize
	}
	if c.LearningRate == 0 {
		c.LearningRate = base.LearningRate
	}
	if c.WeightDecay == 0 {
		c.WeightDecay = base.WeightDecay
	}
	if c.Seed == 0 {
		c.Seed = base.Seed
	}
	if c.MaxBatchElements == 0 {
		c.MaxBatchElements = base.MaxBatchElements
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = base.MetricsAddr
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = base.CORSOrigins
	}
	if len(c.CORSMethods) == 0 {
		c.CORSMethods = base.CORSMethods
	}
	if len(c.CORSHeaders) == 0 {
		c.CORSHeaders = base.CORSHeaders
	}
	if c.TrackingDB == "" {
		c.TrackingDB = base.TrackingDB
	}
	if c.RunName == "" {
		c.RunName = base.RunName
	}
	if c.LogLevel == "" {
		c.LogLevel = base.LogLevel
	}
	return c
}

// ApplyEnv turns tuning mode on when a results path is provided through the
// environment and no explicit path is configured.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	for _, k := range []string{EnvResultsPath, EnvOrionResultsPath} {
		if v := getenv(k); v != "" {
			if c.ResultsPath == "" {
				c.ResultsPath = v
			}
			c.Tuning = true
			break
		}
	}
	return c
}

// UseProgressBar reports whether a progress bar should be drawn (default on).
func (c Config) UseProgressBar() bool { return c.ProgressBar == nil || *c.ProgressBar }

// Validate checks the fields a training run cannot do without.
func (c Config) Validate() error {
	var errs []error
	if c.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if c.Patience <= 0 {
		errs = append(errs, fmt.Errorf("patience must be positive, got %d", c.Patience))
	}
	if c.MaxEpoch <= 0 {
		errs = append(errs, fmt.Errorf("max_epoch must be positive, got %d", c.MaxEpoch))
	}
	if c.TrainCSV == "" || c.DevCSV == "" {
		errs = append(errs, errors.New("train_csv and dev_csv are required"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %v", c.LearningRate))
	}
	if c.Tuning && c.ResultsPath == "" {
		errs = append(errs, errors.New("tuning requires results_path"))
	}
	return errors.Join(errs...)
}
