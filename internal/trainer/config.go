package trainer

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"trainloop/internal/metrics"
	"trainloop/internal/tuning"
)

// Config holds every input of a training run. Progress, Sink and Reporter are
// optional; nil means no-op.
type Config struct {
	Model     Model
	Optimizer Optimizer
	Loss      LossFunc
	Train     DataSource
	Dev       DataSource

	// Patience is the number of consecutive non improving epochs tolerated.
	Patience int
	// Output is the checkpoint directory of the run.
	Output string
	// MaxEpoch is the exclusive upper bound on the epoch index.
	MaxEpoch int

	StartFromScratch bool
	// TuningActive turns resource exhaustion into a reported failure objective
	// instead of an error.
	TuningActive bool

	Progress Observer
	Sink     metrics.Sink
	Reporter tuning.Reporter
	Logger   zerolog.Logger
}

func (c *Config) validate() error {
	var errs []error
	if c.Model == nil {
		errs = append(errs, errors.New("model is required"))
	}
	if c.Optimizer == nil {
		errs = append(errs, errors.New("optimizer is required"))
	}
	if c.Loss == nil {
		errs = append(errs, errors.New("loss function is required"))
	}
	if c.Train == nil || c.Dev == nil {
		errs = append(errs, errors.New("train and dev data sources are required"))
	}
	if c.Patience <= 0 {
		errs = append(errs, fmt.Errorf("patience must be positive, got %d", c.Patience))
	}
	if c.MaxEpoch <= 0 {
		errs = append(errs, fmt.Errorf("max epoch must be positive, got %d", c.MaxEpoch))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	if c.Progress == nil {
		c.Progress = noopObserver{}
	}
	if c.Sink == nil {
		c.Sink = metrics.Noop{}
	}
	if c.Reporter == nil {
		c.Reporter = tuning.Noop{}
	}
}
