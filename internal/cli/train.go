package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trainloop/internal/config"
	"trainloop/internal/dataset"
	"trainloop/internal/httpapi"
	"trainloop/internal/linear"
	"trainloop/internal/metrics"
	"trainloop/internal/progress"
	"trainloop/internal/tracking"
	"trainloop/internal/trainer"
	"trainloop/internal/tuning"
)

func newTrainCmd(stdout, stderr io.Writer, logger func(string) zerolog.Logger) *cobra.Command {
	var (
		cfgPath string
		flags   config.Config
		noBar   bool
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the logistic regression reference model on CSV data",
		Example: "  trainloop train --train-csv train.csv --dev-csv dev.csv --output runs/exp1\n" +
			"  trainloop train --config run.yaml --start-from-scratch",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{}
			if cfgPath != "" {
				fileCfg, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = fileCfg
			}
			cfg = changedFlags(cmd, flags, noBar).Merge(cfg).Merge(config.Defaults()).ApplyEnv(os.Getenv)
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := logger(cfg.LogLevel)
			res, err := runTrain(cmd.Context(), cfg, log, stderr)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "best_dev_metric=%g epochs_run=%d next_epoch=%d stop=%s\n",
				res.BestDevMetric, res.EpochsRun, res.NextEpoch, res.StopReason)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", "", "Config file (.yaml|.yml|.json|.toml)")
	f.StringVar(&flags.Output, "output", "", "Output directory holding best_model.pt and stats.yaml")
	f.IntVar(&flags.Patience, "patience", 0, "Consecutive non improving epochs before stopping (default 5)")
	f.IntVar(&flags.MaxEpoch, "max-epoch", 0, "Exclusive upper bound on the epoch index (default 100)")
	f.BoolVar(&noBar, "no-progress-bar", false, "Disable the progress bar")
	f.BoolVar(&flags.StartFromScratch, "start-from-scratch", false, "Ignore an existing saved model in the output directory")
	f.BoolVar(&flags.Tuning, "tuning", false, "Report the objective to a hyperparameter tuner (also enabled by TRAINLOOP_RESULTS_PATH or ORION_RESULTS_PATH)")
	f.StringVar(&flags.ResultsPath, "results-path", "", "File receiving the tuner objective as JSON")
	f.StringVar(&flags.TrainCSV, "train-csv", "", "Training data CSV, last column is the 0/1 label")
	f.StringVar(&flags.DevCSV, "dev-csv", "", "Validation data CSV, last column is the 0/1 label")
	f.IntVar(&flags.BatchSize, "batch-size", 0, "Examples per batch (default 32)")
	f.Float64Var(&flags.LearningRate, "lr", 0, "SGD learning rate (default 0.1)")
	f.Float64Var(&flags.WeightDecay, "weight-decay", 0, "L2 weight decay")
	f.Int64Var(&flags.Seed, "seed", 0, "Weight init seed (default 1)")
	f.IntVar(&flags.MaxBatchElements, "max-batch-elements", 0, "Simulated device memory in batch*features elements (0 = unlimited)")
	f.StringVar(&flags.MetricsAddr, "metrics-addr", "", "Serve /status and /metrics on this address, e.g. :9090")
	f.StringSliceVar(&flags.CORSOrigins, "cors-origin", nil, "Allow this origin to read the status server (repeatable, enables CORS)")
	f.StringSliceVar(&flags.CORSMethods, "cors-method", nil, "CORS allowed method (repeatable, default GET)")
	f.StringSliceVar(&flags.CORSHeaders, "cors-header", nil, "CORS allowed header (repeatable, default Content-Type)")
	f.StringVar(&flags.TrackingDB, "tracking-db", "", "SQLite file recording runs and metric series")
	f.StringVar(&flags.RunName, "run-name", "", "Run name recorded in the tracking db")
	return cmd
}

// changedFlags keeps only the flags set on the command line so they take
// precedence over the config file.
func changedFlags(cmd *cobra.Command, flags config.Config, noBar bool) config.Config {
	var out config.Config
	changed := cmd.Flags().Changed
	if changed("output") {
		out.Output = flags.Output
	}
	if changed("patience") {
		out.Patience = flags.Patience
	}
	if changed("max-epoch") {
		out.MaxEpoch = flags.MaxEpoch
	}
	if changed("no-progress-bar") {
		on := !noBar
		out.ProgressBar = &on
	}
	out.StartFromScratch = flags.StartFromScratch
	out.Tuning = flags.Tuning
	if changed("results-path") {
		out.ResultsPath = flags.ResultsPath
	}
	if changed("train-csv") {
		out.TrainCSV = flags.TrainCSV
	}
	if changed("dev-csv") {
		out.DevCSV = flags.DevCSV
	}
	if changed("batch-size") {
		out.BatchSize = flags.BatchSize
	}
	if changed("lr") {
		out.LearningRate = flags.LearningRate
	}
	if changed("weight-decay") {
		out.WeightDecay = flags.WeightDecay
	}
	if changed("seed") {
		out.Seed = flags.Seed
	}
	if changed("max-batch-elements") {
		out.MaxBatchElements = flags.MaxBatchElements
	}
	if changed("metrics-addr") {
		out.MetricsAddr = flags.MetricsAddr
	}
	if changed("cors-origin") {
		out.CORSOrigins = flags.CORSOrigins
	}
	if changed("cors-method") {
		out.CORSMethods = flags.CORSMethods
	}
	if changed("cors-header") {
		out.CORSHeaders = flags.CORSHeaders
	}
	if changed("tracking-db") {
		out.TrackingDB = flags.TrackingDB
	}
	if changed("run-name") {
		out.RunName = flags.RunName
	}
	return out
}

// runTrain builds the collaborators described by cfg and runs the driver.
func runTrain(ctx context.Context, cfg config.Config, log zerolog.Logger, progressOut io.Writer) (trainer.Result, error) {
	train, err := dataset.LoadCSV(cfg.TrainCSV, cfg.BatchSize)
	if err != nil {
		return trainer.Result{}, fmt.Errorf("load train data: %w", err)
	}
	dev, err := dataset.LoadCSV(cfg.DevCSV, cfg.BatchSize)
	if err != nil {
		return trainer.Result{}, fmt.Errorf("load dev data: %w", err)
	}
	if train.Features() != dev.Features() {
		return trainer.Result{}, fmt.Errorf("train has %d features, dev has %d", train.Features(), dev.Features())
	}
	log.Info().Int("train_examples", train.Examples()).Int("dev_examples", dev.Examples()).
		Int("features", train.Features()).Msg("data loaded")

	model := linear.NewModel(train.Features(), cfg.Seed)
	model.MaxBatchElements = cfg.MaxBatchElements
	opt := linear.NewSGD(model.Parameters(), cfg.LearningRate)
	opt.WeightDecay = cfg.WeightDecay

	var sinks metrics.Multi
	if cfg.MetricsAddr != "" {
		prom, err := metrics.NewPrometheus(nil)
		if err != nil {
			return trainer.Result{}, fmt.Errorf("metrics: %w", err)
		}
		sinks = append(sinks, prom)
	}
	var run *tracking.RunSink
	if cfg.TrackingDB != "" {
		store, err := tracking.Open(cfg.TrackingDB, log)
		if err != nil {
			return trainer.Result{}, err
		}
		defer store.Close()
		run, err = store.StartRun(cfg.RunName, cfg.Output)
		if err != nil {
			return trainer.Result{}, err
		}
		log.Info().Str("run_id", run.RunID()).Msg("tracking run started")
		sinks = append(sinks, run)
	}

	var reporter tuning.Reporter = tuning.Noop{}
	if cfg.Tuning {
		reporter = tuning.FileReporter{Path: cfg.ResultsPath}
	}
	var observer trainer.Observer
	if cfg.UseProgressBar() {
		observer = progress.New(progressOut, 0)
	}

	driver, err := trainer.New(trainer.Config{
		Model:            model,
		Optimizer:        opt,
		Loss:             linear.BCE{},
		Train:            train,
		Dev:              dev,
		Patience:         cfg.Patience,
		Output:           cfg.Output,
		MaxEpoch:         cfg.MaxEpoch,
		StartFromScratch: cfg.StartFromScratch,
		TuningActive:     cfg.Tuning,
		Progress:         observer,
		Sink:             sinks,
		Reporter:         reporter,
		Logger:           log,
	})
	if err != nil {
		return trainer.Result{}, err
	}

	if cfg.MetricsAddr != "" {
		httpapi.SetLogger(log)
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: statusHandler(cfg, driver), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server error")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
		}()
	}

	res, runErr := driver.Run(ctx)
	if run != nil {
		if err := run.Finish(runErr); err != nil {
			log.Warn().Err(err).Msg("tracking: finish run")
		}
	}
	return res, runErr
}

// statusHandler builds the status server mux, enabling CORS when origins are
// configured.
func statusHandler(cfg config.Config, svc httpapi.Service) http.Handler {
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)
	return httpapi.NewMux(svc)
}
