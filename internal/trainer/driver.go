package trainer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trainloop/internal/checkpoint"
	"trainloop/internal/tuning"
)

// Metric names emitted to the sink.
const (
	MetricDevMetric     = "dev_metric"
	MetricLoss          = "loss"
	MetricBestDevMetric = "best_dev_metric"
)

// Driver runs the epoch loop for one output directory.
type Driver struct {
	cfg  Config
	ckpt *checkpoint.Manager
	now  func() time.Time

	mu     sync.RWMutex
	status status
}

// New validates cfg and returns a Driver ready to Run.
func New(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid trainer config: %w", err)
	}
	cfg.applyDefaults()
	d := &Driver{
		cfg:  cfg,
		ckpt: checkpoint.New(cfg.Output, cfg.Logger),
		now:  time.Now,
	}
	d.status = status{phase: PhaseInitializing, maxEpoch: cfg.MaxEpoch, patience: cfg.Patience}
	return d, nil
}

// Run trains until the epoch ceiling or patience is reached, then reports the
// best dev metric to the sink and the negated value to the tuning reporter.
//
// With TuningActive, a resource exhaustion failure is logged and reported as
// FailureObjective instead of being returned. Any other failure is returned
// and nothing is reported.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	log := d.cfg.Logger
	res, err := d.loop(ctx)
	if err != nil {
		if !(d.cfg.TuningActive && IsResourceExhausted(err)) {
			d.setFailed(err)
			return res, err
		}
		log.Error().Err(err).Msg("training failed")
		log.Error().Msg("model was out of memory, assigning a bad score to tell the tuner to avoid too big models")
		res.BestDevMetric = FailureObjective
		res.StopReason = StopResources
	}

	d.cfg.Sink.LogMetric(MetricBestDevMetric, res.BestDevMetric)
	// the tuner always minimizes
	objective := tuning.Objective{Name: MetricDevMetric, Type: tuning.TypeObjective, Value: -res.BestDevMetric}
	if err := d.cfg.Reporter.Report([]tuning.Objective{objective}); err != nil {
		d.setFailed(err)
		return res, fmt.Errorf("report results: %w", err)
	}
	d.setStopped(res)
	log.Info().Msg("Finished Training")
	return res, nil
}

func (d *Driver) loop(ctx context.Context) (Result, error) {
	log := d.cfg.Logger
	prior, err := d.ckpt.Initialize(d.cfg.Model, d.cfg.StartFromScratch)
	if err != nil {
		return Result{}, err
	}

	var best float64
	haveBest := false
	start := 0
	if prior != nil {
		start = prior.Epoch
		best = prior.BestDevMetric
		haveBest = true
	}
	log.Info().Str("output", d.ckpt.Dir()).Int("start_epoch", start).Int("max_epoch", d.cfg.MaxEpoch).Msg("starting training")
	res := Result{StartEpoch: start, NextEpoch: start, BestDevMetric: best, StopReason: StopMaxEpoch}
	d.setResumed(start, best, haveBest)

	streak := 0
	for epoch := start; epoch < d.cfg.MaxEpoch; epoch++ {
		er, err := d.runEpoch(ctx, epoch)
		if err != nil {
			return res, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		if !haveBest || er.DevMetric > best {
			best, haveBest = er.DevMetric, true
			streak = 0
			er.Improved = true
			if err := d.ckpt.SaveModel(d.cfg.Model); err != nil {
				return res, err
			}
		} else {
			streak++
		}

		d.cfg.Sink.LogMetric(MetricDevMetric, er.DevMetric)
		d.cfg.Sink.LogMetric(MetricLoss, er.AvgLoss)

		log.Info().
			Int("epoch", epoch).
			Float64("loss", er.AvgLoss).
			Float64("dev_metric", er.DevMetric).
			Bool("improved", er.Improved).
			Int("patience_left", d.cfg.Patience-streak).
			Float64("train_min", er.TrainDuration.Minutes()).
			Float64("dev_min", er.DevDuration.Minutes()).
			Msgf("done #epoch %3d => loss %5.3f - dev metric %3.2f", epoch, er.AvgLoss, er.DevMetric)

		if err := d.ckpt.WriteState(best, epoch+1); err != nil {
			return res, err
		}
		res.BestDevMetric = best
		res.NextEpoch = epoch + 1
		res.EpochsRun++
		res.Epochs = append(res.Epochs, er)
		d.setEpochDone(er, best, streak)

		if streak >= d.cfg.Patience {
			res.StopReason = StopPatience
			log.Info().Float64("best_dev_metric", best).Msg("done! patience exhausted")
			break
		}
	}
	if !haveBest {
		return res, errors.New("no epoch completed and no prior state to report")
	}
	log.Info().Int("epoch_done", res.NextEpoch).Int("max_epoch", d.cfg.MaxEpoch).
		Msgf("training completed (epoch done %d - max epoch %d)", res.NextEpoch, d.cfg.MaxEpoch)
	return res, nil
}

func (d *Driver) runEpoch(ctx context.Context, epoch int) (EpochResult, error) {
	er := EpochResult{Epoch: epoch}
	start := d.now()
	d.setPhase(PhaseTraining, epoch)
	loss, err := d.trainPass(ctx)
	if err != nil {
		return er, err
	}
	trainEnd := d.now()
	d.setPhase(PhaseEvaluating, epoch)
	metric, err := d.evalPass(ctx)
	if err != nil {
		return er, err
	}
	er.AvgLoss = loss
	er.DevMetric = metric
	er.TrainDuration = trainEnd.Sub(start)
	er.DevDuration = d.now().Sub(trainEnd)
	return er, nil
}
