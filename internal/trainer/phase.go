package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const decisionThreshold = 0.5

// trainPass runs one full optimization pass and returns the mean per example loss.
func (d *Driver) trainPass(ctx context.Context) (float64, error) {
	src := d.cfg.Train
	if err := src.Reset(); err != nil {
		return 0, fmt.Errorf("reset train data: %w", err)
	}
	d.cfg.Model.SetTraining(true)
	d.cfg.Progress.Begin("train", src.Len())
	defer d.cfg.Progress.End()

	var totalLoss float64
	examples := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("train batch: %w", err)
		}
		d.cfg.Optimizer.ZeroGrad()
		out, err := d.cfg.Model.Forward(ctx, b.Inputs)
		if err != nil {
			return 0, fmt.Errorf("forward: %w", err)
		}
		loss, grad, err := d.cfg.Loss.Loss(out, b.Targets)
		if err != nil {
			return 0, fmt.Errorf("loss: %w", err)
		}
		if err := d.cfg.Model.Backward(grad); err != nil {
			return 0, fmt.Errorf("backward: %w", err)
		}
		if err := d.cfg.Optimizer.Step(); err != nil {
			return 0, fmt.Errorf("optimizer step: %w", err)
		}
		totalLoss += loss * float64(b.Size())
		examples += b.Size()
		d.cfg.Progress.Advance()
	}
	if examples == 0 {
		return 0, &emptyPhaseError{phase: "train"}
	}
	return totalLoss / float64(examples), nil
}

// evalPass classifies every dev example at the 0.5 threshold and returns the
// fraction classified correctly. No gradients are derived.
func (d *Driver) evalPass(ctx context.Context) (float64, error) {
	src := d.cfg.Dev
	if err := src.Reset(); err != nil {
		return 0, fmt.Errorf("reset dev data: %w", err)
	}
	d.cfg.Model.SetTraining(false)
	d.cfg.Progress.Begin("dev", src.Len())
	defer d.cfg.Progress.End()

	correct, examples := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("dev batch: %w", err)
		}
		out, err := d.cfg.Model.Forward(ctx, b.Inputs)
		if err != nil {
			return 0, fmt.Errorf("forward: %w", err)
		}
		if len(out) != len(b.Targets) {
			return 0, fmt.Errorf("model returned %d outputs for %d targets", len(out), len(b.Targets))
		}
		for i, o := range out {
			if (o > decisionThreshold) == (b.Targets[i] > decisionThreshold) {
				correct++
			}
		}
		examples += b.Size()
		d.cfg.Progress.Advance()
	}
	if examples == 0 {
		return 0, &emptyPhaseError{phase: "dev"}
	}
	return float64(correct) / float64(examples), nil
}
