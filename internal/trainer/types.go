package trainer

import (
	"context"
	"io"
	"time"
)

// Batch is one (inputs, targets) pair produced by a DataSource. Targets are
// binary labels encoded as 0 or 1.
type Batch struct {
	Inputs  [][]float64
	Targets []float64
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int { return len(b.Targets) }

// Parameter is a named learnable tensor with its accumulated gradient.
type Parameter struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Model is the narrow capability set the loop needs from a model.
// Forward may return an error satisfying IsResourceExhausted when the
// underlying device runs out of memory.
type Model interface {
	Forward(ctx context.Context, inputs [][]float64) ([]float64, error)
	// Backward accumulates parameter gradients for the last Forward call.
	Backward(gradOutputs []float64) error
	// SetTraining switches between training (true) and evaluation mode.
	SetTraining(training bool)
	Parameters() []*Parameter
	SaveState(w io.Writer) error
	LoadState(r io.Reader) error
}

// Optimizer applies updates to a model's parameters.
type Optimizer interface {
	ZeroGrad()
	Step() error
}

// LossFunc computes the loss over a batch and its gradient with respect to
// each output. The loss must be the mean over the batch's examples: the
// driver weights it by batch size to get the per example average of an epoch,
// so a sum reduced loss would be counted batch size times over.
type LossFunc interface {
	Loss(outputs, targets []float64) (loss float64, grad []float64, err error)
}

// DataSource yields a finite sequence of batches. Reset rewinds it so the
// same sequence can be consumed again next epoch; Next returns io.EOF once
// exhausted.
type DataSource interface {
	Len() int
	Reset() error
	Next() (Batch, error)
}

// Observer watches batch iteration, e.g. to draw a progress bar. It must not
// affect iteration.
type Observer interface {
	Begin(phase string, total int)
	Advance()
	End()
}

type noopObserver struct{}

func (noopObserver) Begin(string, int) {}
func (noopObserver) Advance()          {}
func (noopObserver) End()              {}

// StopReason tells why the epoch loop ended.
type StopReason string

const (
	StopMaxEpoch  StopReason = "max_epoch_reached"
	StopPatience  StopReason = "patience_exhausted"
	StopResources StopReason = "resource_exhausted"
)

// EpochResult summarizes one completed epoch.
type EpochResult struct {
	Epoch         int
	AvgLoss       float64
	DevMetric     float64
	Improved      bool
	TrainDuration time.Duration
	DevDuration   time.Duration
}

// Result is the outcome of Run.
type Result struct {
	BestDevMetric float64
	StartEpoch    int
	// NextEpoch is the epoch a restarted run would begin at.
	NextEpoch  int
	EpochsRun  int
	StopReason StopReason
	// Epochs holds one entry per epoch run by this invocation.
	Epochs []EpochResult
}
