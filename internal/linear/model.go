package linear

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"math/rand"

	"trainloop/internal/trainer"
)

// Model is a logistic regression classifier: sigmoid(w·x + b).
type Model struct {
	features int
	weight   *trainer.Parameter
	bias     *trainer.Parameter
	training bool

	// MaxBatchElements bounds batch*features per Forward call, standing in
	// for device memory. Zero means unlimited.
	MaxBatchElements int

	lastInputs  [][]float64
	lastOutputs []float64
}

// NewModel returns a model over features inputs with small random weights.
func NewModel(features int, seed int64) *Model {
	rng := rand.New(rand.NewSource(seed))
	w := make([]float64, features)
	for i := range w {
		w[i] = (rng.Float64() - 0.5) * 0.02
	}
	return &Model{
		features: features,
		weight:   &trainer.Parameter{Name: "weight", Value: w, Grad: make([]float64, features)},
		bias:     &trainer.Parameter{Name: "bias", Value: []float64{0}, Grad: []float64{0}},
	}
}

// Features returns the input width.
func (m *Model) Features() int { return m.features }

func (m *Model) SetTraining(training bool) {
	m.training = training
	if !training {
		m.lastInputs, m.lastOutputs = nil, nil
	}
}

func (m *Model) Parameters() []*trainer.Parameter { return []*trainer.Parameter{m.weight, m.bias} }

func (m *Model) Forward(ctx context.Context, inputs [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.MaxBatchElements > 0 && len(inputs)*m.features > m.MaxBatchElements {
		return nil, trainer.ErrResourceExhausted(fmt.Sprintf("batch needs %d elements, budget is %d",
			len(inputs)*m.features, m.MaxBatchElements))
	}
	out := make([]float64, len(inputs))
	for i, row := range inputs {
		if len(row) != m.features {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), m.features)
		}
		z := m.bias.Value[0]
		for j, x := range row {
			z += m.weight.Value[j] * x
		}
		out[i] = sigmoid(z)
	}
	if m.training {
		m.lastInputs, m.lastOutputs = inputs, out
	}
	return out, nil
}

// Backward chains gradOutputs (dL/dp) through the sigmoid and accumulates
// parameter gradients for the last training Forward call.
func (m *Model) Backward(gradOutputs []float64) error {
	if !m.training {
		return fmt.Errorf("backward called in evaluation mode")
	}
	if len(gradOutputs) != len(m.lastOutputs) {
		return fmt.Errorf("got %d output gradients for %d outputs", len(gradOutputs), len(m.lastOutputs))
	}
	for i, g := range gradOutputs {
		p := m.lastOutputs[i]
		dz := g * p * (1 - p)
		for j, x := range m.lastInputs[i] {
			m.weight.Grad[j] += dz * x
		}
		m.bias.Grad[0] += dz
	}
	return nil
}

// snapshot is the gob encoded parameter state.
type snapshot struct {
	Features int
	Weights  []float64
	Bias     float64
}

func (m *Model) SaveState(w io.Writer) error {
	return gob.NewEncoder(w).Encode(snapshot{
		Features: m.features,
		Weights:  m.weight.Value,
		Bias:     m.bias.Value[0],
	})
}

func (m *Model) LoadState(r io.Reader) error {
	var s snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	if s.Features != m.features || len(s.Weights) != m.features {
		return fmt.Errorf("snapshot has %d features, model expects %d", s.Features, m.features)
	}
	copy(m.weight.Value, s.Weights)
	m.bias.Value[0] = s.Bias
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
