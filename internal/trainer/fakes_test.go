package trainer

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// scriptedModel reaches a scripted dev accuracy in each evaluation pass.
// Dev targets are expected to be all ones; the first round(metric*devSize)
// dev examples of a pass are classified positive, the rest negative.
type scriptedModel struct {
	devMetrics []float64
	devSize    int

	training   bool
	evalPhase  int // evaluation passes started so far
	evalPos    int
	trainErrAt int // 1-based train forward call that fails; 0 disables
	trainErr   error

	trainForwards int
	evalForwards  int
	badModes      int
	backwards     int
	saves         []int
	loaded        string
}

func (m *scriptedModel) SetTraining(training bool) {
	if !training {
		m.evalPhase++
		m.evalPos = 0
	}
	m.training = training
}

func (m *scriptedModel) Forward(_ context.Context, inputs [][]float64) ([]float64, error) {
	out := make([]float64, len(inputs))
	if m.training {
		m.trainForwards++
		if m.trainErrAt > 0 && m.trainForwards == m.trainErrAt {
			return nil, m.trainErr
		}
		for i := range out {
			out[i] = 0.5
		}
		return out, nil
	}
	m.evalForwards++
	idx := m.evalPhase - 1
	if idx >= len(m.devMetrics) {
		return nil, fmt.Errorf("no scripted metric for eval pass %d", idx)
	}
	positives := int(math.Round(m.devMetrics[idx] * float64(m.devSize)))
	for i := range out {
		if m.evalPos < positives {
			out[i] = 0.9
		} else {
			out[i] = 0.1
		}
		m.evalPos++
	}
	return out, nil
}

func (m *scriptedModel) Backward(grad []float64) error {
	if !m.training {
		m.badModes++
	}
	m.backwards++
	return nil
}

func (m *scriptedModel) Parameters() []*Parameter { return nil }

func (m *scriptedModel) SaveState(w io.Writer) error {
	m.saves = append(m.saves, m.evalPhase-1)
	_, err := fmt.Fprintf(w, "after-eval-%d", m.evalPhase-1)
	return err
}

func (m *scriptedModel) LoadState(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.loaded = string(b)
	return nil
}

// loadedEpoch returns the epoch encoded in the state loaded from disk.
func (m *scriptedModel) loadedEpoch() int {
	n, err := strconv.Atoi(strings.TrimPrefix(m.loaded, "after-eval-"))
	if err != nil {
		return -1
	}
	return n
}

type countingOptimizer struct {
	zeroGrads int
	steps     int
}

func (o *countingOptimizer) ZeroGrad()   { o.zeroGrads++ }
func (o *countingOptimizer) Step() error { o.steps++; return nil }

// fixedLoss returns losses in order, cycling.
type fixedLoss struct {
	losses []float64
	calls  int
}

func (l *fixedLoss) Loss(outputs, targets []float64) (float64, []float64, error) {
	v := 0.25
	if len(l.losses) > 0 {
		v = l.losses[l.calls%len(l.losses)]
	}
	l.calls++
	return v, make([]float64, len(outputs)), nil
}

type sliceSource struct {
	batches []Batch
	pos     int
	resets  int
}

func (s *sliceSource) Len() int { return len(s.batches) }

func (s *sliceSource) Reset() error {
	s.pos = 0
	s.resets++
	return nil
}

func (s *sliceSource) Next() (Batch, error) {
	if s.pos >= len(s.batches) {
		return Batch{}, io.EOF
	}
	b := s.batches[s.pos]
	s.pos++
	return b, nil
}

// onesSource builds nBatches batches of size examples with target 1.
func onesSource(nBatches, size int) *sliceSource {
	src := &sliceSource{}
	for i := 0; i < nBatches; i++ {
		b := Batch{}
		for j := 0; j < size; j++ {
			b.Inputs = append(b.Inputs, []float64{float64(j)})
			b.Targets = append(b.Targets, 1)
		}
		src.batches = append(src.batches, b)
	}
	return src
}

type countingObserver struct {
	begins   map[string]int
	advances int
	ends     int
	onBegin  func(phase string)
}

func (o *countingObserver) Begin(phase string, total int) {
	if o.begins == nil {
		o.begins = map[string]int{}
	}
	o.begins[phase]++
	if o.onBegin != nil {
		o.onBegin(phase)
	}
}
func (o *countingObserver) Advance() { o.advances++ }
func (o *countingObserver) End()     { o.ends++ }
