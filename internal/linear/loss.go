package linear

import (
	"fmt"
	"math"
)

// BCE is binary cross entropy averaged over the batch.
type BCE struct{}

const probEpsilon = 1e-7

func (BCE) Loss(outputs, targets []float64) (float64, []float64, error) {
	if len(outputs) != len(targets) {
		return 0, nil, fmt.Errorf("got %d outputs for %d targets", len(outputs), len(targets))
	}
	if len(outputs) == 0 {
		return 0, nil, nil
	}
	n := float64(len(outputs))
	var total float64
	grad := make([]float64, len(outputs))
	for i, p := range outputs {
		p = math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
		y := targets[i]
		total -= y*math.Log(p) + (1-y)*math.Log(1-p)
		grad[i] = (p - y) / (p * (1 - p)) / n
	}
	return total / n, grad, nil
}
