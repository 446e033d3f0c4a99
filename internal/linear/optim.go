package linear

import (
	"fmt"
	"math"

	"trainloop/internal/trainer"
)

// SGD is plain stochastic gradient descent with optional L2 weight decay.
type SGD struct {
	params      []*trainer.Parameter
	LR          float64
	WeightDecay float64
}

func NewSGD(params []*trainer.Parameter, lr float64) *SGD {
	return &SGD{params: params, LR: lr}
}

func (o *SGD) ZeroGrad() {
	for _, p := range o.params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

func (o *SGD) Step() error {
	for _, p := range o.params {
		for i, g := range p.Grad {
			g += o.WeightDecay * p.Value[i]
			if math.IsNaN(g) || math.IsInf(g, 0) {
				return fmt.Errorf("non-finite gradient in %s[%d]", p.Name, i)
			}
			p.Value[i] -= o.LR * g
		}
	}
	return nil
}
