package nn

import (
	"math/rand"

	"github.com/born-ml/vision/internal/random"
	"github.com/born-ml/vision/internal/tensor"
)

// Dropout randomly zeroes inputs during training.
//
// At inference (the default) it is the identity. In training mode each
// value is dropped with probability Rate and survivors are scaled by
// 1/(1-Rate) so the expected sum is unchanged.
type Dropout struct {
	Base
	Rate     float32
	training bool
	backend  tensor.Backend
}

// NewDropout creates a Dropout layer. Rate must be in [0, 1).
func NewDropout(rate float32, backend tensor.Backend) *Dropout {
	if rate < 0 || rate >= 1 {
		tensor.Panicf("NewDropout", "rate must be in [0, 1), got %v", rate)
	}
	return &Dropout{
		Base:    newBase("dropout"),
		Rate:    rate,
		backend: backend,
	}
}

// SetTraining enables (true) or disables dropping.
func (d *Dropout) SetTraining(training bool) {
	d.training = training
}

// Forward applies dropout in training mode and returns x unchanged otherwise.
func (d *Dropout) Forward(x *tensor.Tensor) *tensor.Tensor {
	if !d.training || d.Rate == 0 {
		return x
	}

	keep := 1 - d.Rate
	mask := random.Fill(x.NumElements(), func(r *rand.Rand) float32 {
		if r.Float32() < d.Rate {
			return 0
		}
		return 1 / keep
	})
	return x.Mul(tensor.New(mask, x.Shape(), d.backend))
}

// Parameters returns nil; Dropout has no parameters.
func (d *Dropout) Parameters() []*Parameter {
	return nil
}

// ClassName returns "Dropout".
func (d *Dropout) ClassName() string {
	return "Dropout"
}

// Config exports the layer configuration.
func (d *Dropout) Config() map[string]any {
	return d.config(map[string]any{"rate": d.Rate})
}
