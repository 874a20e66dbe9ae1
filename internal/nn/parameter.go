package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Parameter is a named weight tensor owned by a layer.
//
// Most parameters are trainable; moving statistics of BatchNorm are not and
// stay frozen regardless of the owning layer's flag.
//
// Example:
//
//	kernel := nn.NewParameter("kernel", kernelTensor)
//	w := kernel.Tensor()
type Parameter struct {
	name      string
	tensor    *tensor.Tensor
	trainable bool
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t, trainable: true}
}

// NewBuffer creates a parameter that is never trained (e.g. moving_mean).
func NewBuffer(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t, trainable: false}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Trainable reports whether the parameter itself can be trained.
func (p *Parameter) Trainable() bool {
	return p.trainable
}

// Size returns the number of scalar values in the parameter.
func (p *Parameter) Size() int {
	return p.tensor.NumElements()
}
