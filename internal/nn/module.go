// Package nn implements the layer library used by the vision models.
//
// This package provides building blocks for constructing image classifiers:
//   - Module and Layer interfaces, Parameter
//   - Dense (Linear), Conv2D, SeparableConv2D, pooling, Flatten
//   - LayerNorm, BatchNorm, Dropout, activations
//   - Embedding and MultiHeadAttention for transformer encoders
//   - Sequential and MLP containers, model summaries and weight files
//
// Layers follow Keras semantics (NHWC images, Dense on the last axis,
// key_dim per attention head) so that configurations and pretrained weights
// map one to one. Forward methods panic with a *tensor.ShapeError on shape
// mismatches; SafeForward turns that into an error.
package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Module is anything that maps one tensor to another.
//
// Every module must implement:
//   - Forward: compute output from input
//   - Parameters: return all parameters (trainable or not)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Parameters returns the parameters of this module, including the ones
	// of nested modules. Returns an empty slice for parameter-free modules.
	Parameters() []*Parameter
}

// Layer is a named, configurable unit of a model.
//
// Layers carry a trainable flag which transfer-learning code flips to
// freeze parts of a backbone. Not every layer is a Module: Add merges two
// inputs and exposes Call instead of Forward.
type Layer interface {
	Name() string
	SetName(name string)
	ClassName() string
	Config() map[string]any
	Parameters() []*Parameter
	Trainable() bool
	SetTrainable(trainable bool)
}

// Base holds the name and trainable flag shared by every layer.
type Base struct {
	name      string
	trainable bool
}

func newBase(name string) Base {
	return Base{name: name, trainable: true}
}

// NewBase returns a trainable Base named name, for layers defined outside
// this package.
func NewBase(name string) Base {
	return newBase(name)
}

// Name returns the layer name.
func (b *Base) Name() string {
	return b.name
}

// SetName renames the layer. Weight files key parameters by layer name.
func (b *Base) SetName(name string) {
	b.name = name
}

// Trainable reports whether the layer's parameters receive updates.
func (b *Base) Trainable() bool {
	return b.trainable
}

// SetTrainable freezes (false) or unfreezes (true) the layer.
func (b *Base) SetTrainable(trainable bool) {
	b.trainable = trainable
}

// BaseConfig returns the name and trainable flag merged with extra.
func (b *Base) BaseConfig(extra map[string]any) map[string]any {
	return b.config(extra)
}

func (b *Base) config(extra map[string]any) map[string]any {
	cfg := map[string]any{
		"name":      b.name,
		"trainable": b.trainable,
	}
	for k, v := range extra {
		cfg[k] = v
	}
	return cfg
}

// trainingMode is implemented by layers whose forward pass differs between
// training and inference (Dropout, BatchNorm).
type trainingMode interface {
	SetTraining(training bool)
}
