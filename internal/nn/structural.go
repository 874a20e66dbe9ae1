package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Input checks the per-sample shape of model inputs: [batch, shape...].
type Input struct {
	Base
	shape tensor.Shape
}

// NewInput creates an input layer for samples of the given shape.
func NewInput(shape tensor.Shape) *Input {
	return &Input{Base: newBase("input"), shape: shape.Clone()}
}

// Shape returns the per-sample shape.
func (l *Input) Shape() tensor.Shape {
	return l.shape
}

// Forward returns x after checking its shape.
func (l *Input) Forward(x *tensor.Tensor) *tensor.Tensor {
	s := x.Shape()
	if len(s) != len(l.shape)+1 || !s[1:].Equal(l.shape) {
		tensor.Panicf("Input.Forward", "expected input of shape [batch %v], got %v", l.shape, s)
	}
	return x
}

// Parameters returns nil.
func (l *Input) Parameters() []*Parameter { return nil }

// ClassName returns "InputLayer".
func (l *Input) ClassName() string { return "InputLayer" }

// Config exports the layer configuration.
func (l *Input) Config() map[string]any {
	return l.config(map[string]any{"batch_input_shape": append([]int{-1}, l.shape...)})
}

// Flatten collapses every axis but the first: [B, ...] -> [B, N].
type Flatten struct {
	Base
}

// NewFlatten creates a Flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{Base: newBase("flatten")}
}

// Forward flattens x.
func (l *Flatten) Forward(x *tensor.Tensor) *tensor.Tensor {
	return x.Flatten()
}

// Parameters returns nil.
func (l *Flatten) Parameters() []*Parameter { return nil }

// ClassName returns "Flatten".
func (l *Flatten) ClassName() string { return "Flatten" }

// Config exports the layer configuration.
func (l *Flatten) Config() map[string]any { return l.config(nil) }

// Add sums two tensors of broadcast-compatible shapes (residual connections).
type Add struct {
	Base
}

// NewAdd creates an Add layer.
func NewAdd() *Add {
	return &Add{Base: newBase("add")}
}

// Call returns a + b.
func (l *Add) Call(a, b *tensor.Tensor) *tensor.Tensor {
	return a.Add(b)
}

// Parameters returns nil.
func (l *Add) Parameters() []*Parameter { return nil }

// ClassName returns "Add".
func (l *Add) ClassName() string { return "Add" }

// Config exports the layer configuration.
func (l *Add) Config() map[string]any { return l.config(nil) }
