package nn

import (
	"fmt"

	"github.com/born-ml/vision/internal/tensor"
)

// Activation applies an element-wise (or row-wise, for softmax) function.
//
// Supported functions: "relu", "gelu", "softmax", "tanh", "linear".
//
// Example:
//
//	relu := nn.NewActivation("relu")
//	probs := nn.NewActivation("softmax").Forward(logits)
type Activation struct {
	Base
	function string
}

// NewActivation creates an activation layer. Panics on unknown names.
func NewActivation(function string) *Activation {
	switch function {
	case "relu", "gelu", "softmax", "tanh", "linear":
	default:
		panic(fmt.Sprintf("NewActivation: unknown activation %q", function))
	}
	return &Activation{Base: newBase(function), function: function}
}

// NewReLU creates a ReLU activation layer.
func NewReLU() *Activation { return NewActivation("relu") }

// NewGELU creates a GELU activation layer (exact erf formulation).
func NewGELU() *Activation { return NewActivation("gelu") }

// NewSoftmax creates a softmax over the last axis.
func NewSoftmax() *Activation { return NewActivation("softmax") }

// Function returns the activation name.
func (a *Activation) Function() string {
	return a.function
}

// Forward applies the activation.
func (a *Activation) Forward(x *tensor.Tensor) *tensor.Tensor {
	switch a.function {
	case "relu":
		return x.ReLU()
	case "gelu":
		return x.GELU()
	case "softmax":
		return x.Softmax(-1)
	case "tanh":
		return x.Tanh()
	default:
		return x
	}
}

// Parameters returns nil; activations have no parameters.
func (a *Activation) Parameters() []*Parameter {
	return nil
}

// ClassName returns "Activation".
func (a *Activation) ClassName() string {
	return "Activation"
}

// Config exports the layer configuration.
func (a *Activation) Config() map[string]any {
	return a.config(map[string]any{"activation": a.function})
}
