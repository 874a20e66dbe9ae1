package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Linear implements a fully connected (Dense) layer on the last axis.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [..., in_features]
//   - W is the kernel with shape [in_features, out_features] (Keras layout)
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [..., out_features]
//
// Kernels are initialized using Glorot uniform, biases with zeros.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(768, 512, backend)
//	output := layer.Forward(features) // [32, 768] -> [32, 512]
type Linear struct {
	Base
	inFeatures  int
	outFeatures int
	kernel      *Parameter // [in_features, out_features]
	bias        *Parameter // [out_features]
	backend     tensor.Backend
}

// NewLinear creates a new Linear layer named "dense".
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - backend: Backend to use for tensor operations
func NewLinear(inFeatures, outFeatures int, backend tensor.Backend) *Linear {
	kernel := GlorotUniform(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, backend)
	bias := Zeros(tensor.Shape{outFeatures}, backend)

	return &Linear{
		Base:        newBase("dense"),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		kernel:      NewParameter("kernel", kernel),
		bias:        NewParameter("bias", bias),
		backend:     backend,
	}
}

// Forward computes x @ W + b over the last axis.
//
// Input shape: [..., in_features]
// Output shape: [..., out_features]
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) < 2 {
		tensor.Panicf("Linear.Forward", "expected at least 2D input [batch, features], got shape %v", shape)
	}
	if shape[len(shape)-1] != l.inFeatures {
		tensor.Panicf("Linear.Forward", "expected input with %d features, got %d", l.inFeatures, shape[len(shape)-1])
	}

	// Collapse leading axes: [..., in] -> [N, in]
	x2d := input.Reshape(-1, l.inFeatures)
	output := x2d.MatMul(l.kernel.Tensor()).Add(l.bias.Tensor())

	outShape := shape.Clone()
	outShape[len(outShape)-1] = l.outFeatures
	return output.Reshape(outShape...)
}

// Parameters returns [kernel, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.kernel, l.bias}
}

// Kernel returns the kernel parameter.
func (l *Linear) Kernel() *Parameter {
	return l.kernel
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// ClassName returns "Dense".
func (l *Linear) ClassName() string {
	return "Dense"
}

// Config exports the layer configuration.
func (l *Linear) Config() map[string]any {
	return l.config(map[string]any{
		"units":     l.outFeatures,
		"input_dim": l.inFeatures,
	})
}
