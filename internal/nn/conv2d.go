package nn

import (
	"fmt"

	"github.com/born-ml/vision/internal/tensor"
)

// Conv2D is a 2D convolutional layer over NHWC images.
//
// Performs convolution: output = Conv2D(input, kernel) + bias
//
// Input shape:  [batch, height, width, in_channels]
// Kernel shape: [kernel_h, kernel_w, in_channels, filters]
// Bias shape:   [filters]
// Output shape: [batch, out_h, out_w, filters]
//
// Where out = ceil(in / stride) for "same" padding and
// (in - kernel) / stride + 1 for "valid".
//
// Example:
//
//	// Xception stem: 3 channels -> 32 filters, 3x3 kernel, stride 2
//	conv := nn.NewConv2D(3, 32, 3, 2, tensor.Valid, false, backend)
//	output := conv.Forward(images) // [N, 299, 299, 3] -> [N, 149, 149, 32]
type Conv2D struct {
	Base
	inChannels int
	filters    int
	kernelSize int
	stride     int
	padding    tensor.Padding

	kernel *Parameter // [kh, kw, in, filters]
	bias   *Parameter // [filters] or nil

	backend tensor.Backend
}

// NewConv2D creates a new 2D convolutional layer with Glorot initialization.
//
// Parameters:
//   - inChannels: Number of input channels
//   - filters: Number of output channels
//   - kernelSize: Square kernel size
//   - stride: Stride in both spatial dimensions
//   - padding: tensor.Valid or tensor.Same
//   - useBias: Whether to include a bias term
//   - backend: Backend for computation
func NewConv2D(inChannels, filters, kernelSize, stride int, padding tensor.Padding, useBias bool, backend tensor.Backend) *Conv2D {
	if inChannels <= 0 || filters <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, filters=%d", inChannels, filters))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d or stride %d", kernelSize, stride))
	}

	fanIn := kernelSize * kernelSize * inChannels
	fanOut := kernelSize * kernelSize * filters
	shape := tensor.Shape{kernelSize, kernelSize, inChannels, filters}

	c := &Conv2D{
		Base:       newBase("conv2d"),
		inChannels: inChannels,
		filters:    filters,
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		kernel:     NewParameter("kernel", GlorotUniform(fanIn, fanOut, shape, backend)),
		backend:    backend,
	}
	if useBias {
		c.bias = NewParameter("bias", Zeros(tensor.Shape{filters}, backend))
	}
	return c
}

// Forward convolves x and adds the bias.
func (c *Conv2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x.Conv2D(c.kernel.Tensor(), c.stride, c.padding)
	if c.bias != nil {
		out = out.Add(c.bias.Tensor())
	}
	return out
}

// Parameters returns [kernel] or [kernel, bias].
func (c *Conv2D) Parameters() []*Parameter {
	if c.bias == nil {
		return []*Parameter{c.kernel}
	}
	return []*Parameter{c.kernel, c.bias}
}

// Kernel returns the kernel parameter.
func (c *Conv2D) Kernel() *Parameter { return c.kernel }

// Bias returns the bias parameter (nil when the layer has none).
func (c *Conv2D) Bias() *Parameter { return c.bias }

// Filters returns the number of output channels.
func (c *Conv2D) Filters() int { return c.filters }

// ClassName returns "Conv2D".
func (c *Conv2D) ClassName() string { return "Conv2D" }

// Config exports the layer configuration.
func (c *Conv2D) Config() map[string]any {
	return c.config(map[string]any{
		"filters":     c.filters,
		"kernel_size": []int{c.kernelSize, c.kernelSize},
		"strides":     []int{c.stride, c.stride},
		"padding":     string(c.padding),
		"use_bias":    c.bias != nil,
	})
}

// SeparableConv2D is a depthwise convolution followed by a 1x1 pointwise one.
//
// Depthwise kernel: [kh, kw, in_channels]
// Pointwise kernel: [1, 1, in_channels, filters]
//
// This is the building block of every Xception block.
type SeparableConv2D struct {
	Base
	inChannels int
	filters    int
	kernelSize int
	stride     int
	padding    tensor.Padding

	depthwise *Parameter
	pointwise *Parameter
	bias      *Parameter

	backend tensor.Backend
}

// NewSeparableConv2D creates a separable convolution (depth multiplier 1).
func NewSeparableConv2D(inChannels, filters, kernelSize, stride int, padding tensor.Padding, useBias bool, backend tensor.Backend) *SeparableConv2D {
	if inChannels <= 0 || filters <= 0 || kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("separable_conv2d: invalid config in=%d filters=%d kernel=%d stride=%d",
			inChannels, filters, kernelSize, stride))
	}

	dwShape := tensor.Shape{kernelSize, kernelSize, inChannels}
	pwShape := tensor.Shape{1, 1, inChannels, filters}
	s := &SeparableConv2D{
		Base:       newBase("separable_conv2d"),
		inChannels: inChannels,
		filters:    filters,
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		depthwise:  NewParameter("depthwise_kernel", GlorotUniform(kernelSize*kernelSize, kernelSize*kernelSize, dwShape, backend)),
		pointwise:  NewParameter("pointwise_kernel", GlorotUniform(inChannels, filters, pwShape, backend)),
		backend:    backend,
	}
	if useBias {
		s.bias = NewParameter("bias", Zeros(tensor.Shape{filters}, backend))
	}
	return s
}

// Forward applies the depthwise then the pointwise convolution.
func (s *SeparableConv2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	out := x.DepthwiseConv2D(s.depthwise.Tensor(), s.stride, s.padding)
	out = out.Conv2D(s.pointwise.Tensor(), 1, tensor.Valid)
	if s.bias != nil {
		out = out.Add(s.bias.Tensor())
	}
	return out
}

// Parameters returns the depthwise and pointwise kernels (and bias if any).
func (s *SeparableConv2D) Parameters() []*Parameter {
	params := []*Parameter{s.depthwise, s.pointwise}
	if s.bias != nil {
		params = append(params, s.bias)
	}
	return params
}

// Filters returns the number of output channels.
func (s *SeparableConv2D) Filters() int { return s.filters }

// ClassName returns "SeparableConv2D".
func (s *SeparableConv2D) ClassName() string { return "SeparableConv2D" }

// Config exports the layer configuration.
func (s *SeparableConv2D) Config() map[string]any {
	return s.config(map[string]any{
		"filters":          s.filters,
		"kernel_size":      []int{s.kernelSize, s.kernelSize},
		"strides":          []int{s.stride, s.stride},
		"padding":          string(s.padding),
		"depth_multiplier": 1,
		"use_bias":         s.bias != nil,
	})
}
