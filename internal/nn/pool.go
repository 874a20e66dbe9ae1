package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// MaxPool2D takes the maximum over square windows of an NHWC input.
//
// Example:
//
//	pool := nn.NewMaxPool2D(3, 2, tensor.Same)
//	output := pool.Forward(x) // [N, 147, 147, 128] -> [N, 74, 74, 128]
type MaxPool2D struct {
	Base
	poolSize int
	stride   int
	padding  tensor.Padding
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(poolSize, stride int, padding tensor.Padding) *MaxPool2D {
	if poolSize <= 0 || stride <= 0 {
		tensor.Panicf("NewMaxPool2D", "invalid pool size %d or stride %d", poolSize, stride)
	}
	return &MaxPool2D{Base: newBase("max_pooling2d"), poolSize: poolSize, stride: stride, padding: padding}
}

// Forward pools x.
func (p *MaxPool2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	return x.MaxPool2D(p.poolSize, p.stride, p.padding)
}

// Parameters returns nil.
func (p *MaxPool2D) Parameters() []*Parameter { return nil }

// ClassName returns "MaxPooling2D".
func (p *MaxPool2D) ClassName() string { return "MaxPooling2D" }

// Config exports the layer configuration.
func (p *MaxPool2D) Config() map[string]any {
	return p.config(map[string]any{
		"pool_size": []int{p.poolSize, p.poolSize},
		"strides":   []int{p.stride, p.stride},
		"padding":   string(p.padding),
	})
}

// GlobalAveragePooling2D averages each channel over the spatial axes:
// [N, H, W, C] -> [N, C].
type GlobalAveragePooling2D struct {
	Base
}

// NewGlobalAveragePooling2D creates a global average pooling layer.
func NewGlobalAveragePooling2D() *GlobalAveragePooling2D {
	return &GlobalAveragePooling2D{Base: newBase("global_average_pooling2d")}
}

// Forward pools x.
func (p *GlobalAveragePooling2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	return x.GlobalAvgPool2D()
}

// Parameters returns nil.
func (p *GlobalAveragePooling2D) Parameters() []*Parameter { return nil }

// ClassName returns "GlobalAveragePooling2D".
func (p *GlobalAveragePooling2D) ClassName() string { return "GlobalAveragePooling2D" }

// Config exports the layer configuration.
func (p *GlobalAveragePooling2D) Config() map[string]any { return p.config(nil) }
