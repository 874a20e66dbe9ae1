package nn

import (
	"github.com/born-ml/vision/internal/tensor"
)

// LayerNorm applies Layer Normalization over the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// The vision transformer uses eps = 1e-6 before attention, before the MLP
// and before the classification head.
//
// Example:
//
//	layernorm := nn.NewLayerNorm(64, 1e-6, backend)
//	output := layernorm.Forward(patches) // [..., 64] -> [..., 64]
type LayerNorm struct {
	Base
	Gamma   *Parameter // learnable scale [features]
	Beta    *Parameter // learnable shift [features]
	Epsilon float32
	size    int
}

// NewLayerNorm creates a new LayerNorm layer. Gamma starts at ones, beta at zeros.
func NewLayerNorm(normalizedShape int, epsilon float32, backend tensor.Backend) *LayerNorm {
	return &LayerNorm{
		Base:    newBase("layer_normalization"),
		Gamma:   NewParameter("gamma", Ones(tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", Zeros(tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		size:    normalizedShape,
	}
}

// Forward normalizes x along its last axis.
//
// Algorithm:
//  1. mean = mean(x) along the last axis
//  2. var = mean((x - mean)^2)
//  3. x_norm = (x - mean) * rsqrt(var + eps)
//  4. output = gamma * x_norm + beta
func (l *LayerNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != l.size {
		tensor.Panicf("LayerNorm.Forward", "expected last dimension %d, got shape %v", l.size, shape)
	}

	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)
	xNorm := centered.Mul(variance.AddScalar(l.Epsilon).Rsqrt())

	// gamma/beta [features] broadcast against [..., features]
	return xNorm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns [gamma, beta].
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.Gamma, l.Beta}
}

// ClassName returns "LayerNormalization".
func (l *LayerNorm) ClassName() string {
	return "LayerNormalization"
}

// Config exports the layer configuration.
func (l *LayerNorm) Config() map[string]any {
	return l.config(map[string]any{
		"epsilon": l.Epsilon,
		"axis":    -1,
	})
}
