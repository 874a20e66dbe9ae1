package tensor

// Add returns t + other with broadcasting.
func (t *Tensor) Add(other *Tensor) *Tensor { return t.backend.Add(t, other) }

// Sub returns t - other with broadcasting.
func (t *Tensor) Sub(other *Tensor) *Tensor { return t.backend.Sub(t, other) }

// Mul returns t * other (element-wise) with broadcasting.
func (t *Tensor) Mul(other *Tensor) *Tensor { return t.backend.Mul(t, other) }

// Div returns t / other (element-wise) with broadcasting.
func (t *Tensor) Div(other *Tensor) *Tensor { return t.backend.Div(t, other) }

// AddScalar returns t + s.
func (t *Tensor) AddScalar(s float32) *Tensor { return t.backend.AddScalar(t, s) }

// MulScalar returns t * s.
func (t *Tensor) MulScalar(s float32) *Tensor { return t.backend.MulScalar(t, s) }

// MatMul performs 2D matrix multiplication.
func (t *Tensor) MatMul(other *Tensor) *Tensor { return t.backend.MatMul(t, other) }

// BatchMatMul performs matrix multiplication over the last two axes.
func (t *Tensor) BatchMatMul(other *Tensor) *Tensor { return t.backend.BatchMatMul(t, other) }

// Transpose permutes axes. With no axes, the last two are swapped.
func (t *Tensor) Transpose(axes ...int) *Tensor { return t.backend.Transpose(t, axes...) }

// Exp applies e^x element-wise.
func (t *Tensor) Exp() *Tensor { return t.backend.Exp(t) }

// Sqrt applies the square root element-wise.
func (t *Tensor) Sqrt() *Tensor { return t.backend.Sqrt(t) }

// Rsqrt applies 1/sqrt(x) element-wise.
func (t *Tensor) Rsqrt() *Tensor { return t.backend.Rsqrt(t) }

// Tanh applies the hyperbolic tangent element-wise.
func (t *Tensor) Tanh() *Tensor { return t.backend.Tanh(t) }

// ReLU applies max(0, x) element-wise.
func (t *Tensor) ReLU() *Tensor { return t.backend.ReLU(t) }

// GELU applies the exact (erf based) Gaussian error linear unit.
func (t *Tensor) GELU() *Tensor { return t.backend.GELU(t) }

// Softmax normalizes along dim so that values sum to 1.
func (t *Tensor) Softmax(dim int) *Tensor { return t.backend.Softmax(t, dim) }

// SumDim sums along dim.
func (t *Tensor) SumDim(dim int, keepDim bool) *Tensor { return t.backend.SumDim(t, dim, keepDim) }

// MeanDim averages along dim.
func (t *Tensor) MeanDim(dim int, keepDim bool) *Tensor { return t.backend.MeanDim(t, dim, keepDim) }

// Argmax returns the index of the maximum along the last axis for every
// leading position.
func (t *Tensor) Argmax() []int { return t.backend.Argmax(t) }

// Conv2D convolves an NHWC input with a [kh, kw, in, out] kernel.
func (t *Tensor) Conv2D(kernel *Tensor, stride int, padding Padding) *Tensor {
	return t.backend.Conv2D(t, kernel, stride, padding)
}

// DepthwiseConv2D convolves every channel with its own [kh, kw] filter.
func (t *Tensor) DepthwiseConv2D(kernel *Tensor, stride int, padding Padding) *Tensor {
	return t.backend.DepthwiseConv2D(t, kernel, stride, padding)
}

// MaxPool2D applies max pooling over NHWC input.
func (t *Tensor) MaxPool2D(size, stride int, padding Padding) *Tensor {
	return t.backend.MaxPool2D(t, size, stride, padding)
}

// GlobalAvgPool2D averages over the spatial axes: [B, H, W, C] -> [B, C].
func (t *Tensor) GlobalAvgPool2D() *Tensor { return t.backend.GlobalAvgPool2D(t) }

// ExtractPatches splits NHWC images into flattened square patches.
func (t *Tensor) ExtractPatches(size int) *Tensor { return t.backend.ExtractPatches(t, size) }

// Gather selects rows of a 2D tensor.
func (t *Tensor) Gather(indices []int) *Tensor { return t.backend.Gather(t, indices) }
