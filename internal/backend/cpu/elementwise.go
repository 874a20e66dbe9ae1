package cpu

import (
	"math"

	"github.com/born-ml/vision/internal/tensor"
)

// Add returns a + b with broadcasting.
func (b *CPUBackend) Add(x, y *tensor.Tensor) *tensor.Tensor {
	return b.binary("Add", x, y, func(p, q float32) float32 { return p + q })
}

// Sub returns a - b with broadcasting.
func (b *CPUBackend) Sub(x, y *tensor.Tensor) *tensor.Tensor {
	return b.binary("Sub", x, y, func(p, q float32) float32 { return p - q })
}

// Mul returns a * b with broadcasting.
func (b *CPUBackend) Mul(x, y *tensor.Tensor) *tensor.Tensor {
	return b.binary("Mul", x, y, func(p, q float32) float32 { return p * q })
}

// Div returns a / b with broadcasting.
func (b *CPUBackend) Div(x, y *tensor.Tensor) *tensor.Tensor {
	return b.binary("Div", x, y, func(p, q float32) float32 { return p / q })
}

// AddScalar returns x + s.
func (b *CPUBackend) AddScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 { return v + s })
}

// MulScalar returns x * s.
func (b *CPUBackend) MulScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 { return v * s })
}

// Exp applies e^x.
func (b *CPUBackend) Exp(x *tensor.Tensor) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 { return float32(math.Exp(float64(v))) })
}

// Sqrt applies the square root.
func (b *CPUBackend) Sqrt(x *tensor.Tensor) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// Rsqrt applies 1/sqrt(x).
func (b *CPUBackend) Rsqrt(x *tensor.Tensor) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 { return float32(1 / math.Sqrt(float64(v))) })
}

// Tanh applies the hyperbolic tangent.
func (b *CPUBackend) Tanh(x *tensor.Tensor) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 { return float32(math.Tanh(float64(v))) })
}

// ReLU applies max(0, x).
func (b *CPUBackend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// GELU applies 0.5 * x * (1 + erf(x / sqrt(2))).
func (b *CPUBackend) GELU(x *tensor.Tensor) *tensor.Tensor {
	return b.unary(x, func(v float32) float32 {
		return float32(0.5 * float64(v) * (1 + math.Erf(float64(v)/math.Sqrt2)))
	})
}

func (b *CPUBackend) unary(x *tensor.Tensor, f func(float32) float32) *tensor.Tensor {
	src := x.Data()
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = f(v)
	}
	return b.wrap(out, x.Shape())
}

// binary applies f element-wise after broadcasting both operands to a common shape.
func (b *CPUBackend) binary(op string, x, y *tensor.Tensor, f func(p, q float32) float32) *tensor.Tensor {
	xs, ys := x.Shape(), y.Shape()
	xd, yd := x.Data(), y.Data()

	if xs.Equal(ys) {
		out := make([]float32, len(xd))
		for i := range xd {
			out[i] = f(xd[i], yd[i])
		}
		return b.wrap(out, xs)
	}

	shape, err := tensor.BroadcastShapes(xs, ys)
	if err != nil {
		tensor.Panicf(op, "%v", err)
	}

	n := len(shape)
	xStr := broadcastStrides(xs, shape)
	yStr := broadcastStrides(ys, shape)
	out := make([]float32, shape.NumElements())

	idx := make([]int, n)
	xOff, yOff := 0, 0
	for i := range out {
		out[i] = f(xd[xOff], yd[yOff])
		for d := n - 1; d >= 0; d-- {
			idx[d]++
			xOff += xStr[d]
			yOff += yStr[d]
			if idx[d] < shape[d] {
				break
			}
			xOff -= xStr[d] * shape[d]
			yOff -= yStr[d] * shape[d]
			idx[d] = 0
		}
	}
	return b.wrap(out, shape)
}

// broadcastStrides returns the strides of s aligned to target, with 0 for
// every axis that s broadcasts along.
func broadcastStrides(s, target tensor.Shape) []int {
	own := s.Strides()
	out := make([]int, len(target))
	lead := len(target) - len(s)
	for i := range s {
		if s[i] != 1 {
			out[lead+i] = own[i]
		}
	}
	return out
}
