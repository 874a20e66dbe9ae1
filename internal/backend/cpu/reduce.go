package cpu

import (
	"math"

	"github.com/born-ml/vision/internal/tensor"
)

// splitAt returns the sizes of the axes before, at and after dim.
func splitAt(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	return out
}

// Softmax computes exp(x - max) / sum(exp(x - max)) along dim.
func (b *CPUBackend) Softmax(x *tensor.Tensor, dim int) *tensor.Tensor {
	shape := x.Shape()
	dim = shape.Axis(dim)
	outer, size, inner := splitAt(shape, dim)

	src := x.Data()
	out := make([]float32, len(src))
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			maxVal := float32(math.Inf(-1))
			for k := 0; k < size; k++ {
				if v := src[base+k*inner]; v > maxVal {
					maxVal = v
				}
			}
			var sum float64
			for k := 0; k < size; k++ {
				e := math.Exp(float64(src[base+k*inner] - maxVal))
				out[base+k*inner] = float32(e)
				sum += e
			}
			for k := 0; k < size; k++ {
				out[base+k*inner] = float32(float64(out[base+k*inner]) / sum)
			}
		}
	}
	return b.wrap(out, shape)
}

// SumDim sums along dim.
func (b *CPUBackend) SumDim(x *tensor.Tensor, dim int, keepDim bool) *tensor.Tensor {
	return b.reduce(x, dim, keepDim, 1)
}

// MeanDim averages along dim.
func (b *CPUBackend) MeanDim(x *tensor.Tensor, dim int, keepDim bool) *tensor.Tensor {
	shape := x.Shape()
	d := shape.Axis(dim)
	return b.reduce(x, dim, keepDim, 1/float64(shape[d]))
}

func (b *CPUBackend) reduce(x *tensor.Tensor, dim int, keepDim bool, scale float64) *tensor.Tensor {
	shape := x.Shape()
	dim = shape.Axis(dim)
	outer, size, inner := splitAt(shape, dim)

	src := x.Data()
	out := make([]float32, outer*inner)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			var sum float64
			for k := 0; k < size; k++ {
				sum += float64(src[base+k*inner])
			}
			out[o*inner+in] = float32(sum * scale)
		}
	}
	return b.wrap(out, reducedShape(shape, dim, keepDim))
}

// Argmax returns the index of the maximum along the last axis.
func (b *CPUBackend) Argmax(x *tensor.Tensor) []int {
	shape := x.Shape()
	if len(shape) == 0 {
		tensor.Panicf("Argmax", "scalar input")
	}
	size := shape[len(shape)-1]
	src := x.Data()
	rows := len(src) / size
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		row := src[r*size : (r+1)*size]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		out[r] = best
	}
	return out
}
