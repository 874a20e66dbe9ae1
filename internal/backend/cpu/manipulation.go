package cpu

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Transpose permutes the axes of x. With no axes the last two are swapped.
func (b *CPUBackend) Transpose(x *tensor.Tensor, axes ...int) *tensor.Tensor {
	shape := x.Shape()
	r := len(shape)
	if len(axes) == 0 {
		if r < 2 {
			tensor.Panicf("Transpose", "need at least 2 dimensions, got %v", shape)
		}
		axes = make([]int, r)
		for i := range axes {
			axes[i] = i
		}
		axes[r-2], axes[r-1] = axes[r-1], axes[r-2]
	}
	if len(axes) != r {
		tensor.Panicf("Transpose", "axes %v do not match rank of %v", axes, shape)
	}

	seen := make([]bool, r)
	outShape := make(tensor.Shape, r)
	for i, a := range axes {
		if a < 0 || a >= r || seen[a] {
			tensor.Panicf("Transpose", "invalid permutation %v", axes)
		}
		seen[a] = true
		outShape[i] = shape[a]
	}

	inStrides := shape.Strides()
	// Stride in the input for each output axis.
	srcStrides := make([]int, r)
	for i, a := range axes {
		srcStrides[i] = inStrides[a]
	}

	src := x.Data()
	out := make([]float32, len(src))
	idx := make([]int, r)
	off := 0
	for i := range out {
		out[i] = src[off]
		for d := r - 1; d >= 0; d-- {
			idx[d]++
			off += srcStrides[d]
			if idx[d] < outShape[d] {
				break
			}
			off -= srcStrides[d] * outShape[d]
			idx[d] = 0
		}
	}
	return b.wrap(out, outShape)
}

// Gather selects rows of a 2D table.
func (b *CPUBackend) Gather(table *tensor.Tensor, indices []int) *tensor.Tensor {
	shape := table.Shape()
	if len(shape) != 2 {
		tensor.Panicf("Gather", "expected 2D table, got %v", shape)
	}
	rows, dim := shape[0], shape[1]
	src := table.Data()
	out := make([]float32, len(indices)*dim)
	for i, idx := range indices {
		if idx < 0 || idx >= rows {
			tensor.Panicf("Gather", "index %d out of range [0, %d)", idx, rows)
		}
		copy(out[i*dim:(i+1)*dim], src[idx*dim:(idx+1)*dim])
	}
	return b.wrap(out, tensor.Shape{len(indices), dim})
}
