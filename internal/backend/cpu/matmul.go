package cpu

import (
	"github.com/born-ml/vision/internal/parallel"
	"github.com/born-ml/vision/internal/tensor"
)

// MatMul performs [M, K] @ [K, N] -> [M, N].
func (b *CPUBackend) MatMul(x, y *tensor.Tensor) *tensor.Tensor {
	xs, ys := x.Shape(), y.Shape()
	if len(xs) != 2 || len(ys) != 2 {
		tensor.Panicf("MatMul", "expected 2D tensors, got %v and %v", xs, ys)
	}
	if xs[1] != ys[0] {
		tensor.Panicf("MatMul", "inner dimensions differ: %v @ %v", xs, ys)
	}

	m, k, n := xs[0], xs[1], ys[1]
	out := make([]float32, m*n)
	matmulInto(out, x.Data(), y.Data(), m, k, n)
	return b.wrap(out, tensor.Shape{m, n})
}

// BatchMatMul performs [..., M, K] @ [..., K, N] -> [..., M, N].
//
// Leading dimensions must match exactly.
func (b *CPUBackend) BatchMatMul(x, y *tensor.Tensor) *tensor.Tensor {
	xs, ys := x.Shape(), y.Shape()
	if len(xs) < 3 || len(xs) != len(ys) {
		tensor.Panicf("BatchMatMul", "expected equal-rank tensors with rank >= 3, got %v and %v", xs, ys)
	}
	r := len(xs)
	if !xs[:r-2].Equal(ys[:r-2]) {
		tensor.Panicf("BatchMatMul", "batch dimensions differ: %v vs %v", xs, ys)
	}
	if xs[r-1] != ys[r-2] {
		tensor.Panicf("BatchMatMul", "inner dimensions differ: %v @ %v", xs, ys)
	}

	m, k, n := xs[r-2], xs[r-1], ys[r-1]
	batch := xs[:r-2].NumElements()
	xd, yd := x.Data(), y.Data()
	out := make([]float32, batch*m*n)

	parallel.For(batch, func(i int) {
		matmulRows(out[i*m*n:(i+1)*m*n], xd[i*m*k:(i+1)*m*k], yd[i*k*n:(i+1)*k*n], 0, m, k, n)
	})

	shape := append(xs[:r-2].Clone(), m, n)
	return b.wrap(out, shape)
}

// matmulInto computes out = a @ b, splitting rows across workers.
func matmulInto(out, a, bm []float32, m, k, n int) {
	parallel.ForRange(m, func(lo, hi int) {
		matmulRows(out, a, bm, lo, hi, k, n)
	})
}

// matmulRows computes rows [lo, hi) of a @ b with an i-k-j loop order so the
// inner loop streams through contiguous memory.
func matmulRows(out, a, bm []float32, lo, hi, k, n int) {
	for i := lo; i < hi; i++ {
		row := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			brow := bm[p*n : (p+1)*n]
			for j, bv := range brow {
				row[j] += av * bv
			}
		}
	}
}
