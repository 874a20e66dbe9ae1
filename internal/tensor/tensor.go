// Package tensor provides float32 tensors backed by a pluggable compute backend.
//
// Tensors are dense, row-major and immutable from the point of view of the
// operations: every method returns a new tensor. Data exposes the backing
// slice for loaders and tests.
package tensor

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/born-ml/vision/internal/random"
)

// Tensor is a dense float32 tensor bound to a backend.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros(tensor.Shape{3, 4}, backend)
//	result := t.Add(t)
type Tensor struct {
	shape   Shape
	data    []float32
	backend Backend
}

// New wraps data without copying. len(data) must match shape.
func New(data []float32, shape Shape, b Backend) *Tensor {
	if shape.NumElements() != len(data) {
		Panicf("New", "shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	return &Tensor{shape: shape.Clone(), data: data, backend: b}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape, b Backend) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	buf := make([]float32, len(data))
	copy(buf, data)
	return &Tensor{shape: shape.Clone(), data: buf, backend: b}, nil
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, b Backend) *Tensor {
	return &Tensor{shape: shape.Clone(), data: make([]float32, shape.NumElements()), backend: b}
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, b Backend) *Tensor {
	return Full(shape, 1, b)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32, b Backend) *Tensor {
	t := Zeros(shape, b)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1) using the shared
// random source.
func Randn(shape Shape, b Backend) *Tensor {
	data := random.Fill(shape.NumElements(), func(r *rand.Rand) float32 {
		return float32(r.NormFloat64())
	})
	return &Tensor{shape: shape.Clone(), data: data, backend: b}
}

// Uniform creates a tensor with values drawn from U(lo, hi) using the
// shared random source.
func Uniform(shape Shape, lo, hi float32, b Backend) *Tensor {
	data := random.Fill(shape.NumElements(), func(r *rand.Rand) float32 {
		return lo + r.Float32()*(hi-lo)
	})
	return &Tensor{shape: shape.Clone(), data: data, backend: b}
}

// Arange creates a 1D tensor [start, start+1, ..., stop-1].
func Arange(start, stop int, b Backend) *Tensor {
	if stop < start {
		Panicf("Arange", "stop %d < start %d", stop, start)
	}
	t := Zeros(Shape{stop - start}, b)
	for i := range t.data {
		t.data[i] = float32(start + i)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Backend returns the computation backend.
func (t *Tensor) Backend() Backend {
	return t.backend
}

// Data returns the backing slice (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(idx ...int) float32 {
	if len(idx) != len(t.shape) {
		Panicf("At", "index %v has wrong rank for shape %v", idx, t.shape)
	}
	strides := t.shape.Strides()
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			Panicf("At", "index %v out of range for shape %v", idx, t.shape)
		}
		off += v * strides[i]
	}
	return t.data[off]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	buf := make([]float32, len(t.data))
	copy(buf, t.data)
	return &Tensor{shape: t.shape.Clone(), data: buf, backend: t.backend}
}

// Reshape returns a tensor sharing the same data with a new shape.
//
// One dimension may be -1 and is inferred from the others.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := make(Shape, len(dims))
	copy(shape, dims)

	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer == -1:
			infer = i
		case d <= 0:
			Panicf("Reshape", "invalid dimension %d in %v", d, dims)
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			Panicf("Reshape", "cannot infer dimension for %v from %d elements", dims, len(t.data))
		}
		shape[infer] = len(t.data) / known
	}

	if shape.NumElements() != len(t.data) {
		Panicf("Reshape", "cannot reshape %v (%d elements) to %v", t.shape, len(t.data), shape)
	}
	return &Tensor{shape: shape, data: t.data, backend: t.backend}
}

// Unsqueeze inserts a dimension of size 1 at dim.
func (t *Tensor) Unsqueeze(dim int) *Tensor {
	if dim < 0 {
		dim += len(t.shape) + 1
	}
	if dim < 0 || dim > len(t.shape) {
		Panicf("Unsqueeze", "dim %d out of range for shape %v", dim, t.shape)
	}
	shape := make(Shape, 0, len(t.shape)+1)
	shape = append(shape, t.shape[:dim]...)
	shape = append(shape, 1)
	shape = append(shape, t.shape[dim:]...)
	return &Tensor{shape: shape, data: t.data, backend: t.backend}
}

// Flatten keeps the first axis and collapses the rest: [B, ...] -> [B, N].
func (t *Tensor) Flatten() *Tensor {
	if len(t.shape) < 1 {
		Panicf("Flatten", "cannot flatten a scalar")
	}
	return t.Reshape(t.shape[0], -1)
}

// AllClose reports whether both tensors have the same shape and every pair
// of elements differs by at most tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.data {
		if math.Abs(float64(t.data[i]-other.data[i])) > tol {
			return false
		}
	}
	return true
}

// String prints shape and up to eight leading values.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor(shape=%v, data=[", t.shape)
	for i, v := range t.data {
		if i == 8 {
			sb.WriteString(" ...")
			break
		}
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%.4g", v)
	}
	sb.WriteString("])")
	return sb.String()
}
