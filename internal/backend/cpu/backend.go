// Package cpu implements the tensor.Backend interface in pure Go.
//
// Kernels work on dense row-major float32 data. Outer loops (rows of a
// matrix product, output rows of a convolution) are split across goroutines
// with the parallel package; everything else runs inline.
package cpu

import "github.com/born-ml/vision/internal/tensor"

// CPUBackend is the pure Go compute backend.
type CPUBackend struct{}

// New creates a CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (b *CPUBackend) Name() string {
	return "CPU"
}

// wrap builds a result tensor owned by this backend.
func (b *CPUBackend) wrap(data []float32, shape tensor.Shape) *tensor.Tensor {
	return tensor.New(data, shape, b)
}

var _ tensor.Backend = (*CPUBackend)(nil)
