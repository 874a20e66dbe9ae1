package nn

import (
	"math"

	"github.com/born-ml/vision/internal/tensor"
)

// GlorotUniform (Xavier) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This is the Keras default kernel initializer for Dense and Conv2D.
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor
//   - backend: Backend to use for tensor creation
//
// Returns a tensor initialized with the Glorot distribution.
func GlorotUniform(fanIn, fanOut int, shape tensor.Shape, backend tensor.Backend) *tensor.Tensor {
	bound := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	return tensor.Uniform(shape, -bound, bound, backend)
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(shape tensor.Shape, backend tensor.Backend) *tensor.Tensor {
	return tensor.Zeros(shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones(shape tensor.Shape, backend tensor.Backend) *tensor.Tensor {
	return tensor.Ones(shape, backend)
}

// RandomUniform creates a tensor with values in [-limit, limit).
//
// Keras initializes embeddings with limit 0.05.
func RandomUniform(shape tensor.Shape, limit float32, backend tensor.Backend) *tensor.Tensor {
	return tensor.Uniform(shape, -limit, limit, backend)
}
