// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/vision/internal/tensor"
)

// Tensor is a float32 tensor bound to a backend.
type Tensor = tensor.Tensor

// Shape lists the size of every axis.
type Shape = tensor.Shape

// Backend computes tensor operations.
type Backend = tensor.Backend

// Padding selects how convolution and pooling windows treat borders.
type Padding = tensor.Padding

// Padding modes.
const (
	Valid = tensor.Valid
	Same  = tensor.Same
)

// ShapeError describes an operation whose inputs have incompatible shapes.
type ShapeError = tensor.ShapeError

// ErrShape matches every ShapeError with errors.Is.
var ErrShape = tensor.ErrShape

// New wraps data (not copied) in a tensor of the given shape. It panics if
// the sizes disagree.
func New(data []float32, shape Shape, b Backend) *Tensor {
	return tensor.New(data, shape, b)
}

// FromSlice is New returning an error instead of panicking.
func FromSlice(data []float32, shape Shape, b Backend) (*Tensor, error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros returns a tensor filled with 0.
func Zeros(shape Shape, b Backend) *Tensor {
	return tensor.Zeros(shape, b)
}

// Ones returns a tensor filled with 1.
func Ones(shape Shape, b Backend) *Tensor {
	return tensor.Ones(shape, b)
}

// Full returns a tensor filled with value.
func Full(shape Shape, value float32, b Backend) *Tensor {
	return tensor.Full(shape, value, b)
}

// Randn returns standard normal samples from the shared random source.
func Randn(shape Shape, b Backend) *Tensor {
	return tensor.Randn(shape, b)
}

// Uniform returns samples from U(lo, hi) drawn from the shared random source.
func Uniform(shape Shape, lo, hi float32, b Backend) *Tensor {
	return tensor.Uniform(shape, lo, hi, b)
}

// Arange returns the 1-D tensor [start, start+1, ..., stop-1].
func Arange(start, stop int, b Backend) *Tensor {
	return tensor.Arange(start, stop, b)
}
