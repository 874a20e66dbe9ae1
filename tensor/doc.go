// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public API for the float32 tensors used by the
// vision models.
//
// Tensors are dense, row-major and immutable from the caller's point of
// view: every operation returns a new tensor computed by the tensor's
// backend. Images use the NHWC layout [batch, height, width, channels].
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros(tensor.Shape{2, 3}, backend)
//	y := tensor.Ones(tensor.Shape{3}, backend)
//	z := x.Add(y) // broadcasts over the first axis
//
// # Shape errors
//
// Operations panic with a *ShapeError when their inputs do not fit
// together. ShapeError unwraps to ErrShape; nn.SafeForward converts such a
// panic into an error.
package tensor
