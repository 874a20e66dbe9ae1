// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Kernels run on float32 data in NHWC layout and split their outer loops
// across goroutines. Broadcasting follows NumPy rules.
//
//	backend := cpu.New()
//	x := tensor.Randn(tensor.Shape{1, 224, 224, 3}, backend)
package cpu

import (
	internalcpu "github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/tensor"
)

// Backend is the CPU backend.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend.
func New() *Backend {
	return internalcpu.New()
}
