// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// The backend uses gonum's BLAS routines for matrix multiplication and a
// worker pool sized to the machine's physical cores for large element-wise
// operations.
package cpu

import (
	internalcpu "github.com/flintml/flint/internal/backend/cpu"
	"github.com/flintml/flint/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend with parallelism enabled.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend with parallelism disabled. Useful for
// deterministic profiling and debugging.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
