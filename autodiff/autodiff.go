// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any compute backend with a gradient tape that records operations
// during the forward pass, then walks the tape backwards to produce
// gradients for every input tensor.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
//
//	backend.Tape().StartRecording()
//	// ... forward pass, loss computation ...
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//	backend.Tape().Clear()
package autodiff

import (
	"github.com/flintml/flint/internal/autodiff"
	"github.com/flintml/flint/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend = autodiff.Backend

// GradientTape records operations for reverse-mode differentiation.
type GradientTape = autodiff.GradientTape

// Gradients maps each input tensor to its gradient.
type Gradients = autodiff.Gradients

// New creates a new autodiff backend wrapping the given backend.
func New(inner tensor.Backend) *Backend {
	return autodiff.New(inner)
}

// Backward computes gradients of a scalar loss with respect to every tensor
// recorded on the backend's tape.
func Backward(loss *tensor.Tensor[float32], b *Backend) Gradients {
	return autodiff.Backward(loss, b)
}
