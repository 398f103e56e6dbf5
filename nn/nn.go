// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks: layers, activations,
// losses and the Module interface they share.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU(),
//	    nn.NewDropout(0.5),
//	    nn.NewLinear(128, 10, backend),
//	)
//	criterion := nn.NewCrossEntropyLoss(backend)
package nn

import (
	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/tensor"
)

// Module is the interface implemented by all neural network components.
type Module = nn.Module

// Trainable is implemented by modules whose behavior differs between
// training and evaluation mode (e.g. Dropout).
type Trainable = nn.Trainable

// SetTraining switches a module (and, for containers, its children) between
// training and evaluation mode.
func SetTraining(m Module, training bool) {
	nn.SetTraining(m, training)
}

// Parameter is a named trainable tensor.
type Parameter = nn.Parameter

// NewParameter wraps a tensor as a named trainable parameter.
func NewParameter(name string, t *tensor.Tensor[float32]) *Parameter {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer computing y = x·Wᵀ + b.
type Linear = nn.Linear

// NewLinear creates a fully connected layer with Xavier-initialized weights.
func NewLinear(inFeatures, outFeatures int, backend tensor.Backend) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Sequential chains modules, feeding each one's output into the next.
type Sequential = nn.Sequential

// NewSequential creates a sequential container from the given modules.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// ReLU is the rectified linear activation module.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation module.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Sigmoid is the logistic activation module.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return nn.NewSigmoid()
}

// Tanh is the hyperbolic tangent activation module.
type Tanh = nn.Tanh

// NewTanh creates a Tanh activation module.
func NewTanh() *Tanh {
	return nn.NewTanh()
}

// Dropout randomly zeroes inputs during training with probability p,
// scaling survivors by 1/(1-p) so activations keep their expected value.
type Dropout = nn.Dropout

// NewDropout creates a Dropout module. It panics unless 0 <= p < 1.
func NewDropout(p float32) *Dropout {
	return nn.NewDropout(p)
}

// CrossEntropyLoss computes softmax cross-entropy over class logits.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss(backend tensor.Backend) *CrossEntropyLoss {
	return nn.NewCrossEntropyLoss(backend)
}

// MSELoss computes mean squared error for regression targets.
type MSELoss = nn.MSELoss

// NewMSELoss creates a mean squared error loss function.
func NewMSELoss(backend tensor.Backend) *MSELoss {
	return nn.NewMSELoss(backend)
}

// NumCorrect counts correctly classified samples in a batch of logits.
func NumCorrect(logits *tensor.Tensor[float32], targets *tensor.Tensor[int32]) int {
	return nn.NumCorrect(logits, targets)
}

// Accuracy computes classification accuracy for a batch, between 0 and 1.
func Accuracy(logits *tensor.Tensor[float32], targets *tensor.Tensor[int32]) float32 {
	return nn.Accuracy(logits, targets)
}
