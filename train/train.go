// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the high-level training loop.
//
// A Trainer combines a model, a loss criterion and an optimizer, and exposes
// training at three levels: single batches (TrainBatch/TestBatch), full
// passes over the data (TrainEpoch/TestEpoch) and a complete run with early
// stopping and checkpointing (Fit).
//
// Example:
//
//	trainer := train.NewTrainer(model, criterion, optimizer, backend)
//	result, err := trainer.Fit(trainSet, valSet, 20,
//	    train.WithBatchSize(64),
//	    train.WithEarlyStopping(3, 0.001),
//	    train.WithCheckpointPath("best.flint"),
//	)
package train

import (
	"github.com/flintml/flint/internal/autodiff"
	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/optim"
	"github.com/flintml/flint/internal/train"
)

// Trainer drives optimization of a model against a criterion.
type Trainer = train.Trainer

// Criterion computes a scalar loss from logits and integer class targets.
type Criterion = train.Criterion

// BatchResult holds metrics for a single batch.
type BatchResult = train.BatchResult

// EpochResult holds aggregate metrics for one pass over a set of batches.
type EpochResult = train.EpochResult

// FitResult holds the learning curves and outcome of a Fit run.
type FitResult = train.FitResult

// FitOption configures the Fit training driver.
type FitOption = train.FitOption

// NewTrainer creates a Trainer. The backend must be the autodiff backend the
// model was built on.
func NewTrainer(model nn.Module, criterion Criterion, optimizer optim.Optimizer, backend *autodiff.Backend) *Trainer {
	return train.NewTrainer(model, criterion, optimizer, backend)
}

// Fit options.
var (
	WithBatchSize      = train.WithBatchSize
	WithValBatchSize   = train.WithValBatchSize
	WithShuffle        = train.WithShuffle
	WithSeed           = train.WithSeed
	WithEarlyStopping  = train.WithEarlyStopping
	WithCheckpointPath = train.WithCheckpointPath
	WithLogger         = train.WithLogger
)
