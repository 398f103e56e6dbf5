// Package train provides a reusable training loop for classifiers: batch
// and epoch level steps plus a Fit driver with early stopping and
// checkpointing.
package train

import (
	"gonum.org/v1/gonum/stat"

	"github.com/flintml/flint/internal/autodiff"
	"github.com/flintml/flint/internal/datasets"
	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/optim"
	"github.com/flintml/flint/internal/tensor"
)

// Criterion computes a scalar loss from logits and integer class targets.
// nn.CrossEntropyLoss satisfies this.
type Criterion interface {
	Forward(logits *tensor.Tensor[float32], targets *tensor.Tensor[int32]) *tensor.Tensor[float32]
}

// Trainer drives optimization of a model against a criterion.
//
// The backend must be the same autodiff backend the model was built on, so
// that forward passes record onto its gradient tape.
type Trainer struct {
	model     nn.Module
	criterion Criterion
	optimizer optim.Optimizer
	backend   *autodiff.Backend
}

// NewTrainer creates a Trainer.
func NewTrainer(model nn.Module, criterion Criterion, optimizer optim.Optimizer, backend *autodiff.Backend) *Trainer {
	return &Trainer{
		model:     model,
		criterion: criterion,
		optimizer: optimizer,
		backend:   backend,
	}
}

// Model returns the model being trained.
func (t *Trainer) Model() nn.Module {
	return t.model
}

// Optimizer returns the optimizer in use.
func (t *Trainer) Optimizer() optim.Optimizer {
	return t.optimizer
}

// BatchResult holds metrics for a single batch.
type BatchResult struct {
	Loss       float32
	NumCorrect int
	Size       int
}

// EpochResult holds aggregate metrics for one pass over a set of batches.
type EpochResult struct {
	Loss        float64   // Mean of per-batch losses
	Accuracy    float64   // Fraction of correctly classified samples
	BatchLosses []float64 // Per-batch losses, in iteration order
}

// TrainBatch runs a single optimization step: forward pass, loss, backward
// pass and parameter update. The model is put in training mode.
func (t *Trainer) TrainBatch(batch *datasets.Batch) BatchResult {
	nn.SetTraining(t.model, true)

	tape := t.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer tape.StopRecording()

	t.optimizer.ZeroGrad()

	logits := t.model.Forward(batch.Images)
	loss := t.criterion.Forward(logits, batch.Labels)
	lossValue := loss.Raw().AsFloat32()[0]

	grads := autodiff.Backward(loss, t.backend)
	t.optimizer.Step(grads)

	tape.Clear()

	return BatchResult{
		Loss:       lossValue,
		NumCorrect: nn.NumCorrect(logits, batch.Labels),
		Size:       batch.Size,
	}
}

// TestBatch evaluates the model on a single batch without touching
// parameters or the gradient tape. The model is put in evaluation mode, so
// layers like Dropout become identity and repeated calls on the same batch
// return the same loss.
func (t *Trainer) TestBatch(batch *datasets.Batch) BatchResult {
	nn.SetTraining(t.model, false)

	tape := t.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	logits := t.model.Forward(batch.Images)
	loss := t.criterion.Forward(logits, batch.Labels)

	return BatchResult{
		Loss:       loss.Raw().AsFloat32()[0],
		NumCorrect: nn.NumCorrect(logits, batch.Labels),
		Size:       batch.Size,
	}
}

// TrainEpoch runs one training pass over the batches.
//
// The model is put in training mode first, so layers like Dropout are
// active.
func (t *Trainer) TrainEpoch(batches []*datasets.Batch) EpochResult {
	nn.SetTraining(t.model, true)

	return t.runEpoch(batches, t.TrainBatch)
}

// TestEpoch runs one evaluation pass over the batches.
//
// The model is put in evaluation mode first, so layers like Dropout become
// identity.
func (t *Trainer) TestEpoch(batches []*datasets.Batch) EpochResult {
	nn.SetTraining(t.model, false)

	return t.runEpoch(batches, t.TestBatch)
}

func (t *Trainer) runEpoch(batches []*datasets.Batch, step func(*datasets.Batch) BatchResult) EpochResult {
	batchLosses := make([]float64, 0, len(batches))
	totalCorrect := 0
	totalSamples := 0

	for _, batch := range batches {
		result := step(batch)
		batchLosses = append(batchLosses, float64(result.Loss))
		totalCorrect += result.NumCorrect
		totalSamples += result.Size
	}

	accuracy := 0.0
	if totalSamples > 0 {
		accuracy = float64(totalCorrect) / float64(totalSamples)
	}

	return EpochResult{
		Loss:        stat.Mean(batchLosses, nil),
		Accuracy:    accuracy,
		BatchLosses: batchLosses,
	}
}
