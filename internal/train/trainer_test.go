package train_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flintml/flint/internal/autodiff"
	"github.com/flintml/flint/internal/backend/cpu"
	"github.com/flintml/flint/internal/datasets"
	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/optim"
	"github.com/flintml/flint/internal/serialization"
	"github.com/flintml/flint/internal/tensor"
	"github.com/flintml/flint/internal/train"
)

// blobs returns a small, well-separated classification dataset.
func blobs(samples int) *datasets.Dataset {
	return datasets.GaussianBlobs(datasets.BlobsConfig{
		NumSamples: samples,
		StdDev:     0.5,
		Seed:       7,
	})
}

func newBlobTrainer(model nn.Module, backend *autodiff.Backend, lr float32) *train.Trainer {
	criterion := nn.NewCrossEntropyLoss(backend)
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: lr})
	return train.NewTrainer(model, criterion, optimizer, backend)
}

func TestTrainer_LossDecreases(t *testing.T) {
	backend := autodiff.New(cpu.New())
	dataset := blobs(300)

	model := nn.NewLinear(dataset.NumFeatures, dataset.NumClasses, backend)
	trainer := newBlobTrainer(model, backend, 0.1)

	batches, err := dataset.Batches(32, false, nil, backend)
	require.NoError(t, err)

	first := trainer.TrainEpoch(batches)
	var last train.EpochResult
	for epoch := 0; epoch < 9; epoch++ {
		last = trainer.TrainEpoch(batches)
	}

	assert.Less(t, last.Loss, first.Loss, "training loss should decrease")
	assert.Greater(t, last.Accuracy, 0.5, "separated blobs should be mostly learnable")
	assert.Len(t, first.BatchLosses, len(batches))
}

func TestTrainer_TestEpochLeavesParametersUnchanged(t *testing.T) {
	backend := autodiff.New(cpu.New())
	dataset := blobs(100)

	model := nn.NewLinear(dataset.NumFeatures, dataset.NumClasses, backend)
	trainer := newBlobTrainer(model, backend, 0.1)

	before := make(map[string][]float32)
	for name, raw := range model.StateDict() {
		before[name] = append([]float32(nil), raw.AsFloat32()...)
	}

	batches, err := dataset.Batches(32, false, nil, backend)
	require.NoError(t, err)
	result := trainer.TestEpoch(batches)

	assert.Greater(t, result.Loss, 0.0)
	for name, raw := range model.StateDict() {
		assert.Equal(t, before[name], raw.AsFloat32(), "parameter %s changed during evaluation", name)
	}
}

func TestTrainer_SwitchesTrainingMode(t *testing.T) {
	backend := autodiff.New(cpu.New())
	dataset := blobs(60)

	dropout := nn.NewDropout(0.5)
	model := nn.NewSequential(
		nn.NewLinear(dataset.NumFeatures, 8, backend),
		nn.NewReLU(),
		dropout,
		nn.NewLinear(8, dataset.NumClasses, backend),
	)
	trainer := newBlobTrainer(model, backend, 0.1)

	batches, err := dataset.Batches(20, false, nil, backend)
	require.NoError(t, err)

	trainer.TrainEpoch(batches)
	assert.True(t, dropout.Training(), "TrainEpoch should enable training mode")

	trainer.TestEpoch(batches)
	assert.False(t, dropout.Training(), "TestEpoch should disable training mode")
}

func TestTrainer_TestBatchUsesEvalMode(t *testing.T) {
	backend := autodiff.New(cpu.New())
	dataset := blobs(60)

	dropout := nn.NewDropout(0.5)
	model := nn.NewSequential(
		nn.NewLinear(dataset.NumFeatures, 16, backend),
		nn.NewReLU(),
		dropout,
		nn.NewLinear(16, dataset.NumClasses, backend),
	)
	trainer := newBlobTrainer(model, backend, 0.1)

	batches, err := dataset.Batches(20, false, nil, backend)
	require.NoError(t, err)

	// A train step leaves the model in training mode; a bare TestBatch must
	// still evaluate with dropout off.
	trainer.TrainBatch(batches[0])
	require.True(t, dropout.Training())

	first := trainer.TestBatch(batches[0])
	assert.False(t, dropout.Training(), "TestBatch should switch to evaluation mode")

	second := trainer.TestBatch(batches[0])
	assert.Equal(t, first.Loss, second.Loss, "evaluation on the same batch must be deterministic")
	assert.Equal(t, first.NumCorrect, second.NumCorrect)
}

func TestFit_ReturnsLearningCurves(t *testing.T) {
	backend := autodiff.New(cpu.New())
	trainSet, valSet := blobs(200).Split(0.2)

	model := nn.NewLinear(trainSet.NumFeatures, trainSet.NumClasses, backend)
	trainer := newBlobTrainer(model, backend, 0.1)

	result, err := trainer.Fit(trainSet, valSet, 3,
		train.WithBatchSize(16),
		train.WithSeed(42),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, result.EpochsRun)
	assert.Len(t, result.TrainLosses, 3)
	assert.Len(t, result.TrainAccuracies, 3)
	assert.Len(t, result.ValLosses, 3)
	assert.Len(t, result.ValAccuracies, 3)
	assert.False(t, result.StoppedEarly)
	assert.GreaterOrEqual(t, result.BestEpoch, 0)
	assert.Less(t, result.TrainLosses[2], result.TrainLosses[0])
}

func TestFit_EarlyStopping(t *testing.T) {
	backend := autodiff.New(cpu.New())
	trainSet, valSet := blobs(100).Split(0.2)

	model := nn.NewLinear(trainSet.NumFeatures, trainSet.NumClasses, backend)
	trainer := newBlobTrainer(model, backend, 0.1)

	// A minDelta no run can beat: the first epoch sets the best loss, every
	// later epoch counts as no improvement.
	result, err := trainer.Fit(trainSet, valSet, 20,
		train.WithEarlyStopping(2, 1e9),
	)
	require.NoError(t, err)

	assert.True(t, result.StoppedEarly)
	assert.Equal(t, 3, result.EpochsRun)
	assert.Equal(t, 0, result.BestEpoch)
}

func TestFit_SavesCheckpoint(t *testing.T) {
	backend := autodiff.New(cpu.New())
	trainSet, valSet := blobs(100).Split(0.2)

	model := nn.NewLinear(trainSet.NumFeatures, trainSet.NumClasses, backend)
	trainer := newBlobTrainer(model, backend, 0.1)

	// A single epoch always improves on "no best yet", so the checkpoint
	// holds exactly the final weights.
	path := filepath.Join(t.TempDir(), "best.flint")
	_, err := trainer.Fit(trainSet, valSet, 1,
		train.WithCheckpointPath(path),
	)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "checkpoint file should exist")

	modelState, optimizerState, meta, err := serialization.LoadCheckpoint(path, tensor.CPU)
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "SGD", meta.OptimizerType)
	assert.Contains(t, modelState, "weight")
	assert.Contains(t, modelState, "bias")
	assert.Empty(t, optimizerState, "plain SGD keeps no state")

	// A fresh model must be able to restore the saved weights.
	restored := nn.NewLinear(trainSet.NumFeatures, trainSet.NumClasses, backend)
	require.NoError(t, restored.LoadStateDict(modelState))
	assert.Equal(t, model.StateDict()["weight"].AsFloat32(), restored.StateDict()["weight"].AsFloat32())
}

func TestFit_RejectsNonPositiveEpochs(t *testing.T) {
	backend := autodiff.New(cpu.New())
	trainSet, valSet := blobs(40).Split(0.25)

	model := nn.NewLinear(trainSet.NumFeatures, trainSet.NumClasses, backend)
	trainer := newBlobTrainer(model, backend, 0.1)

	_, err := trainer.Fit(trainSet, valSet, 0)
	assert.Error(t, err)
}
