package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flintml/flint/internal/autodiff"
	"github.com/flintml/flint/internal/backend/cpu"
	"github.com/flintml/flint/internal/tensor"
)

// TestDropout_TrainingMode verifies that dropout zeroes roughly p of the
// inputs and scales the survivors by 1/(1-p).
func TestDropout_TrainingMode(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := float32(0.5)

	dropout := NewDropout(p)
	require.True(t, dropout.Training(), "Dropout should start in training mode")

	n := 10000
	data := make([]float32, n)
	for i := range data {
		data[i] = 1.0
	}
	input, err := tensor.FromSlice(data, tensor.Shape{n}, backend)
	require.NoError(t, err)

	output := dropout.Forward(input)
	outputData := output.Data()

	scale := 1.0 / (1.0 - p)
	zeroed := 0
	for i, v := range outputData {
		switch v {
		case 0:
			zeroed++
		case scale:
			// survivor, correctly scaled
		default:
			t.Fatalf("output[%d] = %f, want 0 or %f", i, v, scale)
		}
	}

	// The dropped fraction concentrates tightly around p for n this large.
	fraction := float32(zeroed) / float32(n)
	assert.InDelta(t, p, fraction, 0.05, "dropped fraction should be close to p")
}

// TestDropout_ExpectedValue verifies inverted scaling keeps the mean
// activation approximately unchanged.
func TestDropout_ExpectedValue(t *testing.T) {
	backend := autodiff.New(cpu.New())

	n := 10000
	data := make([]float32, n)
	for i := range data {
		data[i] = 2.0
	}
	input, err := tensor.FromSlice(data, tensor.Shape{n}, backend)
	require.NoError(t, err)

	dropout := NewDropout(0.3)
	output := dropout.Forward(input)

	var sum float64
	for _, v := range output.Data() {
		sum += float64(v)
	}
	mean := sum / float64(n)

	assert.InDelta(t, 2.0, mean, 0.1, "mean activation should be preserved")
}

// TestDropout_EvalMode verifies dropout is the identity in evaluation mode.
func TestDropout_EvalMode(t *testing.T) {
	backend := autodiff.New(cpu.New())

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	dropout := NewDropout(0.5)
	dropout.SetTraining(false)

	output := dropout.Forward(input)
	assert.Equal(t, input.Data(), output.Data(), "eval mode should pass input through unchanged")
}

// TestDropout_ZeroProbability verifies p=0 is the identity even in training.
func TestDropout_ZeroProbability(t *testing.T) {
	backend := autodiff.New(cpu.New())

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	dropout := NewDropout(0)
	output := dropout.Forward(input)
	assert.Equal(t, input.Data(), output.Data())
}

// TestDropout_InvalidProbability verifies the constructor rejects p outside
// [0, 1).
func TestDropout_InvalidProbability(t *testing.T) {
	assert.Panics(t, func() { NewDropout(1.0) }, "p=1 would zero everything")
	assert.Panics(t, func() { NewDropout(1.5) })
	assert.Panics(t, func() { NewDropout(-0.1) })
	assert.NotPanics(t, func() { NewDropout(0) })
	assert.NotPanics(t, func() { NewDropout(0.99) })
}

// TestDropout_NoParameters verifies Dropout contributes nothing trainable.
func TestDropout_NoParameters(t *testing.T) {
	dropout := NewDropout(0.5)
	assert.Nil(t, dropout.Parameters())
	assert.Empty(t, dropout.StateDict())
}

// TestSequential_PropagatesTrainingMode verifies SetTraining reaches nested
// Dropout layers.
func TestSequential_PropagatesTrainingMode(t *testing.T) {
	backend := autodiff.New(cpu.New())

	dropout := NewDropout(0.5)
	model := NewSequential(
		NewLinear(4, 4, backend),
		NewReLU(),
		dropout,
	)

	SetTraining(model, false)
	assert.False(t, dropout.Training())

	SetTraining(model, true)
	assert.True(t, dropout.Training())
}

// TestDropout_GradientMasksMatch verifies the backward pass drops exactly
// the units dropped in the forward pass.
func TestDropout_GradientMasksMatch(t *testing.T) {
	base := cpu.New()
	backend := autodiff.New(base)

	n := 256
	data := make([]float32, n)
	for i := range data {
		data[i] = 1.0
	}
	input, err := tensor.FromSlice(data, tensor.Shape{n}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	dropout := NewDropout(0.5)
	output := dropout.Forward(input)

	// Seed the backward pass with ones at the dropout output.
	grads := autodiff.Backward(output, backend)
	backend.Tape().Clear()

	grad, ok := grads[input.Raw()]
	require.True(t, ok, "input should have a gradient")

	outputData := output.Data()
	gradData := grad.AsFloat32()
	for i := range outputData {
		if outputData[i] == 0 {
			assert.Zero(t, gradData[i], "dropped unit %d should get zero gradient", i)
		} else {
			assert.InDelta(t, 2.0, gradData[i], 1e-6, "surviving unit %d should get scaled gradient", i)
		}
	}
}
