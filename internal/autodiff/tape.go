package autodiff

import (
	"github.com/flintml/flint/internal/tensor"
)

// Operation is a single differentiable step recorded on the tape.
//
// Backward receives the gradient of the loss with respect to the operation's
// output and returns gradients with respect to each input, aligned with
// Inputs(). A nil entry means no gradient flows to that input.
type Operation interface {
	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
	Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation.
type GradientTape struct {
	operations []Operation
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape if recording is enabled.
func (t *GradientTape) Record(op Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Len returns the number of recorded operations.
func (t *GradientTape) Len() int {
	return len(t.operations)
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// Backward computes gradients for all tensors reachable from output by
// walking the tape in reverse, applying each operation's chain rule and
// accumulating gradients where a tensor feeds multiple operations.
//
// outputGrad seeds the gradient of output (typically ones for a scalar
// loss). Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Gradient computations must not themselves land on the tape.
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads[output] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue // no gradient flows through this operation
		}

		inputGrads := op.Backward(outGrad, backend)
		inputs := op.Inputs()
		for j, inGrad := range inputGrads {
			if inGrad == nil {
				continue
			}
			if existing, ok := grads[inputs[j]]; ok {
				grads[inputs[j]] = backend.Add(existing, inGrad)
			} else {
				grads[inputs[j]] = inGrad
			}
		}
	}

	return grads
}
