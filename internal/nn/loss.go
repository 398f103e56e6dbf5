package nn

import (
	"github.com/flintml/flint/internal/tensor"
)

// MSEBackend is implemented by backends providing fused mean squared error
// with gradient tracking.
type MSEBackend interface {
	MSE(pred, target *tensor.RawTensor) *tensor.RawTensor
}

// MSELoss computes mean squared error: mean((predictions - targets)²).
// Commonly used for regression tasks.
type MSELoss struct {
	backend tensor.Backend
}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss(backend tensor.Backend) *MSELoss {
	return &MSELoss{backend: backend}
}

// Forward computes the MSE loss as a scalar (shape [1]) tensor.
//
// With an autodiff-aware backend the fused operation is recorded on the tape.
func (m *MSELoss) Forward(predictions, targets *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	if backend, ok := m.backend.(MSEBackend); ok {
		return tensor.New[float32](backend.MSE(predictions.Raw(), targets.Raw()), m.backend)
	}

	// Fallback for non-autodiff backends.
	pred, tgt := predictions.Data(), targets.Data()
	var total float64
	for i := range pred {
		d := float64(pred[i] - tgt[i])
		total += d * d
	}

	loss := tensor.Zeros[float32](tensor.Shape{1}, m.backend)
	loss.Data()[0] = float32(total / float64(len(pred)))
	return loss
}
