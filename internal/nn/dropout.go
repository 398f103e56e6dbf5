package nn

import (
	"fmt"

	"github.com/flintml/flint/internal/tensor"
)

// DropoutBackend is implemented by backends that support dropout with
// gradient tracking through the sampled mask.
type DropoutBackend interface {
	Dropout(x *tensor.RawTensor, p float32, training bool) *tensor.RawTensor
}

// Dropout randomly zeroes activations during training with probability p and
// scales the survivors by 1/(1-p), so the expected activation magnitude is
// unchanged (inverted dropout). In evaluation mode the layer is the identity.
//
// The layer starts in training mode; Sequential and the trainer switch modes
// via SetTraining.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU(),
//	    nn.NewDropout(0.4),
//	    nn.NewLinear(128, 10, backend),
//	)
type Dropout struct {
	p        float32
	training bool
}

// NewDropout creates a Dropout layer dropping activations with probability p.
// Panics unless 0 <= p < 1.
func NewDropout(p float32) *Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout{p: p, training: true}
}

// Forward applies dropout in training mode and is the identity in evaluation
// mode or when p is 0.
func (d *Dropout) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	if !d.training || d.p == 0 {
		return input
	}

	backend, ok := input.Backend().(DropoutBackend)
	if !ok {
		panic("Dropout: backend does not implement the Dropout operation")
	}
	return tensor.New[float32](backend.Dropout(input.Raw(), d.p, d.training), input.Backend())
}

// SetTraining switches between training and evaluation behavior.
func (d *Dropout) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the layer is in training mode.
func (d *Dropout) Training() bool {
	return d.training
}

// P returns the drop probability.
func (d *Dropout) P() float32 {
	return d.p
}

// Parameters returns nil (Dropout has no trainable parameters).
func (d *Dropout) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (d *Dropout) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (d *Dropout) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
