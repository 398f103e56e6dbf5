package nn

import (
	"github.com/flintml/flint/internal/tensor"
)

// ReLUBackend is implemented by backends that support the ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends that support the Sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that support the Tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU is a rectified linear unit activation module: f(x) = max(0, x).
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU element-wise.
func (r *ReLU) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	backend, ok := input.Backend().(ReLUBackend)
	if !ok {
		panic("ReLU: backend does not implement the ReLU operation")
	}
	return tensor.New[float32](backend.ReLU(input.Raw()), input.Backend())
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (r *ReLU) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (r *ReLU) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}

// Sigmoid is a sigmoid activation module: σ(x) = 1 / (1 + exp(-x)).
// Squashes values to (0, 1).
type Sigmoid struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward applies Sigmoid element-wise.
func (s *Sigmoid) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	backend, ok := input.Backend().(SigmoidBackend)
	if !ok {
		panic("Sigmoid: backend does not implement the Sigmoid operation")
	}
	return tensor.New[float32](backend.Sigmoid(input.Raw()), input.Backend())
}

// Parameters returns nil (Sigmoid has no trainable parameters).
func (s *Sigmoid) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (s *Sigmoid) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (s *Sigmoid) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}

// Tanh is a hyperbolic tangent activation module. Squashes values to (-1, 1).
type Tanh struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies Tanh element-wise.
func (t *Tanh) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	backend, ok := input.Backend().(TanhBackend)
	if !ok {
		panic("Tanh: backend does not implement the Tanh operation")
	}
	return tensor.New[float32](backend.Tanh(input.Raw()), input.Backend())
}

// Parameters returns nil (Tanh has no trainable parameters).
func (t *Tanh) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (t *Tanh) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (t *Tanh) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
