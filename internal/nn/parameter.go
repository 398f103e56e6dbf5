package nn

import (
	"github.com/flintml/flint/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors that require gradient computation during training,
// typically the weights and biases of layers.
type Parameter struct {
	name   string
	tensor *tensor.Tensor[float32]
	grad   *tensor.Tensor[float32]
}

// NewParameter creates a new trainable parameter from an initialized tensor.
// The gradient slot stays nil until the optimizer or a backward pass sets it.
func NewParameter(name string, t *tensor.Tensor[float32]) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name (e.g. "weight", "bias").
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor[float32] {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before any backward pass.
func (p *Parameter) Grad() *tensor.Tensor[float32] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor[float32]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor. Called before each training iteration
// to avoid accumulating gradients from previous iterations.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
