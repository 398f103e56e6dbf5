// Package nn implements neural network modules for the Flint library.
//
// This package provides building blocks for constructing networks:
//   - Module interface: base interface for all NN components
//   - Parameter: trainable parameters with gradient slots
//   - Linear: fully connected layer
//   - Activations: ReLU, Sigmoid, Tanh
//   - Dropout: inverted dropout regularization
//   - Loss functions: CrossEntropyLoss, MSELoss
//   - Sequential: container for stacking layers
package nn

import (
	"github.com/flintml/flint/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules compose into architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU(),
//	    nn.NewDropout(0.4),
//	    nn.NewLinear(128, 10, backend),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return nil.
	Parameters() []*Parameter

	// StateDict returns a map of parameter names to raw tensors for
	// serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Trainable is implemented by modules whose forward pass differs between
// training and evaluation (Dropout). Containers propagate the mode to their
// children.
type Trainable interface {
	SetTraining(training bool)
}

// SetTraining switches a module between training and evaluation mode if it
// supports the distinction; other modules are left untouched.
func SetTraining(m Module, training bool) {
	if t, ok := m.(Trainable); ok {
		t.SetTraining(training)
	}
}
