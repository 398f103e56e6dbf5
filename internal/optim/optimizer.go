// Package optim implements optimization algorithms for training neural
// networks.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent, with optional momentum
//   - RMSProp: adaptive learning rates from a moving average of squared gradients
//   - Adam: adaptive moment estimation with bias correction
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
//	for epoch := range epochs {
//	    for _, batch := range batches {
//	        logits := model.Forward(batch.X)
//	        loss := criterion.Forward(logits, batch.Y)
//	        grads := autodiff.Backward(loss, backend)
//	        optimizer.Step(grads)
//	        optimizer.ZeroGrad()
//	    }
//	}
package optim

import (
	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers mutate model parameters in-place based on computed gradients to
// minimize the loss function during training.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes the gradient map produced by autodiff.Backward and updates
	// parameters in-place. Parameters absent from the map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients. Call before each backward
	// pass to prevent gradient accumulation across iterations.
	ZeroGrad()

	// GetLR returns the current learning rate, for monitoring and
	// scheduling.
	GetLR() float32
}

// getGradient retrieves the gradient recorded for a parameter's tensor.
// Returns nil when the parameter took no part in the forward pass.
func getGradient(param *nn.Parameter, grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if param == nil {
		return nil
	}
	grad, ok := grads[param.Tensor().Raw()]
	if !ok {
		return nil
	}
	return grad.AsFloat32()
}

// stateBuffer returns the optimizer state tensor for a parameter, allocating
// a zeroed buffer of the parameter's shape on first use.
func stateBuffer(state map[*nn.Parameter]*tensor.RawTensor, param *nn.Parameter) []float32 {
	buf, ok := state[param]
	if !ok {
		var err error
		buf, err = tensor.NewRaw(param.Tensor().Shape(), tensor.Float32, param.Tensor().Raw().Device())
		if err != nil {
			panic(err)
		}
		state[param] = buf
	}
	return buf.AsFloat32()
}
