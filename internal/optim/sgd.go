package optim

import (
	"fmt"

	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// weight decay.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// With WeightDecay > 0, decay*param is added to the gradient before either
// update. Momentum accelerates descent along consistent directions and
// dampens oscillations.
type SGD struct {
	params      []*nn.Parameter
	lr          float32
	momentum    float32
	weightDecay float32
	velocities  map[*nn.Parameter]*tensor.RawTensor
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Momentum    float32 // Momentum factor (default: 0.0, range [0, 1))
	WeightDecay float32 // L2 penalty coefficient (default: 0.0)
}

// NewSGD creates a new SGD optimizer. With Momentum left zero this is plain
// (vanilla) gradient descent.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		velocities:  make(map[*nn.Parameter]*tensor.RawTensor),
	}
}

// Step performs a single optimization step over all parameters.
// Parameters with no recorded gradient are skipped.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		paramData := param.Tensor().Data()

		if s.momentum == 0 {
			for i := range paramData {
				g := grad[i]
				if s.weightDecay != 0 {
					g += s.weightDecay * paramData[i]
				}
				paramData[i] -= s.lr * g
			}
			continue
		}

		velocity := stateBuffer(s.velocities, param)
		for i := range paramData {
			g := grad[i]
			if s.weightDecay != 0 {
				g += s.weightDecay * paramData[i]
			}
			velocity[i] = s.momentum*velocity[i] + g
			paramData[i] -= s.lr * velocity[i]
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate, for scheduling.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// StateDict exports momentum velocity buffers, keyed "velocity.{index}".
// Without momentum the state is empty.
func (s *SGD) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}

	for i, param := range s.params {
		if velocity, ok := s.velocities[param]; ok {
			stateDict[fmt.Sprintf("velocity.%d", i)] = velocity
		}
	}
	return stateDict
}

// LoadStateDict restores momentum velocity buffers. Missing entries stay
// zero-initialized; shape mismatches are an error.
func (s *SGD) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}

	s.velocities = make(map[*nn.Parameter]*tensor.RawTensor)
	for i, param := range s.params {
		raw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), raw.Shape())
		}
		s.velocities[param] = raw
	}
	return nil
}
