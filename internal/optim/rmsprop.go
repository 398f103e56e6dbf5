package optim

import (
	"fmt"
	"math"

	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/tensor"
)

// RMSProp implements the RMSProp optimizer.
//
// RMSProp keeps an exponential moving average of squared gradients and
// divides the learning rate by its square root, giving each parameter its
// own effective step size:
//
//	sq = alpha * sq + (1-alpha) * gradient²
//	param = param - lr * gradient / (sqrt(sq) + eps)
//
// This keeps updates well-scaled when gradient magnitudes vary widely across
// parameters or over time.
//
// Reference: Tieleman & Hinton, "Lecture 6.5 - rmsprop" (COURSERA, 2012).
type RMSProp struct {
	params     []*nn.Parameter
	lr         float32
	alpha      float32
	eps        float32
	squareAvgs map[*nn.Parameter]*tensor.RawTensor
}

// RMSPropConfig holds configuration for the RMSProp optimizer.
type RMSPropConfig struct {
	LR    float32 // Learning rate (default: 0.01)
	Alpha float32 // Smoothing constant for the squared-gradient average (default: 0.99)
	Eps   float32 // Term for numerical stability (default: 1e-8)
}

// NewRMSProp creates a new RMSProp optimizer.
func NewRMSProp(params []*nn.Parameter, config RMSPropConfig) *RMSProp {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Alpha == 0 {
		config.Alpha = 0.99
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &RMSProp{
		params:     params,
		lr:         config.LR,
		alpha:      config.Alpha,
		eps:        config.Eps,
		squareAvgs: make(map[*nn.Parameter]*tensor.RawTensor),
	}
}

// Step performs a single optimization step over all parameters.
// Parameters with no recorded gradient are skipped.
func (r *RMSProp) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range r.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Data()
		sq := stateBuffer(r.squareAvgs, param)
		for i := range paramData {
			g := grad[i]
			sq[i] = r.alpha*sq[i] + (1-r.alpha)*g*g
			paramData[i] -= r.lr * g / (float32(math.Sqrt(float64(sq[i]))) + r.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (r *RMSProp) ZeroGrad() {
	for _, param := range r.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (r *RMSProp) GetLR() float32 {
	return r.lr
}

// SetLR updates the learning rate, for scheduling.
func (r *RMSProp) SetLR(lr float32) {
	r.lr = lr
}

// StateDict exports the squared-gradient averages, keyed "square_avg.{index}".
func (r *RMSProp) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, param := range r.params {
		if sq, ok := r.squareAvgs[param]; ok {
			stateDict[fmt.Sprintf("square_avg.%d", i)] = sq
		}
	}
	return stateDict
}

// LoadStateDict restores the squared-gradient averages. Missing entries stay
// zero-initialized; shape mismatches are an error.
func (r *RMSProp) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	r.squareAvgs = make(map[*nn.Parameter]*tensor.RawTensor)
	for i, param := range r.params {
		raw, ok := stateDict[fmt.Sprintf("square_avg.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("square_avg shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), raw.Shape())
		}
		r.squareAvgs[param] = raw
	}
	return nil
}
