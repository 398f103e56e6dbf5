package optim

import (
	"fmt"
	"math"

	"github.com/flintml/flint/internal/nn"
	"github.com/flintml/flint/internal/tensor"
)

// Adam implements the Adam optimizer.
//
// Adam combines momentum (first moment) with RMSProp-style adaptive scaling
// (second moment), and applies bias correction so early steps are not
// dominated by the zero-initialized moment estimates:
//
//	m = beta1 * m + (1-beta1) * gradient
//	v = beta2 * v + (1-beta2) * gradient²
//	mHat = m / (1 - beta1^t)
//	vHat = v / (1 - beta2^t)
//	param = param - lr * mHat / (sqrt(vHat) + eps)
//
// Reference: Kingma & Ba, "Adam: A Method for Stochastic Optimization" (2014).
type Adam struct {
	params []*nn.Parameter
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int

	m map[*nn.Parameter]*tensor.RawTensor // first moment (mean of gradients)
	v map[*nn.Parameter]*tensor.RawTensor // second moment (mean of squared gradients)
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32 // Learning rate (default: 0.001)
	Beta1 float32 // Decay rate for the first moment (default: 0.9)
	Beta2 float32 // Decay rate for the second moment (default: 0.999)
	Eps   float32 // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Beta1,
		beta2:  config.Beta2,
		eps:    config.Eps,
		m:      make(map[*nn.Parameter]*tensor.RawTensor),
		v:      make(map[*nn.Parameter]*tensor.RawTensor),
	}
}

// Step performs a single optimization step over all parameters.
// Parameters with no recorded gradient are skipped; the timestep still
// advances once per call.
func (a *Adam) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++

	biasCorrection1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Data()
		m := stateBuffer(a.m, param)
		v := stateBuffer(a.v, param)

		for i := range paramData {
			g := grad[i]
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g

			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2

			paramData[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate, for scheduling.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the number of steps taken so far.
func (a *Adam) GetTimestep() int {
	return a.t
}

// StateDict exports the moment estimates and timestep. Moments are keyed
// "m.{index}" and "v.{index}"; the timestep is stored as a single-element
// tensor under "t".
func (a *Adam) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			stateDict[fmt.Sprintf("m.%d", i)] = m
		}
		if v, ok := a.v[param]; ok {
			stateDict[fmt.Sprintf("v.%d", i)] = v
		}
	}

	t, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	if err == nil {
		t.AsFloat32()[0] = float32(a.t)
		stateDict["t"] = t
	}
	return stateDict
}

// LoadStateDict restores the moment estimates and timestep.
func (a *Adam) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	a.m = make(map[*nn.Parameter]*tensor.RawTensor)
	a.v = make(map[*nn.Parameter]*tensor.RawTensor)

	for i, param := range a.params {
		if raw, ok := stateDict[fmt.Sprintf("m.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("m shape mismatch for parameter %d: expected %v, got %v",
					i, param.Tensor().Shape(), raw.Shape())
			}
			a.m[param] = raw
		}
		if raw, ok := stateDict[fmt.Sprintf("v.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("v shape mismatch for parameter %d: expected %v, got %v",
					i, param.Tensor().Shape(), raw.Shape())
			}
			a.v[param] = raw
		}
	}

	if raw, ok := stateDict["t"]; ok {
		a.t = int(raw.AsFloat32()[0])
	}
	return nil
}
