// Package autodiff implements automatic differentiation using the decorator
// pattern.
//
// Backend wraps any tensor.Backend implementation and adds gradient tracking
// through a GradientTape: each differentiable forward operation is recorded,
// and walking the tape in reverse yields gradients for every tensor in the
// graph.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	logits := model.Forward(x)
//	loss := criterion.Forward(logits, y)
//
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
package autodiff

import (
	"fmt"
	"math/rand"

	"github.com/flintml/flint/internal/tensor"
)

// Gradients maps tensors to their accumulated loss gradients.
type Gradients = map[*tensor.RawTensor]*tensor.RawTensor

// Backend wraps a compute backend and records differentiable operations on a
// gradient tape. It implements tensor.Backend plus the capability interfaces
// the nn package dispatches on (activations, dropout, fused losses).
type Backend struct {
	inner tensor.Backend
	tape  *GradientTape
}

// New creates an autodiff backend wrapping the given compute backend.
func New(inner tensor.Backend) *Backend {
	return &Backend{
		inner: inner,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control (recording, clearing).
func (b *Backend) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend) Inner() tensor.Backend {
	return b.inner
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Add(x, y)
	b.tape.Record(&addOp{a: x, b: y, out: out})
	return out
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sub(x, y)
	b.tape.Record(&subOp{a: x, b: y, out: out})
	return out
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Mul(x, y)
	b.tape.Record(&mulOp{a: x, b: y, out: out})
	return out
}

// Div performs element-wise division and records the operation.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Div(x, y)
	b.tape.Record(&divOp{a: x, b: y, out: out})
	return out
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.MatMul(x, y)
	b.tape.Record(&matmulOp{a: x, b: y, out: out})
	return out
}

// AddScalar adds a scalar element-wise and records the operation.
func (b *Backend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	out := b.inner.AddScalar(x, s)
	b.tape.Record(&addScalarOp{x: x, out: out})
	return out
}

// MulScalar multiplies by a scalar element-wise and records the operation.
func (b *Backend) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	out := b.inner.MulScalar(x, s)
	b.tape.Record(&mulScalarOp{x: x, out: out, s: s})
	return out
}

// Exp is forward-only: it is not part of the training graph Flint records.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Exp(x)
}

// Log is forward-only.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Log(x)
}

// Sqrt is forward-only.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sqrt(x)
}

// Softmax is forward-only; use the fused CrossEntropy for training.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Softmax(x, dim)
}

// Reshape records a shape change so gradients flow back to the original view.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Reshape(x, shape)
	b.tape.Record(&reshapeOp{x: x, out: out})
	return out
}

// Transpose permutes axes and records the operation.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := b.inner.Transpose(x, axes...)
	b.tape.Record(&transposeOp{x: x, out: out, axes: axes})
	return out
}

// Sum is forward-only.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sum(x)
}

// SumDim is forward-only.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.SumDim(x, dim, keepDim)
}

// MeanDim is forward-only.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.MeanDim(x, dim, keepDim)
}

// Argmax is forward-only.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Cast is forward-only.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.inner.Cast(x, dtype)
}

// ReLU applies the activation via the inner backend and records the operation.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	inner, ok := b.inner.(interface {
		ReLU(*tensor.RawTensor) *tensor.RawTensor
	})
	if !ok {
		panic(fmt.Sprintf("autodiff: inner backend %s does not implement ReLU", b.inner.Name()))
	}
	out := inner.ReLU(x)
	b.tape.Record(&reluOp{x: x, out: out})
	return out
}

// Sigmoid applies the activation via the inner backend and records the operation.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	inner, ok := b.inner.(interface {
		Sigmoid(*tensor.RawTensor) *tensor.RawTensor
	})
	if !ok {
		panic(fmt.Sprintf("autodiff: inner backend %s does not implement Sigmoid", b.inner.Name()))
	}
	out := inner.Sigmoid(x)
	b.tape.Record(&sigmoidOp{x: x, out: out})
	return out
}

// Tanh applies the activation via the inner backend and records the operation.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	inner, ok := b.inner.(interface {
		Tanh(*tensor.RawTensor) *tensor.RawTensor
	})
	if !ok {
		panic(fmt.Sprintf("autodiff: inner backend %s does not implement Tanh", b.inner.Name()))
	}
	out := inner.Tanh(x)
	b.tape.Record(&tanhOp{x: x, out: out})
	return out
}

// Dropout applies inverted dropout and records the mask so the backward pass
// drops exactly the same activations. With training=false or p=0 the input
// passes through untouched and nothing is recorded.
func (b *Backend) Dropout(x *tensor.RawTensor, p float32, training bool) *tensor.RawTensor {
	if !training || p == 0 {
		return x
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("autodiff: dropout not supported for dtype %s", x.DType()))
	}

	n := x.NumElements()
	mask := make([]float32, n)
	scale := 1 / (1 - p)
	for i := range mask {
		if rand.Float32() >= p {
			mask[i] = scale
		}
	}

	out := newFloat32(x.Shape())
	src, dst := x.AsFloat32(), out.AsFloat32()
	for i := range dst {
		dst[i] = src[i] * mask[i]
	}

	b.tape.Record(&dropoutOp{x: x, out: out, mask: mask})
	return out
}

// CrossEntropy computes mean cross-entropy loss from logits [batch, classes]
// and int32 class indices [batch], and records the fused operation.
func (b *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("autodiff: cross entropy logits must be 2D, got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	targetData := targets.AsInt32()
	if len(targetData) != batch {
		panic(fmt.Sprintf("autodiff: cross entropy targets must have %d entries, got %d", batch, len(targetData)))
	}

	logitData := logits.AsFloat32()
	var total float32
	for i := 0; i < batch; i++ {
		target := int(targetData[i])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("autodiff: cross entropy target %d out of range [0, %d)", target, classes))
		}
		logProbs := logSoftmax(logitData[i*classes : (i+1)*classes])
		total -= logProbs[target]
	}

	out := newFloat32(tensor.Shape{1})
	out.AsFloat32()[0] = total / float32(batch)

	b.tape.Record(&crossEntropyOp{logits: logits, targets: targets, out: out})
	return out
}

// MSE computes mean squared error and records the fused operation.
// Targets are treated as constants.
func (b *Backend) MSE(pred, target *tensor.RawTensor) *tensor.RawTensor {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("autodiff: mse shapes do not match: %v vs %v", pred.Shape(), target.Shape()))
	}

	predData, targetData := pred.AsFloat32(), target.AsFloat32()
	var total float64
	for i := range predData {
		d := float64(predData[i] - targetData[i])
		total += d * d
	}

	out := newFloat32(tensor.Shape{1})
	out.AsFloat32()[0] = float32(total / float64(len(predData)))

	b.tape.Record(&mseOp{pred: pred, target: target, out: out})
	return out
}

// Backward seeds the gradient of a scalar loss with 1 and walks the tape,
// returning gradients for every tensor in the recorded graph.
func Backward(loss *tensor.Tensor[float32], b *Backend) Gradients {
	seed := newFloat32(loss.Shape())
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return b.tape.Backward(loss.Raw(), seed, b)
}

// Compile-time check.
var _ tensor.Backend = (*Backend)(nil)
