package autodiff

import (
	"math"

	"github.com/flintml/flint/internal/tensor"
)

// reduceGrad sums a gradient back down to the shape of a broadcasted operand.
func reduceGrad(grad *tensor.RawTensor, shape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(shape) {
		return grad
	}

	// Collapse leading dimensions the operand never had.
	for len(grad.Shape()) > len(shape) {
		grad = backend.SumDim(grad, 0, false)
	}

	// Sum over dimensions that were broadcast from size 1.
	for d := range shape {
		if shape[d] == 1 && grad.Shape()[d] != 1 {
			grad = backend.SumDim(grad, d, true)
		}
	}
	return grad
}

// newFloat32 allocates a float32 result for direct-math backward rules.
func newFloat32(shape tensor.Shape) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(err)
	}
	return raw
}

// addOp: out = a + b.
type addOp struct{ a, b, out *tensor.RawTensor }

func (op *addOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *addOp) Output() *tensor.RawTensor   { return op.out }

func (op *addOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceGrad(grad, op.a.Shape(), backend),
		reduceGrad(grad, op.b.Shape(), backend),
	}
}

// subOp: out = a - b.
type subOp struct{ a, b, out *tensor.RawTensor }

func (op *subOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *subOp) Output() *tensor.RawTensor   { return op.out }

func (op *subOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceGrad(grad, op.a.Shape(), backend),
		reduceGrad(backend.MulScalar(grad, -1), op.b.Shape(), backend),
	}
}

// mulOp: out = a * b.
type mulOp struct{ a, b, out *tensor.RawTensor }

func (op *mulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *mulOp) Output() *tensor.RawTensor   { return op.out }

func (op *mulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceGrad(backend.Mul(grad, op.b), op.a.Shape(), backend),
		reduceGrad(backend.Mul(grad, op.a), op.b.Shape(), backend),
	}
}

// divOp: out = a / b.
type divOp struct{ a, b, out *tensor.RawTensor }

func (op *divOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *divOp) Output() *tensor.RawTensor   { return op.out }

func (op *divOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// d/da = g / b
	da := backend.Div(grad, op.b)
	// d/db = -g * a / b²
	db := backend.MulScalar(backend.Div(backend.Mul(grad, op.a), backend.Mul(op.b, op.b)), -1)
	return []*tensor.RawTensor{
		reduceGrad(da, op.a.Shape(), backend),
		reduceGrad(db, op.b.Shape(), backend),
	}
}

// matmulOp: out = a @ b.
type matmulOp struct{ a, b, out *tensor.RawTensor }

func (op *matmulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *matmulOp) Output() *tensor.RawTensor   { return op.out }

func (op *matmulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// dA = g @ Bᵀ, dB = Aᵀ @ g
	return []*tensor.RawTensor{
		backend.MatMul(grad, backend.Transpose(op.b)),
		backend.MatMul(backend.Transpose(op.a), grad),
	}
}

// mulScalarOp: out = x * s.
type mulScalarOp struct {
	x, out *tensor.RawTensor
	s      float64
}

func (op *mulScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *mulScalarOp) Output() *tensor.RawTensor   { return op.out }

func (op *mulScalarOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(grad, op.s)}
}

// addScalarOp: out = x + s.
type addScalarOp struct {
	x, out *tensor.RawTensor
}

func (op *addScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *addScalarOp) Output() *tensor.RawTensor   { return op.out }

func (op *addScalarOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{grad}
}

// reshapeOp: out = reshape(x).
type reshapeOp struct{ x, out *tensor.RawTensor }

func (op *reshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *reshapeOp) Output() *tensor.RawTensor   { return op.out }

func (op *reshapeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(grad, op.x.Shape())}
}

// transposeOp: out = transpose(x, axes).
type transposeOp struct {
	x, out *tensor.RawTensor
	axes   []int
}

func (op *transposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *transposeOp) Output() *tensor.RawTensor   { return op.out }

func (op *transposeOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(op.axes) == 0 {
		// Plain 2D transpose is its own inverse.
		return []*tensor.RawTensor{backend.Transpose(grad)}
	}
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(grad, inverse...)}
}

// reluOp: out = max(0, x).
type reluOp struct{ x, out *tensor.RawTensor }

func (op *reluOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *reluOp) Output() *tensor.RawTensor   { return op.out }

func (op *reluOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	dx := newFloat32(op.x.Shape())
	in, g, out := op.x.AsFloat32(), grad.AsFloat32(), dx.AsFloat32()
	for i := range out {
		if in[i] > 0 {
			out[i] = g[i]
		}
	}
	return []*tensor.RawTensor{dx}
}

// sigmoidOp: out = σ(x). Backward uses the saved output: σ' = y(1-y).
type sigmoidOp struct{ x, out *tensor.RawTensor }

func (op *sigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *sigmoidOp) Output() *tensor.RawTensor   { return op.out }

func (op *sigmoidOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	dx := newFloat32(op.x.Shape())
	y, g, out := op.out.AsFloat32(), grad.AsFloat32(), dx.AsFloat32()
	for i := range out {
		out[i] = g[i] * y[i] * (1 - y[i])
	}
	return []*tensor.RawTensor{dx}
}

// tanhOp: out = tanh(x). Backward uses the saved output: tanh' = 1 - y².
type tanhOp struct{ x, out *tensor.RawTensor }

func (op *tanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *tanhOp) Output() *tensor.RawTensor   { return op.out }

func (op *tanhOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	dx := newFloat32(op.x.Shape())
	y, g, out := op.out.AsFloat32(), grad.AsFloat32(), dx.AsFloat32()
	for i := range out {
		out[i] = g[i] * (1 - y[i]*y[i])
	}
	return []*tensor.RawTensor{dx}
}

// dropoutOp: out = x * mask, where mask holds 0 or 1/(1-p).
type dropoutOp struct {
	x, out *tensor.RawTensor
	mask   []float32
}

func (op *dropoutOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *dropoutOp) Output() *tensor.RawTensor   { return op.out }

func (op *dropoutOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	dx := newFloat32(op.x.Shape())
	g, out := grad.AsFloat32(), dx.AsFloat32()
	for i := range out {
		out[i] = g[i] * op.mask[i]
	}
	return []*tensor.RawTensor{dx}
}

// crossEntropyOp: out = mean over batch of -log softmax(logits)[target].
// Softmax and the negative log-likelihood are fused so the backward rule is
// the classic (softmax - onehot) / batch.
type crossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor // int32 class indices [batch]
	out     *tensor.RawTensor
}

func (op *crossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }
func (op *crossEntropyOp) Output() *tensor.RawTensor   { return op.out }

func (op *crossEntropyOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]
	upstream := grad.AsFloat32()[0]

	probs := backend.Softmax(op.logits, 1).AsFloat32()
	targets := op.targets.AsInt32()

	dLogits := newFloat32(shape)
	out := dLogits.AsFloat32()
	inv := upstream / float32(batch)
	for b := 0; b < batch; b++ {
		for c := 0; c < classes; c++ {
			p := probs[b*classes+c]
			if int32(c) == targets[b] {
				p -= 1
			}
			out[b*classes+c] = p * inv
		}
	}
	return []*tensor.RawTensor{dLogits}
}

// mseOp: out = mean((pred - target)²). Targets are treated as constants.
type mseOp struct {
	pred, target *tensor.RawTensor
	out          *tensor.RawTensor
}

func (op *mseOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.pred} }
func (op *mseOp) Output() *tensor.RawTensor   { return op.out }

func (op *mseOp) Backward(grad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	upstream := grad.AsFloat32()[0]
	pred, target := op.pred.AsFloat32(), op.target.AsFloat32()

	dPred := newFloat32(op.pred.Shape())
	out := dPred.AsFloat32()
	scale := 2 * upstream / float32(len(pred))
	for i := range out {
		out[i] = scale * (pred[i] - target[i])
	}
	return []*tensor.RawTensor{dPred}
}

// logSoftmax computes log softmax of a single row using the log-sum-exp trick.
func logSoftmax(logits []float32) []float32 {
	maxVal := logits[0]
	for _, v := range logits {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float64
	for _, v := range logits {
		sum += math.Exp(float64(v - maxVal))
	}
	logSum := float32(math.Log(sum))

	out := make([]float32, len(logits))
	for i, v := range logits {
		out[i] = v - maxVal - logSum
	}
	return out
}
