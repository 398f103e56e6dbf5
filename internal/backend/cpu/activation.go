package cpu

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/flintml/flint/internal/parallel"
	"github.com/flintml/flint/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (b *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.activation(x, "relu", func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
func (b *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.activation(x, "sigmoid", func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(float64(-v))))
	})
}

// Tanh applies the hyperbolic tangent element-wise.
func (b *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.activation(x, "tanh", func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

func (b *CPUBackend) activation(x *tensor.RawTensor, op string, f func(float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: %s not supported for dtype %s", op, x.DType()))
	}
	out := mustRaw(x.Shape(), tensor.Float32)
	src, dst := x.AsFloat32(), out.AsFloat32()
	parallel.ForChunks(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(src[i])
		}
	}, b.pcfg)
	return out
}

// Dropout zeroes each element with probability p and scales survivors by
// 1/(1-p) (inverted dropout). With training=false it returns a copy of x.
//
// The raw CPU backend provides the forward pass only; the autodiff backend
// wraps it to propagate gradients through the same mask.
func (b *CPUBackend) Dropout(x *tensor.RawTensor, p float32, training bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: dropout not supported for dtype %s", x.DType()))
	}
	if !training || p == 0 {
		return x.Clone()
	}

	out := mustRaw(x.Shape(), tensor.Float32)
	src, dst := x.AsFloat32(), out.AsFloat32()
	scale := 1 / (1 - p)
	for i, v := range src {
		if rand.Float32() >= p {
			dst[i] = v * scale
		}
	}
	return out
}
