package cpu

import (
	"fmt"

	"github.com/flintml/flint/internal/tensor"
)

// Reshape returns a zero-copy view with a new shape.
func (b *CPUBackend) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return t.View(shape)
}

// Transpose permutes the tensor's axes. With no axes given, a 2D tensor is
// matrix-transposed; higher-rank tensors require an explicit permutation.
func (b *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	rank := len(shape)

	if len(axes) == 0 {
		if rank != 2 {
			panic(fmt.Sprintf("cpu: transpose without axes requires a 2D tensor, got %v", shape))
		}
		axes = []int{1, 0}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("cpu: transpose axes %v do not match rank %d", axes, rank))
	}

	seen := make([]bool, rank)
	outShape := make(tensor.Shape, rank)
	for i, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			panic(fmt.Sprintf("cpu: invalid transpose permutation %v for shape %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	out := mustRaw(outShape, t.DType())
	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	elemSize := t.DType().Size()
	src, dst := t.Data(), out.Data()

	n := t.NumElements()
	for i := 0; i < n; i++ {
		// Decompose the output index, map each axis back to its source axis.
		srcOff := 0
		rem := i
		for d := 0; d < rank; d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			srcOff += idx * inStrides[axes[d]]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcOff*elemSize:(srcOff+1)*elemSize])
	}
	return out
}
