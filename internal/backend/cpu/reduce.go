package cpu

import (
	"fmt"
	"math"

	"github.com/flintml/flint/internal/tensor"
)

// Sum reduces the tensor to a scalar (shape [1]) sum.
func (b *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := mustRaw(tensor.Shape{1}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range x.AsFloat32() {
			sum += v
		}
		out.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		out.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("cpu: sum not supported for dtype %s", x.DType()))
	}
	return out
}

// SumDim sums along a dimension.
func (b *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along a dimension.
func (b *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.reduceDim(x, dim, keepDim, true)
}

func (b *CPUBackend) reduceDim(x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: reduce dim %d out of range for shape %v", dim, shape))
	}
	if x.DType() != tensor.Float32 && x.DType() != tensor.Float64 {
		panic(fmt.Sprintf("cpu: reduce not supported for dtype %s", x.DType()))
	}

	// outer runs over dims before dim, inner over dims after it.
	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	reduce := shape[dim]

	outShape := make(tensor.Shape, 0, len(shape))
	for d, size := range shape {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, size)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}
	out := mustRaw(outShape, x.DType())

	scale := 1.0
	if mean {
		scale = 1.0 / float64(reduce)
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), out.AsFloat32()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				var sum float32
				for r := 0; r < reduce; r++ {
					sum += src[(o*reduce+r)*inner+in]
				}
				dst[o*inner+in] = sum * float32(scale)
			}
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), out.AsFloat64()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				var sum float64
				for r := 0; r < reduce; r++ {
					sum += src[(o*reduce+r)*inner+in]
				}
				dst[o*inner+in] = sum * scale
			}
		}
	}
	return out
}

// Argmax returns int32 indices of the maximum values along a dimension.
// Supports 1D tensors and 2D tensors with dim=1 (per-row argmax).
func (b *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: argmax not supported for dtype %s", x.DType()))
	}

	switch {
	case len(shape) == 1 && dim == 0:
		out := mustRaw(tensor.Shape{1}, tensor.Int32)
		out.AsInt32()[0] = int32(argmaxRow(x.AsFloat32()))
		return out
	case len(shape) == 2 && dim == 1:
		rows, cols := shape[0], shape[1]
		out := mustRaw(tensor.Shape{rows}, tensor.Int32)
		src, dst := x.AsFloat32(), out.AsInt32()
		for r := 0; r < rows; r++ {
			dst[r] = int32(argmaxRow(src[r*cols : (r+1)*cols]))
		}
		return out
	default:
		panic(fmt.Sprintf("cpu: argmax not supported for shape %v dim %d", shape, dim))
	}
}

func argmaxRow(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

// Softmax computes softmax along the given dimension using the log-sum-exp
// trick for numerical stability. Supports 1D tensors and 2D tensors with
// dim=1 (per-row softmax).
func (b *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: softmax not supported for dtype %s", x.DType()))
	}

	var rows, cols int
	switch {
	case len(shape) == 1 && dim == 0:
		rows, cols = 1, shape[0]
	case len(shape) == 2 && dim == 1:
		rows, cols = shape[0], shape[1]
	default:
		panic(fmt.Sprintf("cpu: softmax not supported for shape %v dim %d", shape, dim))
	}

	out := mustRaw(shape, tensor.Float32)
	src, dst := x.AsFloat32(), out.AsFloat32()
	for r := 0; r < rows; r++ {
		softmaxRow(src[r*cols:(r+1)*cols], dst[r*cols:(r+1)*cols])
	}
	return out
}

func softmaxRow(in, out []float32) {
	maxVal := in[0]
	for _, v := range in {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float32
	for i, v := range in {
		e := float32(math.Exp(float64(v - maxVal)))
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
}
