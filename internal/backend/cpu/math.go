package cpu

import (
	"fmt"
	"math"

	"github.com/flintml/flint/internal/parallel"
	"github.com/flintml/flint/internal/tensor"
)

// Add performs element-wise addition with broadcasting.
func (b *CPUBackend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "add")
}

// Sub performs element-wise subtraction with broadcasting.
func (b *CPUBackend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "sub")
}

// Mul performs element-wise multiplication with broadcasting.
func (b *CPUBackend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "mul")
}

// Div performs element-wise division with broadcasting.
func (b *CPUBackend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, "div")
}

func (b *CPUBackend) binary(x, y *tensor.RawTensor, op string) *tensor.RawTensor {
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("cpu: %s dtype mismatch: %s vs %s", op, x.DType(), y.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", op, err))
	}
	out := mustRaw(outShape, x.DType())

	switch x.DType() {
	case tensor.Float32:
		binaryElem(x.AsFloat32(), y.AsFloat32(), out.AsFloat32(),
			x.Shape(), y.Shape(), outShape, kernel32(op), b.pcfg)
	case tensor.Float64:
		binaryElem(x.AsFloat64(), y.AsFloat64(), out.AsFloat64(),
			x.Shape(), y.Shape(), outShape, kernel64(op), b.pcfg)
	default:
		panic(fmt.Sprintf("cpu: %s not supported for dtype %s", op, x.DType()))
	}
	return out
}

func kernel32(op string) func(a, b float32) float32 {
	switch op {
	case "add":
		return func(a, b float32) float32 { return a + b }
	case "sub":
		return func(a, b float32) float32 { return a - b }
	case "mul":
		return func(a, b float32) float32 { return a * b }
	default:
		return func(a, b float32) float32 { return a / b }
	}
}

func kernel64(op string) func(a, b float64) float64 {
	switch op {
	case "add":
		return func(a, b float64) float64 { return a + b }
	case "sub":
		return func(a, b float64) float64 { return a - b }
	case "mul":
		return func(a, b float64) float64 { return a * b }
	default:
		return func(a, b float64) float64 { return a / b }
	}
}

// binaryElem runs a binary kernel over broadcasted operands.
// The fast path (equal shapes) avoids index arithmetic entirely.
func binaryElem[T float32 | float64](
	a, b, out []T,
	aShape, bShape, outShape tensor.Shape,
	f func(T, T) T,
	cfg parallel.Config,
) {
	if aShape.Equal(bShape) {
		parallel.ForChunks(len(out), func(start, end int) {
			for i := start; i < end; i++ {
				out[i] = f(a[i], b[i])
			}
		}, cfg)
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	parallel.ForChunks(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			aOff, bOff := 0, 0
			rem := i
			for d := range outStrides {
				idx := rem / outStrides[d]
				rem %= outStrides[d]
				aOff += idx * aStrides[d]
				bOff += idx * bStrides[d]
			}
			out[i] = f(a[aOff], b[bOff])
		}
	}, cfg)
}

// broadcastStrides aligns an operand's strides to the output rank,
// using stride 0 for broadcasted dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := shape.ComputeStrides()
	aligned := make([]int, len(outShape))
	offset := len(outShape) - len(shape)
	for d := range outShape {
		if d < offset {
			continue // missing dimension, stride 0
		}
		if shape[d-offset] == 1 && outShape[d] != 1 {
			continue // broadcasted dimension, stride 0
		}
		aligned[d] = strides[d-offset]
	}
	return aligned
}

// AddScalar adds a scalar to every element.
func (b *CPUBackend) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.unary(x, "addscalar", func(v float64) float64 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (b *CPUBackend) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.unary(x, "mulscalar", func(v float64) float64 { return v * s })
}

// Exp applies the element-wise exponential.
func (b *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "exp", math.Exp)
}

// Log applies the element-wise natural logarithm.
func (b *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "log", math.Log)
}

// Sqrt applies the element-wise square root.
func (b *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, "sqrt", math.Sqrt)
}

func (b *CPUBackend) unary(x *tensor.RawTensor, op string, f func(float64) float64) *tensor.RawTensor {
	out := mustRaw(x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		in, res := x.AsFloat32(), out.AsFloat32()
		parallel.ForChunks(len(in), func(start, end int) {
			for i := start; i < end; i++ {
				res[i] = float32(f(float64(in[i])))
			}
		}, b.pcfg)
	case tensor.Float64:
		in, res := x.AsFloat64(), out.AsFloat64()
		parallel.ForChunks(len(in), func(start, end int) {
			for i := start; i < end; i++ {
				res[i] = f(in[i])
			}
		}, b.pcfg)
	default:
		panic(fmt.Sprintf("cpu: %s not supported for dtype %s", op, x.DType()))
	}
	return out
}

// Cast converts a tensor to a different data type.
func (b *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}
	out := mustRaw(x.Shape(), dtype)

	n := x.NumElements()
	for i := 0; i < n; i++ {
		setFloat64(out, i, getFloat64(x, i))
	}
	return out
}

func getFloat64(r *tensor.RawTensor, i int) float64 {
	switch r.DType() {
	case tensor.Float32:
		return float64(r.AsFloat32()[i])
	case tensor.Float64:
		return r.AsFloat64()[i]
	case tensor.Int32:
		return float64(r.AsInt32()[i])
	case tensor.Int64:
		return float64(r.AsInt64()[i])
	case tensor.Uint8:
		return float64(r.AsUint8()[i])
	case tensor.Bool:
		if r.AsBool()[i] {
			return 1
		}
		return 0
	default:
		panic("cpu: cast: unknown dtype")
	}
}

func setFloat64(r *tensor.RawTensor, i int, v float64) {
	switch r.DType() {
	case tensor.Float32:
		r.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		r.AsFloat64()[i] = v
	case tensor.Int32:
		r.AsInt32()[i] = int32(v)
	case tensor.Int64:
		r.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		r.AsUint8()[i] = uint8(v)
	case tensor.Bool:
		r.AsBool()[i] = v != 0
	default:
		panic("cpu: cast: unknown dtype")
	}
}
