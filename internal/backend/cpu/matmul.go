package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/mat"

	"github.com/flintml/flint/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
//
// float32 uses gonum's blas32 GEMM; float64 uses gonum/mat.
func (b *CPUBackend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	xs, ys := x.Shape(), y.Shape()
	if len(xs) != 2 || len(ys) != 2 {
		panic(fmt.Sprintf("cpu: matmul requires 2D tensors, got %v @ %v", xs, ys))
	}
	if xs[1] != ys[0] {
		panic(fmt.Sprintf("cpu: matmul inner dimensions do not match: %v @ %v", xs, ys))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("cpu: matmul dtype mismatch: %s vs %s", x.DType(), y.DType()))
	}

	m, k, n := xs[0], xs[1], ys[1]
	out := mustRaw(tensor.Shape{m, n}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		a := blas32.General{Rows: m, Cols: k, Stride: k, Data: x.AsFloat32()}
		c := blas32.General{Rows: k, Cols: n, Stride: n, Data: y.AsFloat32()}
		res := blas32.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat32()}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a, c, 0, res)
	case tensor.Float64:
		a := mat.NewDense(m, k, x.AsFloat64())
		c := mat.NewDense(k, n, y.AsFloat64())
		res := mat.NewDense(m, n, out.AsFloat64())
		res.Mul(a, c)
	default:
		panic(fmt.Sprintf("cpu: matmul not supported for dtype %s", x.DType()))
	}
	return out
}
