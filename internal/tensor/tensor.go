package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is a typed tensor bound to a compute backend.
//
// T is the element type (float32, float64, int32, int64, uint8, bool).
// Operations delegate to the tensor's backend; an autodiff backend records
// them on its gradient tape transparently.
type Tensor[T DType] struct {
	raw     *RawTensor
	backend Backend
}

// New creates a tensor from a raw tensor.
//
// This is a low-level constructor; most callers use creation functions like
// Zeros, Ones or FromSlice. Panics if the raw dtype does not match T.
func New[T DType](raw *RawTensor, b Backend) *Tensor[T] {
	var zero T
	if dt := inferDataType(zero); raw.DType() != dt {
		panic(fmt.Sprintf("tensor.New: raw dtype %s does not match element type %s", raw.DType(), dt))
	}
	return &Tensor[T]{raw: raw, backend: b}
}

// Raw returns the underlying raw tensor.
func (t *Tensor[T]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the tensor's compute backend.
func (t *Tensor[T]) Backend() Backend {
	return t.backend
}

// Shape returns the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's runtime data type.
func (t *Tensor[T]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return t.raw.NumElements()
}

// Data returns a typed view of the tensor's buffer.
// Mutations write through to the tensor.
func (t *Tensor[T]) Data() []T {
	return unsafe.Slice((*T)(unsafe.Pointer(&t.raw.data[0])), t.raw.NumElements())
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	return &Tensor[T]{raw: t.raw.Clone(), backend: t.backend}
}

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T]) Add(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Add(t.raw, other.raw), backend: t.backend}
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T]) Sub(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Sub(t.raw, other.raw), backend: t.backend}
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T]) Mul(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Mul(t.raw, other.raw), backend: t.backend}
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T]) Div(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Div(t.raw, other.raw), backend: t.backend}
}

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (t *Tensor[T]) MatMul(other *Tensor[T]) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.MatMul(t.raw, other.raw), backend: t.backend}
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T]) AddScalar(s float64) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.AddScalar(t.raw, s), backend: t.backend}
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T]) MulScalar(s float64) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.MulScalar(t.raw, s), backend: t.backend}
}

// Exp applies the element-wise exponential.
func (t *Tensor[T]) Exp() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Exp(t.raw), backend: t.backend}
}

// Log applies the element-wise natural logarithm.
func (t *Tensor[T]) Log() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Log(t.raw), backend: t.backend}
}

// Sqrt applies the element-wise square root.
func (t *Tensor[T]) Sqrt() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Sqrt(t.raw), backend: t.backend}
}

// Softmax computes softmax along the given dimension.
func (t *Tensor[T]) Softmax(dim int) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Softmax(t.raw, dim), backend: t.backend}
}

// Reshape returns a tensor with a new shape and the same elements.
func (t *Tensor[T]) Reshape(dims ...int) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Reshape(t.raw, Shape(dims)), backend: t.backend}
}

// Transpose permutes the tensor's axes. With no arguments a 2D tensor is
// matrix-transposed.
func (t *Tensor[T]) Transpose(axes ...int) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Transpose(t.raw, axes...), backend: t.backend}
}

// Sum reduces the tensor to a scalar (shape [1]) sum.
func (t *Tensor[T]) Sum() *Tensor[T] {
	return &Tensor[T]{raw: t.backend.Sum(t.raw), backend: t.backend}
}

// SumDim sums along a dimension.
func (t *Tensor[T]) SumDim(dim int, keepDim bool) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.SumDim(t.raw, dim, keepDim), backend: t.backend}
}

// MeanDim averages along a dimension.
func (t *Tensor[T]) MeanDim(dim int, keepDim bool) *Tensor[T] {
	return &Tensor[T]{raw: t.backend.MeanDim(t.raw, dim, keepDim), backend: t.backend}
}

// Argmax returns the indices of the maximum values along a dimension.
func (t *Tensor[T]) Argmax(dim int) *Tensor[int32] {
	return &Tensor[int32]{raw: t.backend.Argmax(t.raw, dim), backend: t.backend}
}

// String returns a compact description of the tensor.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.backend.Name())
}
