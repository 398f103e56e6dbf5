package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType](shape Shape, b Backend) *Tensor[T] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		panic(err)
	}
	return &Tensor[T]{raw: raw, backend: b}
}

// Ones creates a tensor filled with ones.
func Ones[T DType](shape Shape, b Backend) *Tensor[T] {
	return Full[T](shape, fromFloat64[T](1), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType](shape Shape, value T, b Backend) *Tensor[T] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor filled with samples from the standard normal
// distribution N(0, 1).
func Randn[T DType](shape Shape, b Backend) *Tensor[T] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = fromFloat64[T](rand.NormFloat64())
	}
	return t
}

// Rand creates a tensor filled with samples from the uniform distribution
// U(0, 1).
func Rand[T DType](shape Shape, b Backend) *Tensor[T] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = fromFloat64[T](rand.Float64())
	}
	return t
}

// Arange creates a 1D tensor with values from start to end (exclusive),
// stepping by one.
func Arange[T DType](start, end int, b Backend) *Tensor[T] {
	if end <= start {
		panic(fmt.Sprintf("tensor.Arange: end %d must be greater than start %d", end, start))
	}
	t := Zeros[T](Shape{end - start}, b)
	data := t.Data()
	for i := range data {
		data[i] = fromFloat64[T](float64(start + i))
	}
	return t
}

// Eye creates an n-by-n identity matrix.
func Eye[T DType](n int, b Backend) *Tensor[T] {
	t := Zeros[T](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = fromFloat64[T](1)
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
//
// The slice length must match the shape's element count. The data is copied.
func FromSlice[T DType](data []T, shape Shape, b Backend) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}

	t := Zeros[T](shape, b)
	copy(t.Data(), data)
	return t, nil
}
