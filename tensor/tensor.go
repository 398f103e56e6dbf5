// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations in the Flint
// ML library.
//
// The package defines the core types for tensor computation:
//   - Tensor[T]: High-level generic tensor with compile-time element typing
//   - RawTensor: Low-level untyped tensor for advanced use cases
//   - Backend: Interface for device-specific compute implementations
//   - Shape, DataType, Device: Core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Element-wise addition
package tensor

import (
	"github.com/flintml/flint/internal/tensor"
)

// DType is a constraint for tensor element types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
	GPU Device = tensor.GPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} represents a 2D tensor with dimensions 2×3.
type Shape = tensor.Shape

// BroadcastShapes computes the broadcast result shape for two shapes using
// NumPy broadcasting rules.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// RawTensor is the untyped tensor storage shared by all backends.
type RawTensor = tensor.RawTensor

// NewRaw creates a new RawTensor with the given shape, dtype and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Tensor is the typed tensor handle bound to a backend.
type Tensor[T DType] = tensor.Tensor[T]

// New wraps a RawTensor in a typed Tensor. It panics if the element type
// does not match the raw tensor's dtype.
func New[T DType](raw *RawTensor, b Backend) *Tensor[T] {
	return tensor.New[T](raw, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType](shape Shape, b Backend) *Tensor[T] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType](shape Shape, b Backend) *Tensor[T] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with the given value.
func Full[T DType](shape Shape, value T, b Backend) *Tensor[T] {
	return tensor.Full(shape, value, b)
}

// Randn creates a tensor with standard normally distributed values.
func Randn[T DType](shape Shape, b Backend) *Tensor[T] {
	return tensor.Randn[T](shape, b)
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
func Rand[T DType](shape Shape, b Backend) *Tensor[T] {
	return tensor.Rand[T](shape, b)
}

// Arange creates a 1D tensor with values from start (inclusive) to end
// (exclusive).
func Arange[T DType](start, end int, b Backend) *Tensor[T] {
	return tensor.Arange[T](start, end, b)
}

// Eye creates an n×n identity matrix.
func Eye[T DType](n int, b Backend) *Tensor[T] {
	return tensor.Eye[T](n, b)
}

// FromSlice creates a tensor from a Go slice with the given shape.
func FromSlice[T DType](data []T, shape Shape, b Backend) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape, b)
}
