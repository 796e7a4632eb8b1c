// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/snn/internal/tensor"
)

// DType is a constraint for tensor element types: float32 and float64.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents where a tensor's kernels execute.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
	IPU Device = tensor.IPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{32, 128} is a batch of 32 layers of 128 neurons.
type Shape = tensor.Shape

// Tensor is a type-safe tensor bound to a backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps an existing RawTensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}
