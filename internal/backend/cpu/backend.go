// Package cpu implements the pure Go CPU backend used around custom operators.
package cpu

import (
	"fmt"

	"github.com/born-ml/snn/internal/tensor"
)

// CPUBackend implements element-wise tensor arithmetic on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, addFloat32, addFloat64)
}

// Sub performs element-wise subtraction.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, subFloat32, subFloat64)
}

// Mul performs element-wise multiplication.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mulFloat32, mulFloat64)
}

// binary runs an element-wise kernel, writing into a when a is the only
// reference to its buffer and into a fresh tensor otherwise.
// Operands must share shape and dtype; surrogate gradients never broadcast.
func (cpu *CPUBackend) binary(
	name string,
	a, b *tensor.RawTensor,
	f32 func(dst, a, b []float32),
	f64 func(dst, a, b []float64),
) *tensor.RawTensor {
	if !a.SameLayout(b) {
		panic(fmt.Sprintf("%s: operands differ: %s%v vs %s%v", name, a.DType(), a.Shape(), b.DType(), b.Shape()))
	}

	result := a
	if !a.IsUnique() {
		var err error
		result, err = tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
		if err != nil {
			panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
		}
	}

	switch a.DType() {
	case tensor.Float32:
		f32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		f64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}
