package cpu

import (
	"fmt"

	"github.com/born-ml/snn/internal/tensor"
)

// MulScalar multiplies each element of the tensor by a scalar value.
// The scalar's Go type must match the tensor dtype.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("mulScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		s := scalar.(float32)
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Float64:
		s := scalar.(float64)
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = v * s
		}
	default:
		panic(fmt.Sprintf("mulScalar: unsupported dtype %v", x.DType()))
	}

	return result
}
