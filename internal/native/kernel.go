package native

import (
	"github.com/pkg/errors"

	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/kernels"
	"github.com/born-ml/snn/internal/tensor"
)

// Kernel runs one operator's entry points from a native library.
// The native ABI is float32 only.
type Kernel struct {
	lib Library
	op  string
}

var _ customop.Kernel = (*Kernel)(nil)

// NewKernel binds operator op of lib.
func NewKernel(lib Library, op string) *Kernel {
	return &Kernel{lib: lib, op: op}
}

func (k *Kernel) attrs(attrs customop.Attributes) (threshold, slope float32) {
	return float32(attrs.Get(kernels.AttrThreshold, kernels.DefaultThreshold)),
		float32(attrs.Get(kernels.AttrSlope, kernels.DefaultSlope))
}

// Forward implements customop.Kernel.
func (k *Kernel) Forward(inputs []*tensor.RawTensor, attrs customop.Attributes) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, errors.Wrapf(customop.ErrArity, "%s: want 1 input, got %d", k.op, len(inputs))
	}
	x := inputs[0]
	if x.DType() != tensor.Float32 {
		return nil, errors.Wrapf(customop.ErrUnsupportedDType, "%s: native kernels take float32, got %s", k.op, x.DType())
	}

	y := tensor.NewRawLike(x)
	threshold, slope := k.attrs(attrs)
	status, err := k.lib.Forward(k.op, x.AsFloat32(), y.AsFloat32(), threshold, slope)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &KernelError{Symbol: ForwardSymbol(k.op), Status: status}
	}
	return []*tensor.RawTensor{y}, nil
}

// Backward implements customop.Kernel.
func (k *Kernel) Backward(inputs, outputGrads []*tensor.RawTensor, attrs customop.Attributes) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 || len(outputGrads) != 1 {
		return nil, errors.Wrapf(customop.ErrArity, "%s backward: want 1 input and 1 gradient, got %d and %d",
			k.op, len(inputs), len(outputGrads))
	}
	x, gy := inputs[0], outputGrads[0]
	if x.DType() != tensor.Float32 || !x.SameLayout(gy) {
		return nil, errors.Wrapf(customop.ErrUnsupportedDType, "%s backward: input %s%v, gradient %s%v",
			k.op, x.DType(), x.Shape(), gy.DType(), gy.Shape())
	}

	gx := tensor.NewRawLike(x)
	threshold, slope := k.attrs(attrs)
	status, err := k.lib.Backward(k.op, x.AsFloat32(), gy.AsFloat32(), gx.AsFloat32(), threshold, slope)
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, &KernelError{Symbol: BackwardSymbol(k.op), Status: status}
	}
	return []*tensor.RawTensor{gx}, nil
}

// Register binds the named operators of lib into reg, sourced by the library path.
func Register(reg *customop.Registry, lib Library, names ...string) error {
	for _, name := range names {
		if err := reg.Register(customop.ID(name), NewKernel(lib, name), lib.Path()); err != nil {
			return err
		}
	}
	return nil
}
