// Package kernels provides pure Go reference kernels for the spiking operators.
//
// Every kernel computes the same forward pass, a Heaviside step
//
//	S = 1 if U >= threshold, else 0
//
// and differs only in the gradient it substitutes for the step's derivative.
// The native libraries implement the same contract; these kernels back the
// operators when no accelerator library is configured and serve as the
// reference the native kernels are checked against.
package kernels

import (
	"github.com/pkg/errors"

	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/parallel"
	"github.com/born-ml/snn/internal/tensor"
)

// Attribute names and defaults shared by all spiking operators.
const (
	AttrThreshold = "threshold"
	AttrSlope     = "slope"

	DefaultThreshold = 0.0
	DefaultSlope     = 25.0
)

// Source is the registry source name of the reference kernels.
const Source = "builtin"

// surrogateFunc returns dS/dU at u for the given threshold and slope.
type surrogateFunc func(u, threshold, slope float64) float64

// SpikeKernel is a Heaviside forward paired with a surrogate backward.
type SpikeKernel struct {
	name      string
	surrogate surrogateFunc
	par       parallel.Config
}

var _ customop.Kernel = (*SpikeKernel)(nil)

// Name returns the operator name this kernel implements.
func (k *SpikeKernel) Name() string {
	return k.name
}

// Gradient returns the surrogate derivative at u.
func (k *SpikeKernel) Gradient(u float64, attrs customop.Attributes) float64 {
	return k.surrogate(u, attrs.Get(AttrThreshold, DefaultThreshold), attrs.Get(AttrSlope, DefaultSlope))
}

// Forward computes the Heaviside step of the single input.
func (k *SpikeKernel) Forward(inputs []*tensor.RawTensor, attrs customop.Attributes) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, errors.Wrapf(customop.ErrArity, "%s: want 1 input, got %d", k.name, len(inputs))
	}
	x := inputs[0]
	out := tensor.NewRawLike(x)
	threshold := attrs.Get(AttrThreshold, DefaultThreshold)

	switch x.DType() {
	case tensor.Float32:
		heaviside(out.AsFloat32(), x.AsFloat32(), float32(threshold), k.par)
	case tensor.Float64:
		heaviside(out.AsFloat64(), x.AsFloat64(), threshold, k.par)
	default:
		return nil, errors.Wrapf(customop.ErrUnsupportedDType, "%s: %s", k.name, x.DType())
	}
	return []*tensor.RawTensor{out}, nil
}

// Backward computes grad_U = grad_S * surrogate(U).
func (k *SpikeKernel) Backward(inputs, outputGrads []*tensor.RawTensor, attrs customop.Attributes) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 || len(outputGrads) != 1 {
		return nil, errors.Wrapf(customop.ErrArity, "%s backward: want 1 input and 1 gradient, got %d and %d",
			k.name, len(inputs), len(outputGrads))
	}
	x, gy := inputs[0], outputGrads[0]
	if !x.SameLayout(gy) {
		return nil, errors.Errorf("%s backward: gradient %s%v does not match input %s%v",
			k.name, gy.DType(), gy.Shape(), x.DType(), x.Shape())
	}

	gx := tensor.NewRawLike(x)
	threshold := attrs.Get(AttrThreshold, DefaultThreshold)
	slope := attrs.Get(AttrSlope, DefaultSlope)

	switch x.DType() {
	case tensor.Float32:
		applySurrogate(gx.AsFloat32(), x.AsFloat32(), gy.AsFloat32(), k.surrogate, threshold, slope, k.par)
	case tensor.Float64:
		applySurrogate(gx.AsFloat64(), x.AsFloat64(), gy.AsFloat64(), k.surrogate, threshold, slope, k.par)
	default:
		return nil, errors.Wrapf(customop.ErrUnsupportedDType, "%s: %s", k.name, x.DType())
	}
	return []*tensor.RawTensor{gx}, nil
}

func heaviside[T tensor.DType](dst, src []T, threshold T, par parallel.Config) {
	parallel.ForRange(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			if src[i] >= threshold {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}, par)
}

func applySurrogate[T tensor.DType](gx, x, gy []T, f surrogateFunc, threshold, slope float64, par parallel.Config) {
	parallel.ForRange(len(x), func(start, end int) {
		for i := start; i < end; i++ {
			gx[i] = gy[i] * T(f(float64(x[i]), threshold, slope))
		}
	}, par)
}
