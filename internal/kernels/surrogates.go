package kernels

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/parallel"
)

// heavisideGrad passes the gradient where the neuron fired: dS/dU = 1[U >= threshold].
func heavisideGrad(u, threshold, _ float64) float64 {
	if u >= threshold {
		return 1
	}
	return 0
}

// straightThrough treats the step as the identity: dS/dU = 1.
func straightThrough(_, _, _ float64) float64 {
	return 1
}

// fastSigmoid is the SuperSpike surrogate dS/dU = 1 / (1 + k|U - threshold|)².
func fastSigmoid(u, threshold, slope float64) float64 {
	d := 1 + slope*math.Abs(u-threshold)
	return 1 / (d * d)
}

// NewHeaviside returns the plain Heaviside kernel.
func NewHeaviside(par parallel.Config) *SpikeKernel {
	return &SpikeKernel{name: customop.Heaviside, surrogate: heavisideGrad, par: par}
}

// NewStraightThroughEstimator returns the Straight-Through Estimator kernel.
func NewStraightThroughEstimator(par parallel.Config) *SpikeKernel {
	return &SpikeKernel{name: customop.StraightThroughEstimator, surrogate: straightThrough, par: par}
}

// NewFastSigmoid returns the Fast Sigmoid kernel. The slope k comes from the
// call's "slope" attribute (DefaultSlope when absent).
func NewFastSigmoid(par parallel.Config) *SpikeKernel {
	return &SpikeKernel{name: customop.FastSigmoid, surrogate: fastSigmoid, par: par}
}

// New returns the reference kernel for an operator name.
func New(name string, par parallel.Config) (*SpikeKernel, error) {
	switch name {
	case customop.Heaviside:
		return NewHeaviside(par), nil
	case customop.StraightThroughEstimator:
		return NewStraightThroughEstimator(par), nil
	case customop.FastSigmoid:
		return NewFastSigmoid(par), nil
	default:
		return nil, errors.Wrapf(customop.ErrUnknownOperator, "no reference kernel for %q", name)
	}
}

// Names lists the operators with reference kernels.
func Names() []string {
	return []string{customop.Heaviside, customop.StraightThroughEstimator, customop.FastSigmoid}
}

// Register registers the reference kernel for each named operator.
func Register(reg *customop.Registry, par parallel.Config, names ...string) error {
	for _, name := range names {
		k, err := New(name, par)
		if err != nil {
			return err
		}
		if err := reg.Register(customop.ID(name), k, Source); err != nil {
			return err
		}
	}
	return nil
}
