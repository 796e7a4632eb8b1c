// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package surrogate

import (
	"fmt"
	"maps"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/snn/internal/config"
	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/kernels"
	"github.com/born-ml/snn/internal/tensor"
)

// Func applies a spiking operator to a membrane potential tensor and returns
// spikes of the same shape and data type.
type Func func(u *tensor.RawTensor) (*tensor.RawTensor, error)

// Bind returns a Func for the named operator. Attributes start from the
// operator's manifest entry and are then overridden by opts; they are fixed
// for the lifetime of the Func.
func (rt *Runtime) Bind(name string, opts ...OpOption) Func {
	attrs := maps.Clone(rt.defaults[name])
	if attrs == nil {
		attrs = customop.Attributes{
			kernels.AttrThreshold: kernels.DefaultThreshold,
			kernels.AttrSlope:     kernels.DefaultSlope,
		}
	}
	for _, opt := range opts {
		opt(attrs)
	}
	if err := checkAttributes(attrs); err != nil {
		return func(*tensor.RawTensor) (*tensor.RawTensor, error) {
			return nil, errors.WithMessagef(err, "%s", customop.ID(name))
		}
	}

	return func(u *tensor.RawTensor) (*tensor.RawTensor, error) {
		if u == nil {
			return nil, errors.Wrapf(customop.ErrNoInputs, "%s", customop.ID(name))
		}
		return rt.dispatcher.Call1(customop.Unary(name, u, attrs))
	}
}

// checkAttributes rejects slopes that would drive 1 + k|U| to zero.
func checkAttributes(attrs customop.Attributes) error {
	k := attrs.Get(kernels.AttrSlope, kernels.DefaultSlope)
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return &config.ValidationError{Field: kernels.AttrSlope, Details: fmt.Sprintf("must be a finite non-negative number, got %v", k)}
	}
	return nil
}

// Heaviside returns the spike function whose gradient passes only where the
// neuron fired.
func (rt *Runtime) Heaviside(opts ...OpOption) Func {
	return rt.Bind(customop.Heaviside, opts...)
}

// StraightThroughEstimator returns the spike function whose backward pass is
// the identity.
func (rt *Runtime) StraightThroughEstimator(opts ...OpOption) Func {
	return rt.Bind(customop.StraightThroughEstimator, opts...)
}

// FastSigmoid returns the spike function with the SuperSpike surrogate
// gradient 1 / (1 + k|U - threshold|)².
func (rt *Runtime) FastSigmoid(opts ...OpOption) Func {
	return rt.Bind(customop.FastSigmoid, opts...)
}

// Apply runs f on a typed tensor and wraps the spikes on the same backend.
func Apply[T tensor.DType, B tensor.Backend](f Func, u *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], error) {
	spikes, err := f(u.Raw())
	if err != nil {
		return nil, err
	}
	return tensor.New[T](spikes, u.Backend()), nil
}
