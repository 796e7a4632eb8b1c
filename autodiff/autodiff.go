// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// A Backend wraps any compute backend and records element-wise operations on a
// gradient tape. The spiking operators record themselves on the same tape, so
// their surrogate gradients flow through Backward like any other operation.
//
// Example:
//
//	import (
//	    "github.com/born-ml/snn/autodiff"
//	    "github.com/born-ml/snn/backend/cpu"
//	    "github.com/born-ml/snn/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    w, _ := tensor.FromSlice([]float32{0.5, -1}, tensor.Shape{2}, backend)
//	    x, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{2}, backend)
//	    y := w.Mul(x)
//
//	    grads := autodiff.Backward(y, backend)
//	    _ = grads[w.Raw()] // [2 3]
//	}
package autodiff

import (
	"github.com/born-ml/snn/internal/autodiff"
	"github.com/born-ml/snn/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients via backpropagation.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

// BackwardRaw computes gradients of an untyped output, e.g. a spike tensor
// returned by a surrogate operator.
func BackwardRaw(output *tensor.RawTensor, backend BackwardCapable) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.BackwardRaw(output, backend)
}
