// Package ops defines the differentiable operations recorded on a gradient tape.
//
// Each operation implements the Operation interface:
//   - Forward pass: computed by the backend (or by a custom operator kernel)
//   - Backward pass: computes gradients for inputs given the output gradient
//
// Supported operations:
//   - AddOp: element-wise addition (d(a+b)/da = 1, d(a+b)/db = 1)
//   - SubOp: element-wise subtraction
//   - MulOp: element-wise multiplication (d(a*b)/da = b, d(a*b)/db = a)
//   - MulScalarOp: multiplication by a constant
//   - CustomOp: an externally implemented operator whose gradient comes from its kernel
package ops

import "github.com/born-ml/snn/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// MultiOutputOperation represents an operation that produces multiple outputs.
//
// The tape collects gradients for ALL outputs before calling BackwardMulti,
// filling outputs that received no gradient with zeros.
type MultiOutputOperation interface {
	Operation

	// Outputs returns all output tensors produced by this operation.
	Outputs() []*tensor.RawTensor

	// BackwardMulti computes gradients for inputs given gradients for ALL outputs.
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
