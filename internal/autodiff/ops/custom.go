package ops

import (
	"fmt"

	"github.com/born-ml/snn/internal/tensor"
)

// GradientFunc computes input gradients of an externally implemented operator
// from the gradients of all its outputs.
type GradientFunc func(outputGrads []*tensor.RawTensor) ([]*tensor.RawTensor, error)

// CustomOp records one invocation of a registered custom operator.
//
// The forward result was produced by the operator's kernel, so the tape cannot
// derive the gradient from backend primitives. Backward delegates to the
// kernel's gradient entry point instead, which is where surrogate gradients
// replace the true derivative of the spike function.
type CustomOp struct {
	name    string
	inputs  []*tensor.RawTensor
	outputs []*tensor.RawTensor
	grad    GradientFunc
}

// NewCustomOp creates a CustomOp. name is only used in panic messages.
func NewCustomOp(name string, inputs, outputs []*tensor.RawTensor, grad GradientFunc) *CustomOp {
	return &CustomOp{
		name:    name,
		inputs:  inputs,
		outputs: outputs,
		grad:    grad,
	}
}

// Name returns the operator name the op was recorded under.
func (op *CustomOp) Name() string {
	return op.name
}

// Inputs returns the operator inputs.
func (op *CustomOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the first output.
func (op *CustomOp) Output() *tensor.RawTensor {
	return op.outputs[0]
}

// Outputs returns all operator outputs.
func (op *CustomOp) Outputs() []*tensor.RawTensor {
	return op.outputs
}

// Backward computes input gradients for single-output use.
func (op *CustomOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return op.BackwardMulti([]*tensor.RawTensor{outputGrad}, backend)
}

// BackwardMulti asks the kernel for input gradients.
// Kernel failures panic, matching how backends report misuse during backward.
func (op *CustomOp) BackwardMulti(outputGrads []*tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grads, err := op.grad(outputGrads)
	if err != nil {
		panic(fmt.Sprintf("%s backward: %v", op.name, err))
	}
	if len(grads) != len(op.inputs) {
		panic(fmt.Sprintf("%s backward: kernel returned %d gradients for %d inputs", op.name, len(grads), len(op.inputs)))
	}
	return grads
}
