package ops

import "github.com/born-ml/snn/internal/tensor"

// MulScalarOp represents output = x * s for a constant s.
type MulScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any
}

// NewMulScalarOp creates a new MulScalarOp.
func NewMulScalarOp(x, output *tensor.RawTensor, scalar any) *MulScalarOp {
	return &MulScalarOp{
		input:  x,
		output: output,
		scalar: scalar,
	}
}

// Backward computes grad_x = outputGrad * s.
func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// Inputs returns the input tensor [x].
func (op *MulScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor x * s.
func (op *MulScalarOp) Output() *tensor.RawTensor {
	return op.output
}
