package customop

import "github.com/born-ml/snn/internal/tensor"

// Kernel is the compiled (or reference) implementation behind an operator.
//
// Forward must not modify its inputs. Backward receives the forward inputs and
// the gradients of every output and returns one gradient per input.
type Kernel interface {
	Forward(inputs []*tensor.RawTensor, attrs Attributes) ([]*tensor.RawTensor, error)
	Backward(inputs, outputGrads []*tensor.RawTensor, attrs Attributes) ([]*tensor.RawTensor, error)
}
