package customop

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/snn/internal/tensor"
)

// Dispatch errors.
var (
	ErrUnknownOperator   = errors.New("unknown custom operator")
	ErrDuplicateOperator = errors.New("custom operator already registered")
	ErrOutputMismatch    = errors.New("kernel output does not match example output")
	ErrNoInputs          = errors.New("custom operator call has no inputs")
	ErrArity             = errors.New("wrong number of tensors for custom operator")
	ErrUnsupportedDType  = errors.New("unsupported dtype for custom operator")
)

// MismatchError describes a kernel output that disagrees with the example output.
type MismatchError struct {
	ID     OperatorID
	Index  int
	Want   string
	Got    string
	Reason string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: output %d: %s: want %s, got %s", e.ID, e.Index, e.Reason, e.Want, e.Got)
}

// Unwrap lets errors.Is match ErrOutputMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrOutputMismatch
}

func layout(t *tensor.RawTensor) string {
	return fmt.Sprintf("%s%v", t.DType(), t.Shape())
}
