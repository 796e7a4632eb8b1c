package native

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors reported by the native layer.
var (
	// ErrResourceUnavailable matches every *ResourceError.
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrABIMismatch         = errors.New("native library ABI version mismatch")
)

// ResourceError reports a native artifact that cannot be used: missing on
// disk, unloadable, or built against a different ABI. Callers decide whether
// to rebuild, retry or abort.
type ResourceError struct {
	Resource string // e.g. "library", "artifacts"
	Path     string
	Err      error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s unavailable", e.Resource, e.Path)
	}
	return fmt.Sprintf("%s %s unavailable: %v", e.Resource, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrResourceUnavailable) true for every ResourceError.
func (e *ResourceError) Is(target error) bool {
	return target == ErrResourceUnavailable
}

// KernelError is a nonzero status returned by a native kernel entry point.
type KernelError struct {
	Symbol string
	Status int32
}

// Error implements the error interface.
func (e *KernelError) Error() string {
	return fmt.Sprintf("native kernel %s returned status %d", e.Symbol, e.Status)
}
