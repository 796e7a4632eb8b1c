// Package native loads precompiled spiking-operator libraries and exposes
// their kernels through the custom-operator Kernel interface.
//
// A library exports, for every operator it implements, two C entry points
// named after the operator in snake case:
//
//	int32_t snn_<op>_forward(const float *x, float *y, int64_t n, float threshold, float slope);
//	int32_t snn_<op>_backward(const float *x, const float *gy, float *gx, int64_t n, float threshold, float slope);
//
// plus int32_t snn_abi_version(void). A zero status means success.
package native

import "github.com/samber/lo"

// Library is a loaded native operator library.
type Library interface {
	// Path is the file the library was loaded from.
	Path() string
	// ABIVersion returns the value of snn_abi_version.
	ABIVersion() (int32, error)
	// Forward calls snn_<op>_forward.
	Forward(op string, x, y []float32, threshold, slope float32) (int32, error)
	// Backward calls snn_<op>_backward.
	Backward(op string, x, gy, gx []float32, threshold, slope float32) (int32, error)
}

// OpenFunc opens the library at path.
type OpenFunc func(path string) (Library, error)

// ABIVersionSymbol is the exported ABI version function.
const ABIVersionSymbol = "snn_abi_version"

// ForwardSymbol returns the forward entry point name for an operator,
// e.g. "FastSigmoid" -> "snn_fast_sigmoid_forward".
func ForwardSymbol(op string) string {
	return "snn_" + lo.SnakeCase(op) + "_forward"
}

// BackwardSymbol returns the backward entry point name for an operator.
func BackwardSymbol(op string) string {
	return "snn_" + lo.SnakeCase(op) + "_backward"
}
