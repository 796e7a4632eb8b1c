package tensor

// Backend defines the element-wise arithmetic the autodiff tape needs to
// propagate gradients around custom operators.
//
// Implementations:
//   - cpu.CPUBackend: pure Go
//   - autodiff.AutodiffBackend: records operations of a wrapped backend
type Backend interface {
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MulScalar multiplies every element by scalar (float32 or float64, matching x).
	MulScalar(x *RawTensor, scalar any) *RawTensor

	Name() string
	Device() Device
}
