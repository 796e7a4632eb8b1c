package autodiff

import (
	"fmt"

	"github.com/born-ml/snn/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t with respect to everything recorded on the
// backend's tape, seeding dL/dt with ones.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	u, _ := tensor.FromSlice([]float32{-1, 0.5}, tensor.Shape{2}, backend)
//	spikes, _ := fastSigmoid(u.Raw())
//	gradients := autodiff.Backward(tensor.New[float32](spikes, backend), backend)
//	du := gradients[u.Raw()]
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return BackwardRaw(t.Raw(), backend)
}

// BackwardRaw is Backward for an untyped output tensor.
func BackwardRaw(output *tensor.RawTensor, backend BackwardCapable) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(output.Shape(), output.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}
	outputGrad.Fill(1)

	return tape.Backward(output, outputGrad, backend)
}
