package autodiff_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/snn/internal/autodiff"
	"github.com/born-ml/snn/internal/autodiff/ops"
	"github.com/born-ml/snn/internal/backend/cpu"
	"github.com/born-ml/snn/internal/tensor"
)

func TestAutodiffBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestAutodiffBackend_NotRecordingByDefault(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)

	backend.Mul(x.Raw(), x.Raw())
	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestAutodiffBackend_MulGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{3, -2}, tensor.Shape{2}, backend)
	y := x.Mul(x) // y = x²

	grads := autodiff.Backward(y, backend)

	// dy/dx = 2x, accumulated from both Mul inputs.
	assert.Equal(t, []float32{6, -4}, grads[x.Raw()].AsFloat32())
	// Inputs were not modified inplace.
	assert.Equal(t, []float32{3, -2}, x.Data())
}

func TestBackward_SeedsRequestedOutput(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{3, -2}, tensor.Shape{2}, backend)
	w, _ := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, backend)
	y := x.Mul(x)
	_ = x.Mul(w) // recorded after y, must not leak into dy/dx

	grads := autodiff.Backward(y, backend)
	assert.Equal(t, []float32{6, -4}, grads[x.Raw()].AsFloat32())
	_, hasW := grads[w.Raw()]
	assert.False(t, hasW)
}

func TestAutodiffBackend_SubAndScalar(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float64{5, 7}, tensor.Shape{2}, backend)

	diff := backend.Sub(a.Raw(), b.Raw())
	out := backend.MulScalar(diff, float64(3))

	grads := autodiff.BackwardRaw(out, backend)
	assert.Equal(t, []float64{3, 3}, grads[a.Raw()].AsFloat64())
	assert.Equal(t, []float64{-3, -3}, grads[b.Raw()].AsFloat64())
}

func TestAutodiffBackend_RecordCustomOp(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{-1, 1}, tensor.Shape{2}, backend)
	w, _ := tensor.FromSlice([]float32{2, 5}, tensor.Shape{2}, backend)

	// A custom op whose gradient doubles the incoming gradient.
	out := x.Raw().Copy()
	var seen []*tensor.RawTensor
	backend.Record(ops.NewCustomOp("Double", []*tensor.RawTensor{x.Raw()}, []*tensor.RawTensor{out},
		func(gy []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
			seen = gy
			return []*tensor.RawTensor{cpu.New().MulScalar(gy[0], float32(2))}, nil
		}))

	y := backend.Mul(out, w.Raw())

	grads := autodiff.BackwardRaw(y, backend)
	require.Len(t, seen, 1)
	assert.Equal(t, []float32{2, 5}, seen[0].AsFloat32())
	assert.Equal(t, []float32{4, 10}, grads[x.Raw()].AsFloat32())
}

func TestCustomOp_KernelErrorPanics(t *testing.T) {
	x, _ := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	op := ops.NewCustomOp("Broken", []*tensor.RawTensor{x}, []*tensor.RawTensor{x.Copy()},
		func([]*tensor.RawTensor) ([]*tensor.RawTensor, error) {
			return nil, errors.New("boom")
		})

	assert.PanicsWithValue(t, "Broken backward: boom", func() {
		op.Backward(x, cpu.New())
	})
}

func TestBackward_EmptyTapePanics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)

	assert.Panics(t, func() { autodiff.Backward(x, backend) })
}

func TestGradientTape_ClearKeepsRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	backend.Add(x.Raw(), x.Raw())
	require.Equal(t, 1, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording())

	tape.StopRecording()
	backend.Add(x.Raw(), x.Raw())
	assert.Equal(t, 0, tape.NumOps())
}
