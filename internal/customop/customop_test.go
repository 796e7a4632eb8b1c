package customop_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/snn/internal/autodiff"
	"github.com/born-ml/snn/internal/backend/cpu"
	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/kernels"
	"github.com/born-ml/snn/internal/parallel"
	"github.com/born-ml/snn/internal/tensor"
)

// shapeKernel returns a fixed output layout so dispatch validation can be exercised.
type shapeKernel struct {
	shape tensor.Shape
	count int
}

func (k shapeKernel) Forward(inputs []*tensor.RawTensor, _ customop.Attributes) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, k.count)
	for i := range out {
		r, err := tensor.NewRaw(k.shape, inputs[0].DType(), tensor.CPU)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (k shapeKernel) Backward(inputs, _ []*tensor.RawTensor, _ customop.Attributes) ([]*tensor.RawTensor, error) {
	return []*tensor.RawTensor{tensor.NewRawLike(inputs[0])}, nil
}

func input(t *testing.T, data ...float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func TestOperatorID(t *testing.T) {
	id := customop.ID(customop.FastSigmoid)
	assert.Equal(t, customop.OperatorID{Domain: "custom.ops", Name: "FastSigmoid", Version: 1}, id)
	assert.Equal(t, "custom.ops::FastSigmoid@1", id.String())
}

func TestUnaryDescriptor(t *testing.T) {
	u := input(t, 1)
	desc := customop.Unary(customop.StraightThroughEstimator, u, customop.Attributes{"slope": 3})

	assert.Same(t, u, desc.Inputs[0])
	assert.Same(t, u, desc.ExampleOutputs[0])
	assert.Equal(t, 3.0, desc.Attributes.Get("slope", 25))
	assert.Equal(t, 0.0, desc.Attributes.Get("threshold", 0))
}

func TestRegistry_OneSourcePerOperator(t *testing.T) {
	reg := customop.NewRegistry()
	id := customop.ID(customop.Heaviside)

	require.NoError(t, reg.Register(id, shapeKernel{}, "/lib/a.so"))
	require.NoError(t, reg.Register(id, shapeKernel{}, "/lib/a.so"))

	err := reg.Register(id, shapeKernel{}, "/lib/b.so")
	assert.ErrorIs(t, err, customop.ErrDuplicateOperator)

	got, err := reg.Lookup(id)
	require.NoError(t, err)
	assert.Equal(t, "/lib/a.so", got.Source)

	assert.True(t, reg.Unregister(id))
	assert.False(t, reg.Unregister(id))
	require.NoError(t, reg.Register(id, shapeKernel{}, "/lib/b.so"))
}

func TestRegistry_NilKernel(t *testing.T) {
	err := customop.NewRegistry().Register(customop.ID("X"), nil, "builtin")
	assert.Error(t, err)
}

func TestRegistry_LookupVersionMismatch(t *testing.T) {
	reg := customop.NewRegistry()
	require.NoError(t, reg.Register(customop.ID(customop.FastSigmoid), shapeKernel{}, "builtin"))

	id := customop.ID(customop.FastSigmoid)
	id.Version = 2
	_, err := reg.Lookup(id)
	assert.ErrorIs(t, err, customop.ErrUnknownOperator)
}

func TestRegistry_SupportedOpsSorted(t *testing.T) {
	reg := customop.NewRegistry()
	require.NoError(t, kernels.Register(reg, parallel.Sequential(), kernels.Names()...))

	var names []string
	for _, r := range reg.SupportedOps() {
		names = append(names, r.ID.Name)
	}
	want := []string{"FastSigmoid", "Heaviside", "StraightThroughEstimator"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("SupportedOps() mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcher_UnknownOperator(t *testing.T) {
	d := customop.NewDispatcher(customop.NewRegistry(), nil, zerolog.Nop())

	_, err := d.Call(customop.Unary("Sigmoid", input(t, 1), nil))
	assert.ErrorIs(t, err, customop.ErrUnknownOperator)
}

func TestDispatcher_NoInputs(t *testing.T) {
	d := customop.NewDispatcher(customop.NewRegistry(), nil, zerolog.Nop())

	_, err := d.Call(customop.Descriptor{ID: customop.ID(customop.Heaviside)})
	assert.ErrorIs(t, err, customop.ErrNoInputs)
}

func TestDispatcher_NilTensors(t *testing.T) {
	reg := customop.NewRegistry()
	require.NoError(t, kernels.Register(reg, parallel.Sequential(), customop.StraightThroughEstimator))
	d := customop.NewDispatcher(reg, nil, zerolog.Nop())
	id := customop.ID(customop.StraightThroughEstimator)
	u := input(t, 1)

	_, err := d.Call(customop.Descriptor{ID: id, Inputs: []*tensor.RawTensor{nil}, ExampleOutputs: []*tensor.RawTensor{u}})
	assert.ErrorIs(t, err, customop.ErrNoInputs)

	_, err = d.Call(customop.Descriptor{ID: id, Inputs: []*tensor.RawTensor{u}, ExampleOutputs: []*tensor.RawTensor{nil}})
	require.ErrorIs(t, err, customop.ErrOutputMismatch)
	var mm *customop.MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, 0, mm.Index)
	assert.Equal(t, "nil", mm.Got)
}

func TestDispatcher_OutputMismatch(t *testing.T) {
	tests := []struct {
		name   string
		kernel shapeKernel
		reason string
	}{
		{"shape", shapeKernel{shape: tensor.Shape{3}, count: 1}, "layout"},
		{"count", shapeKernel{shape: tensor.Shape{2}, count: 2}, "output count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := customop.NewRegistry()
			require.NoError(t, reg.Register(customop.ID("Odd"), tt.kernel, "builtin"))
			d := customop.NewDispatcher(reg, nil, zerolog.Nop())

			_, err := d.Call(customop.Unary("Odd", input(t, 1, 2), nil))
			require.ErrorIs(t, err, customop.ErrOutputMismatch)

			var mm *customop.MismatchError
			require.True(t, errors.As(err, &mm))
			assert.Equal(t, tt.reason, mm.Reason)
		})
	}
}

func TestDispatcher_KernelErrorKeepsCause(t *testing.T) {
	reg := customop.NewRegistry()
	require.NoError(t, kernels.Register(reg, parallel.Sequential(), customop.FastSigmoid))
	d := customop.NewDispatcher(reg, nil, zerolog.Nop())

	u := input(t, 1)
	_, err := d.Call(customop.Descriptor{
		ID:             customop.ID(customop.FastSigmoid),
		Inputs:         []*tensor.RawTensor{u, u},
		ExampleOutputs: []*tensor.RawTensor{u},
	})
	assert.ErrorIs(t, err, customop.ErrArity)
	assert.Contains(t, err.Error(), "custom.ops::FastSigmoid@1 forward")
}

func TestDispatcher_RecordsForBackprop(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	reg := customop.NewRegistry()
	require.NoError(t, kernels.Register(reg, parallel.Sequential(), kernels.Names()...))
	d := customop.NewDispatcher(reg, backend, zerolog.Nop())

	u, _ := tensor.FromSlice([]float32{-0.5, 0, 0.5}, tensor.Shape{3}, backend)
	attrs := customop.Attributes{kernels.AttrSlope: 2}

	s, err := d.Call1(customop.Unary(customop.FastSigmoid, u.Raw(), attrs))
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 1}, s.AsFloat32())

	// Mutating the caller's attribute map after the call must not affect backward.
	attrs[kernels.AttrSlope] = 1000

	grads := autodiff.BackwardRaw(s, backend)
	assert.InDeltaSlice(t, []float32{0.25, 1, 0.25}, grads[u.Raw()].AsFloat32(), 1e-6)
}

func TestDispatcher_ForwardOnlyWithoutRecorder(t *testing.T) {
	reg := customop.NewRegistry()
	require.NoError(t, kernels.Register(reg, parallel.Sequential(), customop.Heaviside))
	d := customop.NewDispatcher(reg, nil, zerolog.Nop())

	assert.Same(t, reg, d.Registry())

	u := input(t, -1, 1)
	first, err := d.Call1(customop.Unary(customop.Heaviside, u, nil))
	require.NoError(t, err)
	second, err := d.Call1(customop.Unary(customop.Heaviside, u, nil))
	require.NoError(t, err)

	assert.Equal(t, first.AsFloat32(), second.AsFloat32())
	assert.NotSame(t, first, second)
}
