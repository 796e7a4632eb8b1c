package kernels_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/kernels"
	"github.com/born-ml/snn/internal/parallel"
	"github.com/born-ml/snn/internal/tensor"
)

func raw32(t *testing.T, data ...float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func raw64(t *testing.T, data ...float64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat64(), data)
	return r
}

func allKernels() []*kernels.SpikeKernel {
	par := parallel.Sequential()
	return []*kernels.SpikeKernel{
		kernels.NewHeaviside(par),
		kernels.NewStraightThroughEstimator(par),
		kernels.NewFastSigmoid(par),
	}
}

func TestForward_IsHeaviside(t *testing.T) {
	u := raw32(t, -3, -1e-7, float32(math.Copysign(0, -1)), 0, 1e-7, 2.5)
	want := []float32{0, 0, 1, 1, 1, 1}

	for _, k := range allKernels() {
		t.Run(k.Name(), func(t *testing.T) {
			out, err := k.Forward([]*tensor.RawTensor{u}, nil)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, want, out[0].AsFloat32())
			// Input is untouched.
			assert.Equal(t, float32(-3), u.AsFloat32()[0])
		})
	}
}

func TestForward_Threshold(t *testing.T) {
	u := raw64(t, 0.5, 0.99, 1, 1.5)
	attrs := customop.Attributes{kernels.AttrThreshold: 1}

	out, err := kernels.NewFastSigmoid(parallel.Sequential()).Forward([]*tensor.RawTensor{u}, attrs)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 1}, out[0].AsFloat64())
}

func TestForward_ParallelMatchesSequential(t *testing.T) {
	n := 50_000
	u, _ := tensor.NewRaw(tensor.Shape{n}, tensor.Float32, tensor.CPU)
	for i, d := 0, u.AsFloat32(); i < n; i++ {
		d[i] = float32(i%7) - 3
	}

	seq, err := kernels.NewStraightThroughEstimator(parallel.Sequential()).Forward([]*tensor.RawTensor{u}, nil)
	require.NoError(t, err)
	par, err := kernels.NewStraightThroughEstimator(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1024}).
		Forward([]*tensor.RawTensor{u}, nil)
	require.NoError(t, err)

	assert.Equal(t, seq[0].AsFloat32(), par[0].AsFloat32())
}

func TestStraightThroughEstimator_BackwardIsIdentity(t *testing.T) {
	k := kernels.NewStraightThroughEstimator(parallel.Sequential())
	u := raw32(t, -100, -1, 0, 1, 100)
	gy := raw32(t, 0.1, -2, 3, 1e-30, 7)

	gx, err := k.Backward([]*tensor.RawTensor{u}, []*tensor.RawTensor{gy}, nil)
	require.NoError(t, err)
	assert.Equal(t, gy.AsFloat32(), gx[0].AsFloat32())
}

func TestFastSigmoid_Backward(t *testing.T) {
	k := kernels.NewFastSigmoid(parallel.Sequential())
	u := raw64(t, 0, 0.04, -0.04, 1)
	gy := raw64(t, 1, 1, 1, 2)

	gx, err := k.Backward([]*tensor.RawTensor{u}, []*tensor.RawTensor{gy}, nil)
	require.NoError(t, err)

	got := gx[0].AsFloat64()
	assert.Equal(t, 1.0, got[0])
	assert.InDelta(t, 0.25, got[1], 1e-12) // 1/(1+25*0.04)^2
	assert.InDelta(t, 0.25, got[2], 1e-12)
	assert.InDelta(t, 2.0/(26*26), got[3], 1e-12)
}

func TestFastSigmoid_CustomSlope(t *testing.T) {
	k := kernels.NewFastSigmoid(parallel.Sequential())
	attrs := customop.Attributes{kernels.AttrSlope: 1}

	assert.InDelta(t, 0.25, k.Gradient(1, attrs), 1e-12)
	assert.InDelta(t, 0.25, k.Gradient(-1, attrs), 1e-12)
}

func TestFastSigmoid_GradientDecreasesWithMagnitude(t *testing.T) {
	k := kernels.NewFastSigmoid(parallel.Sequential())

	for _, slope := range []float64{0.5, 1, 25, 100} {
		attrs := customop.Attributes{kernels.AttrSlope: slope}
		assert.Equal(t, 1.0, k.Gradient(0, attrs))

		prev := k.Gradient(0, attrs)
		for _, u := range []float64{0.01, 0.1, 1, 10, 1e3} {
			g := k.Gradient(u, attrs)
			assert.Less(t, g, prev, "slope=%v u=%v", slope, u)
			assert.Equal(t, g, k.Gradient(-u, attrs))
			prev = g
		}
	}
}

func TestHeaviside_BackwardMasksSilentNeurons(t *testing.T) {
	k := kernels.NewHeaviside(parallel.Sequential())
	u := raw32(t, -1, 0, 2)
	gy := raw32(t, 5, 5, 5)

	gx, err := k.Backward([]*tensor.RawTensor{u}, []*tensor.RawTensor{gy}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 5, 5}, gx[0].AsFloat32())
}

func TestBackward_FiniteForFiniteInputs(t *testing.T) {
	u := raw32(t, -math.MaxFloat32, -1, 0, 1, math.MaxFloat32)
	gy := raw32(t, 1, 1, 1, 1, 1)

	for _, k := range allKernels() {
		gx, err := k.Backward([]*tensor.RawTensor{u}, []*tensor.RawTensor{gy}, nil)
		require.NoError(t, err, k.Name())
		for i, g := range gx[0].AsFloat32() {
			assert.False(t, math.IsNaN(float64(g)) || math.IsInf(float64(g), 0), "%s[%d]=%v", k.Name(), i, g)
		}
	}
}

func TestKernel_Arity(t *testing.T) {
	k := kernels.NewFastSigmoid(parallel.Sequential())
	u := raw32(t, 1)

	_, err := k.Forward([]*tensor.RawTensor{u, u}, nil)
	assert.ErrorIs(t, err, customop.ErrArity)

	_, err = k.Backward([]*tensor.RawTensor{u}, nil, nil)
	assert.ErrorIs(t, err, customop.ErrArity)

	_, err = k.Backward([]*tensor.RawTensor{u}, []*tensor.RawTensor{raw32(t, 1, 2)}, nil)
	assert.Error(t, err)
}

func TestNewAndRegister(t *testing.T) {
	_, err := kernels.New("Sigmoid", parallel.Sequential())
	assert.ErrorIs(t, err, customop.ErrUnknownOperator)

	reg := customop.NewRegistry()
	require.NoError(t, kernels.Register(reg, parallel.Sequential(), kernels.Names()...))

	got := reg.SupportedOps()
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, kernels.Source, r.Source)
		assert.Equal(t, customop.Domain, r.ID.Domain)
	}
}
