// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/snn/internal/backend/cpu"
	"github.com/born-ml/snn/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.IPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.IPU, raw.Device())
	assert.Len(t, raw.AsFloat32(), 6)
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, x.Data())

	assert.Equal(t, []float32{0, 0, 0}, tensor.Zeros[float32](tensor.Shape{3}, backend).Data())
	assert.Equal(t, []float32{1, 1}, tensor.Ones[float32](tensor.Shape{2}, backend).Data())
	assert.Equal(t, []float32{0.5, 0.5}, tensor.Full[float32](tensor.Shape{2}, 0.5, backend).Data())
}
