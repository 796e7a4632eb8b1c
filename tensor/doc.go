// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensors that flow through the spiking operators.
//
// # Overview
//
// Membrane potentials and spike trains are dense real-valued tensors:
//   - Generic type-safe tensors (Tensor[T, B]) over float32 and float64
//   - Reference-counted buffers shared with the autodiff tape
//   - Device tags for host (CPU) and accelerator (IPU) placement
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/snn/backend/cpu"
//	    "github.com/born-ml/snn/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    u, _ := tensor.FromSlice([]float32{-0.5, 0, 0.5}, tensor.Shape{3}, backend)
//	    bias := tensor.Full[float32](tensor.Shape{3}, 0.1, backend)
//	    v := u.Add(bias)
//	}
//
// Element-wise operations require equal shapes and data types; there is no
// broadcasting.
package tensor
