// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/snn/internal/tensor"

// Backend defines the element-wise operations a compute backend provides.
//
// Implementations:
//   - backend/cpu: Pure Go
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
type Backend interface {
	Add(a, b *RawTensor) *RawTensor                // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor                // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor                // Element-wise multiplication.
	MulScalar(x *RawTensor, scalar any) *RawTensor // Multiply by scalar.

	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)
