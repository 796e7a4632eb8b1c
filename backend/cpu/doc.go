// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// The backend implements the element-wise operations the autodiff tape needs
// (Add, Sub, Mul, MulScalar) for float32 and float64 tensors of equal shape.
// When the left operand is the only reference to its buffer the result is
// written in place.
//
//	import (
//	    "github.com/born-ml/snn/backend/cpu"
//	    "github.com/born-ml/snn/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Ones[float32](tensor.Shape{4}, backend)
//	    y := x.Add(x)
//	}
package cpu
