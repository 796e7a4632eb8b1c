// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package surrogate provides spike functions with surrogate gradients.
//
// A spiking neuron fires when its membrane potential U reaches a threshold:
//
//	S = 1 if U >= threshold, else 0
//
// The step has no useful derivative, so each operator substitutes one on the
// backward pass:
//   - Heaviside: dS/dU = 1 where the neuron fired, 0 elsewhere
//   - StraightThroughEstimator: dS/dU = 1
//   - FastSigmoid: dS/dU = 1 / (1 + k|U - threshold|)², k = 25 by default
//
// The operators are custom operators in the "custom.ops" domain, version 1.
// They are backed either by precompiled native libraries, built on first use
// when missing, or by pure Go reference kernels.
//
// # Basic Usage
//
//	cfg, err := surrogate.LoadConfig("snn.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt, err := surrogate.Open(ctx, cfg)
//	if errors.Is(err, surrogate.ErrResourceUnavailable) {
//	    // libraries missing and could not be built
//	}
//
//	backend := rt.Backend()
//	backend.Tape().StartRecording()
//
//	u, _ := tensor.FromSlice([]float32{-0.2, 0, 0.7}, tensor.Shape{3}, backend)
//	spikes, _ := surrogate.Apply(rt.FastSigmoid(surrogate.WithSlope(10)), u)
//	grads := autodiff.Backward(spikes, backend)
//	du := grads[u.Raw()]
//
// MustOpen is the fail-fast variant for programs that cannot run without the
// operators.
package surrogate
