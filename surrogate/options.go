// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package surrogate

import (
	"github.com/rs/zerolog"

	"github.com/born-ml/snn/internal/bootstrap"
	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/kernels"
	"github.com/born-ml/snn/internal/native"
	"github.com/born-ml/snn/internal/parallel"
)

// Runner executes the build recipe in a directory.
type Runner = bootstrap.Runner

// RunnerFunc adapts a function to Runner.
type RunnerFunc = bootstrap.RunnerFunc

// Library is a loaded native operator library.
type Library = native.Library

// OpenFunc opens a native library.
type OpenFunc = native.OpenFunc

// Loader opens native libraries once per path.
type Loader = native.Loader

// NewLoader creates a Loader that checks libraries against abiVersion
// (zero disables the check).
func NewLoader(abiVersion int32, log zerolog.Logger) *Loader {
	return native.NewLoader(native.WithABIVersion(abiVersion), native.WithLogger(log))
}

// Option configures Open and Build.
type Option func(*options)

type options struct {
	log    zerolog.Logger
	runner Runner
	open   OpenFunc
	loader *native.Loader
	par    parallel.Config
}

func newOptions(opts []Option) options {
	o := options{
		log: zerolog.Nop(),
		par: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for bootstrap, library loading and dispatch.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithRunner replaces the build command from the config.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithLibraryOpener replaces the FFI loader used to open native libraries.
func WithLibraryOpener(open OpenFunc) Option {
	return func(o *options) {
		o.open = open
	}
}

// WithLoader shares a library loader between runtimes, so each library is
// opened once per process rather than once per runtime.
func WithLoader(l *Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithWorkers sets how many goroutines the builtin kernels split work across.
// One or fewer runs them on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 1 {
			o.par = parallel.Sequential()
			return
		}
		o.par = parallel.DefaultConfig()
		o.par.Enabled = true
		o.par.NumWorkers = n
	}
}

// OpOption overrides an attribute of a bound operator.
type OpOption func(customop.Attributes)

// WithSlope sets the Fast Sigmoid slope k.
func WithSlope(k float64) OpOption {
	return func(a customop.Attributes) {
		a[kernels.AttrSlope] = k
	}
}

// WithThreshold sets the firing threshold.
func WithThreshold(v float64) OpOption {
	return func(a customop.Attributes) {
		a[kernels.AttrThreshold] = v
	}
}
