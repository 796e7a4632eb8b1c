// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package surrogate

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/born-ml/snn/internal/autodiff"
	"github.com/born-ml/snn/internal/backend/cpu"
	"github.com/born-ml/snn/internal/bootstrap"
	"github.com/born-ml/snn/internal/config"
	"github.com/born-ml/snn/internal/customop"
	"github.com/born-ml/snn/internal/kernels"
	"github.com/born-ml/snn/internal/native"
	"github.com/born-ml/snn/internal/tensor"
)

// Config is the operator manifest.
type Config = config.Config

// Source selects what backs the operators.
type Source = config.Source

// Operator sources.
const (
	SourceNative  = config.SourceNative
	SourceBuiltin = config.SourceBuiltin
)

// DefaultConfig returns the default manifest.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML manifest over the defaults. An empty path loads the
// defaults only.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Backend is the autodiff backend operators record on.
type Backend = autodiff.AutodiffBackend[*cpu.CPUBackend]

// Descriptor describes one custom operator invocation.
type Descriptor = customop.Descriptor

// Registration is a registered operator and the source backing it.
type Registration = customop.Registration

// ArtifactStatus reports which native libraries are present.
type ArtifactStatus = bootstrap.Status

// BuildResult describes what Build did.
type BuildResult = bootstrap.Result

// ResourceError reports a native artifact that cannot be used.
type ResourceError = native.ResourceError

// ValidationError reports an invalid manifest field or operator attribute.
type ValidationError = config.ValidationError

// Errors returned by Open and operator calls.
var (
	ErrInvalid             = config.ErrInvalid
	ErrResourceUnavailable = native.ErrResourceUnavailable
	ErrUnknownOperator     = customop.ErrUnknownOperator
	ErrOutputMismatch      = customop.ErrOutputMismatch
)

// Runtime owns the operator registry, the loaded libraries and the autodiff
// backend operator calls record on. It is created by Open; nothing is loaded
// before that.
type Runtime struct {
	cfg        Config
	backend    *Backend
	registry   *customop.Registry
	dispatcher *customop.Dispatcher
	loader     *native.Loader
	defaults   map[string]customop.Attributes
	log        zerolog.Logger
}

// Open prepares the operators described by cfg.
//
// For the native source, missing libraries are built first when AutoBuild is
// set, then every library is loaded once. Any library that is missing, fails
// to load or reports another ABI version makes Open fail with an error
// matching ErrResourceUnavailable; no operator is usable in that case.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	backend := autodiff.New(cpu.New())
	registry := customop.NewRegistry()
	rt := &Runtime{
		cfg:        cfg,
		backend:    backend,
		registry:   registry,
		dispatcher: customop.NewDispatcher(registry, backend, o.log),
		defaults:   make(map[string]customop.Attributes, len(cfg.Operators)),
		log:        o.log,
	}
	for _, op := range cfg.Operators {
		rt.defaults[op.Name] = defaultAttributes(op)
	}

	switch cfg.Source {
	case config.SourceBuiltin:
		if err := kernels.Register(registry, o.par, cfg.OperatorNames()...); err != nil {
			return nil, err
		}
	case config.SourceNative:
		if err := rt.openNative(ctx, o); err != nil {
			return nil, err
		}
	}

	o.log.Info().
		Str("source", string(cfg.Source)).
		Strs("ops", cfg.OperatorNames()).
		Msg("spiking operators ready")
	return rt, nil
}

func (rt *Runtime) openNative(ctx context.Context, o options) error {
	if rt.cfg.AutoBuild {
		if _, err := build(ctx, rt.cfg, o); err != nil {
			return err
		}
	}

	rt.loader = o.loader
	if rt.loader == nil {
		loaderOpts := []native.LoaderOption{
			native.WithABIVersion(rt.cfg.ABIVersion),
			native.WithLogger(o.log),
		}
		if o.open != nil {
			loaderOpts = append(loaderOpts, native.WithOpenFunc(o.open))
		}
		rt.loader = native.NewLoader(loaderOpts...)
	}

	for _, op := range rt.cfg.Operators {
		lib, err := rt.loader.Acquire(rt.cfg.LibraryPath(op))
		if err != nil {
			return errors.WithMessagef(err, "operator %s", op.Name)
		}
		if err := native.Register(rt.registry, lib, op.Name); err != nil {
			return err
		}
	}
	return nil
}

// MustOpen is Open that logs the error and exits the process with status 1.
// Without a logger option the error goes to stderr.
func MustOpen(ctx context.Context, cfg Config, opts ...Option) *Runtime {
	rt, err := Open(ctx, cfg, opts...)
	if err != nil {
		log := newOptions(opts).log
		if log.GetLevel() == zerolog.Disabled {
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		}
		log.Fatal().Err(err).Msg("spiking operators unavailable")
	}
	return rt
}

// Build makes sure the native libraries of cfg exist, running the build
// command at most once across concurrent callers and processes.
func Build(ctx context.Context, cfg Config, opts ...Option) (BuildResult, error) {
	return build(ctx, cfg, newOptions(opts))
}

func build(ctx context.Context, cfg Config, o options) (BuildResult, error) {
	runner := o.runner
	if runner == nil {
		runner = bootstrap.CommandRunner{Command: cfg.BuildCommand, Args: cfg.BuildArgs}
	}
	b := bootstrap.New(cfg.InstallDir, cfg.RecipeDir, artifacts(cfg),
		bootstrap.WithRunner(runner),
		bootstrap.WithLogger(o.log),
	)
	return b.Ensure(ctx)
}

// Status reports which native libraries of cfg are present.
func Status(cfg Config) ArtifactStatus {
	return bootstrap.Check(cfg.InstallDir, artifacts(cfg))
}

func artifacts(cfg Config) []bootstrap.Artifact {
	return lo.Map(cfg.ArtifactPaths(), func(p string, _ int) bootstrap.Artifact {
		return bootstrap.Artifact(p)
	})
}

func defaultAttributes(op config.Operator) customop.Attributes {
	attrs := customop.Attributes{
		kernels.AttrThreshold: kernels.DefaultThreshold,
		kernels.AttrSlope:     kernels.DefaultSlope,
	}
	if op.Threshold != nil {
		attrs[kernels.AttrThreshold] = *op.Threshold
	}
	if op.Slope != nil {
		attrs[kernels.AttrSlope] = *op.Slope
	}
	return attrs
}

// Config returns the manifest the runtime was opened with.
func (rt *Runtime) Config() Config {
	return rt.cfg
}

// Backend returns the autodiff backend operator calls record on.
// Start its tape to collect gradients.
func (rt *Runtime) Backend() *Backend {
	return rt.backend
}

// Call dispatches a raw operator invocation.
func (rt *Runtime) Call(desc Descriptor) ([]*tensor.RawTensor, error) {
	return rt.dispatcher.Call(desc)
}

// SupportedOps lists the registered operators, sorted by id.
func (rt *Runtime) SupportedOps() []Registration {
	return rt.registry.SupportedOps()
}

// Loaded lists the native libraries opened by the runtime's loader.
func (rt *Runtime) Loaded() []string {
	if rt.loader == nil {
		return nil
	}
	return rt.loader.Loaded()
}
