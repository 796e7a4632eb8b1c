package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/born-ml/snn/internal/native"
)

// MissingError lists the artifacts still absent after a build attempt.
type MissingError struct {
	Missing  []Artifact
	BuildErr error // nil when the build tool exited cleanly
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, a := range e.Missing {
		names[i] = string(a)
	}
	msg := fmt.Sprintf("missing after build: %s", strings.Join(names, ", "))
	if e.BuildErr != nil {
		msg += fmt.Sprintf(" (build failed: %v)", e.BuildErr)
	}
	return msg
}

// Unwrap returns the build error, if any.
func (e *MissingError) Unwrap() error {
	return e.BuildErr
}

// Result describes what Ensure did.
type Result struct {
	Status Status
	// Built is true when this call ran the build tool.
	Built bool
}

// Builder checks for the operator libraries and builds them when missing.
type Builder struct {
	installDir string
	recipeDir  string
	artifacts  []Artifact
	runner     Runner
	log        zerolog.Logger
}

// builds holds one singleflight group per recipe directory, so every Builder
// in the process pointing at the same recipe shares a single build.
var builds = struct {
	sync.Mutex
	groups map[string]*singleflight.Group
}{groups: make(map[string]*singleflight.Group)}

// recipeKey normalizes a recipe directory for use as a build key.
func recipeKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

func buildGroup(key string) *singleflight.Group {
	builds.Lock()
	defer builds.Unlock()

	g, ok := builds.groups[key]
	if !ok {
		g = new(singleflight.Group)
		builds.groups[key] = g
	}
	return g
}

// Option configures a Builder.
type Option func(*Builder)

// WithRunner replaces the build runner (make by default).
func WithRunner(r Runner) Option {
	return func(b *Builder) {
		b.runner = r
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// New creates a Builder for artifacts under installDir produced by the recipe
// in recipeDir. A relative recipeDir is resolved against installDir.
func New(installDir, recipeDir string, artifacts []Artifact, opts ...Option) *Builder {
	if !filepath.IsAbs(recipeDir) {
		recipeDir = filepath.Join(installDir, recipeDir)
	}
	b := &Builder{
		installDir: installDir,
		recipeDir:  recipeDir,
		artifacts:  append([]Artifact(nil), artifacts...),
		runner:     MakeRunner(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RecipeDir returns the directory passed to the build tool.
func (b *Builder) RecipeDir() string {
	return b.recipeDir
}

// Status reports which artifacts are present right now.
func (b *Builder) Status() Status {
	return Check(b.installDir, b.artifacts)
}

// Ensure returns once every artifact exists, running the build at most once
// across concurrent callers of any Builder for the same recipe directory.
// If the artifacts are still missing afterwards it returns a
// *native.ResourceError wrapping a *MissingError.
func (b *Builder) Ensure(ctx context.Context) (Result, error) {
	if st := b.Status(); st.Complete() {
		return Result{Status: st}, nil
	}

	key := recipeKey(b.recipeDir)
	v, err, shared := buildGroup(key).Do(key, func() (any, error) {
		return b.build(ctx)
	})
	if !shared {
		res, _ := v.(Result)
		return res, err
	}

	// Another Builder ran the build; judge it against our own artifacts.
	st := b.Status()
	switch {
	case st.Complete():
		return Result{Status: st}, nil
	case err != nil:
		return Result{Status: st}, err
	default:
		return Result{Status: st}, b.missing(st, nil)
	}
}

func (b *Builder) missing(st Status, buildErr error) error {
	return &native.ResourceError{
		Resource: "artifacts",
		Path:     b.installDir,
		Err:      &MissingError{Missing: st.Missing, BuildErr: buildErr},
	}
}

func (b *Builder) build(ctx context.Context) (Result, error) {
	if info, err := os.Stat(b.recipeDir); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.Errorf("%s is not a directory", b.recipeDir)
		}
		return Result{Status: b.Status()}, &native.ResourceError{Resource: "build recipe", Path: b.recipeDir, Err: err}
	}

	lock, err := acquireLock(ctx, filepath.Join(b.recipeDir, LockFileName))
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			b.log.Warn().Err(err).Str("lock", lock.path).Msg("releasing build lock")
		}
	}()

	// Another process may have finished the build while we waited.
	st := b.Status()
	if st.Complete() {
		return Result{Status: st}, nil
	}

	b.log.Warn().
		Strs("missing", artifactNames(st.Missing)).
		Str("recipe", b.recipeDir).
		Str("owner", lock.owner).
		Msg("operator libraries missing, building")

	buildErr := b.runner.Run(ctx, b.recipeDir)
	if buildErr != nil {
		b.log.Error().Err(buildErr).Str("recipe", b.recipeDir).Msg("build failed")
	}

	st = b.Status()
	if !st.Complete() {
		return Result{Status: st, Built: true}, b.missing(st, buildErr)
	}

	b.log.Info().Str("recipe", b.recipeDir).Msg("operator libraries built")
	return Result{Status: st, Built: true}, nil
}

func artifactNames(as []Artifact) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = string(a)
	}
	return out
}
