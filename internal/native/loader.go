package native

import (
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Loader acquires native libraries once per path and keeps them for the
// lifetime of the process. It is safe for concurrent use.
type Loader struct {
	mu   sync.Mutex
	libs map[string]Library

	open       OpenFunc
	abiVersion int32
	log        zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOpenFunc replaces the goffi-backed opener.
func WithOpenFunc(open OpenFunc) LoaderOption {
	return func(l *Loader) {
		l.open = open
	}
}

// WithABIVersion makes Acquire reject libraries whose snn_abi_version differs.
// Zero disables the check.
func WithABIVersion(v int32) LoaderOption {
	return func(l *Loader) {
		l.abiVersion = v
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		libs: make(map[string]Library),
		open: Open,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire returns the library at path, loading it on first use.
// A missing, unloadable or ABI-incompatible file yields a *ResourceError.
// Failed loads are not cached, so a later call may succeed after a rebuild.
func (l *Loader) Acquire(path string) (Library, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lib, ok := l.libs[path]; ok {
		return lib, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &ResourceError{Resource: "library", Path: path, Err: err}
	}

	lib, err := l.open(path)
	if err != nil {
		return nil, &ResourceError{Resource: "library", Path: path, Err: err}
	}

	if l.abiVersion != 0 {
		got, err := lib.ABIVersion()
		if err != nil {
			return nil, &ResourceError{Resource: "library", Path: path, Err: err}
		}
		if got != l.abiVersion {
			return nil, &ResourceError{
				Resource: "library",
				Path:     path,
				Err:      errors.Wrapf(ErrABIMismatch, "want %d, got %d", l.abiVersion, got),
			}
		}
	}

	l.libs[path] = lib
	l.log.Info().Str("path", path).Msg("loaded native operator library")
	return lib, nil
}

// Loaded returns the paths of all acquired libraries, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	paths := make([]string, 0, len(l.libs))
	for p := range l.libs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
