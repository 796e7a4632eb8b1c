package customop

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Registration is one registered operator.
type Registration struct {
	ID     OperatorID
	Kernel Kernel
	// Source names what backs the operator: a library path or "builtin".
	Source string
}

// Registry maps operator ids to kernels. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Registration),
	}
}

// Register adds an operator. A {domain, name} pair may only be backed by one
// source; registering the same source again replaces the kernel.
func (r *Registry) Register(id OperatorID, kernel Kernel, source string) error {
	if kernel == nil {
		return errors.Errorf("register %s: nil kernel", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[id.key()]; ok && prev.Source != source {
		return errors.Wrapf(ErrDuplicateOperator, "%s is backed by %s, refusing %s", id, prev.Source, source)
	}
	r.entries[id.key()] = Registration{ID: id, Kernel: kernel, Source: source}
	return nil
}

// Unregister removes an operator. It reports whether anything was removed.
func (r *Registry) Unregister(id OperatorID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id.key()]; !ok {
		return false
	}
	delete(r.entries, id.key())
	return true
}

// Lookup returns the registration for id. Version must match exactly.
func (r *Registry) Lookup(id OperatorID) (Registration, error) {
	r.mu.RLock()
	reg, ok := r.entries[id.key()]
	r.mu.RUnlock()

	if !ok {
		return Registration{}, errors.Wrapf(ErrUnknownOperator, "%s", id)
	}
	if reg.ID.Version != id.Version {
		return Registration{}, errors.Wrapf(ErrUnknownOperator, "%s (registered version %d)", id, reg.ID.Version)
	}
	return reg, nil
}

// SupportedOps returns all registrations sorted by id.
func (r *Registry) SupportedOps() []Registration {
	r.mu.RLock()
	out := lo.Values(r.entries)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
