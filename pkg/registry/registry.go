// Copyright 2025 Certen Protocol
//
// Chain Handler Registry — process-wide mapping from chainName to the
// Handler that talks to that destination chain (spec §4.2, Design Note 9).
// Built once at startup in the composition root and thereafter read-only in
// practice; the mutex exists to make concurrent reads from the scheduler's
// task goroutines and the HTTP surface safe, not because registration
// happens after startup.

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/certen/tbtc-relayer/pkg/chainhandler"
)

// Registry maps a unique chainName to its Handler. Lookup is exact-case
// (spec §6.2).
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]chainhandler.Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]chainhandler.Handler)}
}

// Register adds a handler under chainName. Registering a duplicate
// chainName is a configuration error, not a runtime one — callers should
// only register once, at startup.
func (r *Registry) Register(chainName string, h chainhandler.Handler) error {
	if chainName == "" {
		return fmt.Errorf("registry: chainName cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("registry: handler for %q cannot be nil", chainName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[chainName]; exists {
		return fmt.Errorf("registry: handler already registered for chain %q", chainName)
	}
	r.handlers[chainName] = h
	return nil
}

// Get retrieves the handler registered for chainName. The bool is false if
// no handler is registered under that exact name.
func (r *Registry) Get(chainName string) (chainhandler.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[chainName]
	return h, ok
}

// ChainNames returns every registered chain name, sorted, so callers that
// iterate (the scheduler's Process/PastDeposits tasks) see deterministic
// ordering across ticks even though the spec does not require it.
func (r *Registry) ChainNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each calls fn for every registered handler, in ChainNames order. Errors
// returned by fn are collected and returned as a slice rather than aborting
// the remaining handlers, so one chain's failure never blocks another's
// sweep (spec §4.6: "every task catches and logs all errors").
func (r *Registry) Each(fn func(chainName string, h chainhandler.Handler) error) []error {
	var errs []error
	for _, name := range r.ChainNames() {
		h, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := fn(name, h); err != nil {
			errs = append(errs, fmt.Errorf("chain %q: %w", name, err))
		}
	}
	return errs
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
