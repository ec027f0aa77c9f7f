// Package plugin holds the fixed set of capability plugins the shell exposes
// to the front-end.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Plugin is a named capability with an init/close lifecycle.
type Plugin interface {
	Name() string
	Init(ctx context.Context) error
	Close() error
}

// Registry keeps plugins in registration order.
type Registry struct {
	mu      sync.Mutex
	plugins []Plugin
	inited  int
}

func NewRegistry() *Registry { return &Registry{} }

// Register adds p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.plugins {
		if q.Name() == p.Name() {
			return fmt.Errorf("plugin %q already registered", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Names returns plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		out[i] = p.Name()
	}
	return out
}

// Get looks a plugin up by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// InitAll initialises plugins in order and stops at the first failure.
// Plugins initialised before the failure are still closed by CloseAll.
func (r *Registry) InitAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := r.inited; i < len(r.plugins); i++ {
		p := r.plugins[i]
		if err := p.Init(ctx); err != nil {
			return fmt.Errorf("init plugin %s: %w", p.Name(), err)
		}
		r.inited = i + 1
	}
	return nil
}

// CloseAll closes initialised plugins in reverse order and joins the errors.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for i := r.inited - 1; i >= 0; i-- {
		p := r.plugins[i]
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close plugin %s: %w", p.Name(), err))
		}
	}
	r.inited = 0
	return errors.Join(errs...)
}
