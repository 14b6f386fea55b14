package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/davidbz/chatstream/internal/domain"
)

// Registry implements the UpstreamRegistry interface.
type Registry struct {
	mu              sync.RWMutex
	upstreams       map[string]*domain.Upstream
	order           []string
	modelToUpstream map[string]string
}

// NewRegistry creates a new upstream registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:              sync.RWMutex{},
		upstreams:       make(map[string]*domain.Upstream),
		modelToUpstream: make(map[string]string),
	}
}

// Register adds an upstream to the registry.
func (r *Registry) Register(_ context.Context, upstream *domain.Upstream) error {
	if upstream == nil {
		return errors.New("upstream cannot be nil")
	}
	if upstream.Name == "" {
		return errors.New("upstream name cannot be empty")
	}
	if upstream.BaseURL == "" {
		return fmt.Errorf("upstream %s has no base URL", upstream.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.upstreams[upstream.Name]; exists {
		return fmt.Errorf("upstream %s already registered", upstream.Name)
	}

	for _, model := range upstream.Models {
		if owner, claimed := r.modelToUpstream[model]; claimed {
			return fmt.Errorf("model %s already served by upstream %s", model, owner)
		}
	}

	r.upstreams[upstream.Name] = upstream
	r.order = append(r.order, upstream.Name)
	for _, model := range upstream.Models {
		r.modelToUpstream[model] = upstream.Name
	}

	return nil
}

// Get retrieves an upstream by name.
func (r *Registry) Get(_ context.Context, name string) (*domain.Upstream, error) {
	if name == "" {
		return nil, errors.New("upstream name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	upstream, exists := r.upstreams[name]
	if !exists {
		return nil, fmt.Errorf("upstream %s not found", name)
	}

	return upstream, nil
}

// List returns upstream names in registration order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names, nil
}

// GetByModel returns the upstream that claims model, or the first
// registered catch-all.
func (r *Registry) GetByModel(_ context.Context, model string) (*domain.Upstream, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, exists := r.modelToUpstream[model]; exists {
		return r.upstreams[name], nil
	}

	for _, name := range r.order {
		if upstream := r.upstreams[name]; upstream.IsCatchAll() {
			return upstream, nil
		}
	}

	return nil, fmt.Errorf("no upstream found for model: %s", model)
}
