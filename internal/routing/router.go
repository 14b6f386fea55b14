package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/chatstream/internal/domain"
)

// SimpleRouter routes by model through the upstream registry.
type SimpleRouter struct {
	registry domain.UpstreamRegistry
}

// NewRouter creates a new router.
func NewRouter(registry domain.UpstreamRegistry) *SimpleRouter {
	return &SimpleRouter{
		registry: registry,
	}
}

// Route selects the upstream for model.
func (r *SimpleRouter) Route(ctx context.Context, model string) (*domain.Upstream, error) {
	if model == "" {
		return nil, errors.New("model name is required")
	}

	names, err := r.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list upstreams: %w", err)
	}

	if len(names) == 0 {
		return nil, errors.New("no upstreams available")
	}

	upstream, err := r.registry.GetByModel(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to route model %s: %w", model, err)
	}

	return upstream, nil
}
