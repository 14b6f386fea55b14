package domain

import "context"

// Upstream is an OpenAI-compatible endpoint exchanges can be sent to.
// An upstream with no Models serves any model no other upstream claims.
type Upstream struct {
	Name       string   `json:"name"`
	BaseURL    string   `json:"base_url"`
	Credential string   `json:"-"`
	Models     []string `json:"models,omitempty"`
}

// IsCatchAll reports whether u serves unclaimed models.
func (u *Upstream) IsCatchAll() bool {
	return len(u.Models) == 0
}

// UpstreamRegistry holds the configured upstreams.
type UpstreamRegistry interface {
	Register(ctx context.Context, upstream *Upstream) error
	Get(ctx context.Context, name string) (*Upstream, error)
	List(ctx context.Context) ([]string, error)
	GetByModel(ctx context.Context, model string) (*Upstream, error)
}

// UpstreamRouter picks the upstream for a model.
type UpstreamRouter interface {
	Route(ctx context.Context, model string) (*Upstream, error)
}
