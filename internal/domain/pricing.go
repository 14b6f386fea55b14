package domain

import "context"

// PricingConfig contains model pricing information.
type PricingConfig struct {
	InputCostPer1K  float64 `json:"prompt_price_per_1k"`     // USD per 1K prompt tokens
	OutputCostPer1K float64 `json:"completion_price_per_1k"` // USD per 1K completion tokens
}

// CostCalculator calculates cost based on token usage.
type CostCalculator interface {
	// Calculate returns the total cost for a given model and usage.
	Calculate(ctx context.Context, model string, usage Usage) (float64, error)
}

// PricingRegistry maintains pricing information for models.
type PricingRegistry interface {
	// GetPricing returns pricing config for a model.
	GetPricing(ctx context.Context, model string) (PricingConfig, error)

	// RegisterPricing adds pricing for a model.
	RegisterPricing(ctx context.Context, model string, config PricingConfig) error

	// Merge overlays a partial table onto the current one.
	Merge(ctx context.Context, table map[string]PricingConfig) error

	// Snapshot returns a copy of the full table.
	Snapshot(ctx context.Context) map[string]PricingConfig
}
