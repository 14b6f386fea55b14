package domain

import (
	"context"
	"errors"
)

const tokensPerPricingUnit = 1000.0

// StandardCostCalculator prices usage from the per-1K rates in a
// PricingRegistry. Rates are read on every call, so merged updates apply to
// the next finalized exchange.
type StandardCostCalculator struct {
	pricing PricingRegistry
}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator(registry PricingRegistry) *StandardCostCalculator {
	return &StandardCostCalculator{
		pricing: registry,
	}
}

// Calculate returns the estimated USD cost of usage on model. A model with
// no registered pricing costs 0.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	model string,
	usage Usage,
) (float64, error) {
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	rates, err := c.pricing.GetPricing(ctx, model)
	if err != nil {
		//nolint:nilerr // Unpriced models (local gateways, echo) report zero cost
		return 0, nil
	}

	prompt := float64(usage.PromptTokens) / tokensPerPricingUnit * rates.InputCostPer1K
	completion := float64(usage.CompletionTokens) / tokensPerPricingUnit * rates.OutputCostPer1K

	return prompt + completion, nil
}
