package domain_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/chatstream/internal/domain"
)

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func gpt4Calculator(t *testing.T) domain.CostCalculator {
	t.Helper()

	registry := domain.NewInMemoryPricingRegistry()
	require.NoError(t, registry.RegisterPricing(context.Background(), "gpt-4", domain.PricingConfig{
		InputCostPer1K:  0.03,
		OutputCostPer1K: 0.06,
	}))
	return domain.NewStandardCostCalculator(registry)
}

func TestMetricsCollector(t *testing.T) {
	ctx := context.Background()

	t.Run("should compute response time, usage and cost", func(t *testing.T) {
		clock := newFakeClock()
		collector := domain.NewMetricsCollector(gpt4Calculator(t), clock.Now)

		collector.Start()
		clock.Advance(1500 * time.Millisecond)
		collector.SetUsage(domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})

		metrics, err := collector.Finalize(ctx, "gpt-4")
		require.NoError(t, err)

		require.Equal(t, 1500*time.Millisecond, metrics.ResponseTime)
		require.Equal(t, 30, metrics.Tokens.TotalTokens)
		require.InDelta(t, 0.0015, metrics.EstimatedCost, 1e-12)
		require.Nil(t, metrics.TimeToFirstToken)
	})

	t.Run("should record time to first token once", func(t *testing.T) {
		clock := newFakeClock()
		collector := domain.NewMetricsCollector(nil, clock.Now)
		collector.Start()

		clock.Advance(100 * time.Millisecond)
		require.Nil(t, collector.ObserveFragment(""))

		clock.Advance(100 * time.Millisecond)
		first := collector.ObserveFragment("Hi")
		require.NotNil(t, first)
		require.Equal(t, 200*time.Millisecond, *first)

		clock.Advance(time.Second)
		again := collector.ObserveFragment(" there")
		require.Equal(t, 200*time.Millisecond, *again)
		require.Equal(t, 200*time.Millisecond, *collector.TimeToFirstToken())
	})

	t.Run("should keep the last usage record", func(t *testing.T) {
		collector := domain.NewMetricsCollector(gpt4Calculator(t), nil)
		collector.Start()

		collector.SetUsage(domain.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2})
		collector.SetUsage(domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})

		metrics, err := collector.Finalize(ctx, "gpt-4")
		require.NoError(t, err)
		require.Equal(t, domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, metrics.Tokens)
	})

	t.Run("should default to zero usage", func(t *testing.T) {
		collector := domain.NewMetricsCollector(gpt4Calculator(t), nil)
		collector.Start()

		metrics, err := collector.Finalize(ctx, "gpt-4")
		require.NoError(t, err)
		require.Equal(t, domain.Usage{}, metrics.Tokens)
		require.Zero(t, metrics.EstimatedCost)
	})

	t.Run("should charge nothing for unknown models", func(t *testing.T) {
		collector := domain.NewMetricsCollector(gpt4Calculator(t), nil)
		collector.Start()
		collector.SetUsage(domain.Usage{PromptTokens: 1000, CompletionTokens: 1000, TotalTokens: 2000})

		metrics, err := collector.Finalize(ctx, "mystery-model")
		require.NoError(t, err)
		require.Zero(t, metrics.EstimatedCost)
	})

	t.Run("should finalize only once", func(t *testing.T) {
		collector := domain.NewMetricsCollector(nil, nil)
		collector.Start()

		_, err := collector.Finalize(ctx, "gpt-4")
		require.NoError(t, err)

		_, err = collector.Finalize(ctx, "gpt-4")
		require.ErrorIs(t, err, domain.ErrMetricsFinalized)
	})

	t.Run("should attach the raw response", func(t *testing.T) {
		collector := domain.NewMetricsCollector(nil, nil)
		collector.Start()
		collector.SetRawResponse([]byte(`{"id":"x"}`))

		metrics, err := collector.Finalize(ctx, "gpt-4")
		require.NoError(t, err)
		require.JSONEq(t, `{"id":"x"}`, string(metrics.RawResponse))
	})
}

func TestResponseMetrics_JSON(t *testing.T) {
	ttft := 250 * time.Millisecond
	metrics := domain.ResponseMetrics{
		Tokens:           domain.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
		ResponseTime:     1234 * time.Millisecond,
		EstimatedCost:    0.5,
		TimeToFirstToken: &ttft,
	}

	data, err := json.Marshal(metrics)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"tokens": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3},
		"response_time_ms": 1234,
		"estimated_cost": 0.5,
		"time_to_first_token_ms": 250
	}`, string(data))

	var decoded domain.ResponseMetrics
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, metrics.ResponseTime, decoded.ResponseTime)
	require.Equal(t, ttft, *decoded.TimeToFirstToken)
}
