package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// MetricsCollector accumulates timings and token counts for one exchange.
// It is not safe for concurrent use; each exchange owns its own collector.
type MetricsCollector struct {
	costCalculator CostCalculator
	now            Clock

	start     time.Time
	ttft      *time.Duration
	usage     *Usage
	raw       json.RawMessage
	finalized bool
}

// NewMetricsCollector creates a collector. A nil clock means time.Now.
func NewMetricsCollector(costCalculator CostCalculator, clock Clock) *MetricsCollector {
	if clock == nil {
		clock = time.Now
	}
	return &MetricsCollector{
		costCalculator: costCalculator,
		now:            clock,
	}
}

// Start records the beginning of the exchange.
func (m *MetricsCollector) Start() {
	m.start = m.now()
}

// ObserveFragment records time-to-first-token on the first non-empty
// fragment and returns the fixed value from then on.
func (m *MetricsCollector) ObserveFragment(fragment string) *time.Duration {
	if fragment != "" && m.ttft == nil {
		ttft := m.now().Sub(m.start)
		m.ttft = &ttft
	}
	return m.ttft
}

// TimeToFirstToken returns the recorded TTFT, if any.
func (m *MetricsCollector) TimeToFirstToken() *time.Duration {
	return m.ttft
}

// SetUsage stores the latest usage record; later calls replace earlier ones.
func (m *MetricsCollector) SetUsage(usage Usage) {
	m.usage = &usage
}

// SetRawResponse attaches the raw upstream body to the metrics.
func (m *MetricsCollector) SetRawResponse(raw []byte) {
	m.raw = json.RawMessage(raw)
}

// Finalize produces the metrics record. It may be called only once.
func (m *MetricsCollector) Finalize(ctx context.Context, model string) (*ResponseMetrics, error) {
	if m.finalized {
		return nil, ErrMetricsFinalized
	}
	m.finalized = true

	usage := Usage{}
	if m.usage != nil {
		usage = *m.usage
	}

	cost := 0.0
	if m.costCalculator != nil {
		cost, _ = m.costCalculator.Calculate(ctx, model, usage)
	}

	return &ResponseMetrics{
		Tokens:           usage,
		ResponseTime:     m.now().Sub(m.start),
		EstimatedCost:    cost,
		TimeToFirstToken: m.ttft,
		RawResponse:      m.raw,
	}, nil
}
