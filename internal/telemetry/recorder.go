// Package telemetry exports exchange metrics to Prometheus.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/davidbz/chatstream/internal/domain"
)

const (
	outcomeComplete = "complete"
	namespace       = "chatstream"
)

// Recorder implements domain.ExchangeRecorder.
type Recorder struct {
	exchanges    *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	cost         *prometheus.CounterVec
	responseTime *prometheus.HistogramVec
	ttft         *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchanges_total",
				Help:      "Chat exchanges by model, mode and outcome (complete or error kind).",
			},
			[]string{"model", "stream", "outcome"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens consumed per model, split by prompt and completion.",
			},
			[]string{"model", "type"},
		),
		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimated_cost_usd_total",
				Help:      "Estimated spend per model in USD.",
			},
			[]string{"model"},
		),
		responseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_time_seconds",
				Help:      "Wall-clock time from request start to completion.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"model", "stream"},
		),
		ttft: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "time_to_first_token_seconds",
				Help:      "Latency from request start to the first streamed content fragment.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"model"},
		),
	}

	for _, c := range []prometheus.Collector{r.exchanges, r.tokens, r.cost, r.responseTime, r.ttft} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RecordCompletion records a finished exchange.
func (r *Recorder) RecordCompletion(model string, stream bool, metrics *domain.ResponseMetrics) {
	mode := strconv.FormatBool(stream)

	r.exchanges.WithLabelValues(model, mode, outcomeComplete).Inc()
	r.tokens.WithLabelValues(model, "prompt").Add(float64(metrics.Tokens.PromptTokens))
	r.tokens.WithLabelValues(model, "completion").Add(float64(metrics.Tokens.CompletionTokens))
	r.cost.WithLabelValues(model).Add(metrics.EstimatedCost)
	r.responseTime.WithLabelValues(model, mode).Observe(metrics.ResponseTime.Seconds())

	if metrics.TimeToFirstToken != nil {
		r.ttft.WithLabelValues(model).Observe(metrics.TimeToFirstToken.Seconds())
	}
}

// RecordFailure records an aborted or failed exchange.
func (r *Recorder) RecordFailure(model string, stream bool, kind domain.ErrorKind) {
	r.exchanges.WithLabelValues(model, strconv.FormatBool(stream), string(kind)).Inc()
}
