package telemetry_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/telemetry"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := telemetry.NewRecorder(reg)
	require.NoError(t, err)

	ttft := 300 * time.Millisecond
	recorder.RecordCompletion("gpt-4", true, &domain.ResponseMetrics{
		Tokens:           domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		ResponseTime:     2 * time.Second,
		EstimatedCost:    0.0015,
		TimeToFirstToken: &ttft,
	})
	recorder.RecordCompletion("gpt-4", false, &domain.ResponseMetrics{
		Tokens:        domain.Usage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
		ResponseTime:  time.Second,
		EstimatedCost: 0.0005,
	})
	recorder.RecordFailure("gpt-4", true, domain.KindAborted)
	recorder.RecordFailure("gpt-4", true, domain.KindRateLimit)

	expected := `
# HELP chatstream_exchanges_total Chat exchanges by model, mode and outcome (complete or error kind).
# TYPE chatstream_exchanges_total counter
chatstream_exchanges_total{model="gpt-4",outcome="aborted",stream="true"} 1
chatstream_exchanges_total{model="gpt-4",outcome="complete",stream="false"} 1
chatstream_exchanges_total{model="gpt-4",outcome="complete",stream="true"} 1
chatstream_exchanges_total{model="gpt-4",outcome="rate_limit",stream="true"} 1
# HELP chatstream_tokens_total Tokens consumed per model, split by prompt and completion.
# TYPE chatstream_tokens_total counter
chatstream_tokens_total{model="gpt-4",type="completion"} 25
chatstream_tokens_total{model="gpt-4",type="prompt"} 15
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"chatstream_exchanges_total", "chatstream_tokens_total"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		switch family.GetName() {
		case "chatstream_estimated_cost_usd_total":
			found = true
			require.InDelta(t, 0.002, family.GetMetric()[0].GetCounter().GetValue(), 1e-12)
		case "chatstream_time_to_first_token_seconds":
			require.Equal(t, uint64(1), family.GetMetric()[0].GetHistogram().GetSampleCount())
		case "chatstream_response_time_seconds":
			require.Len(t, family.GetMetric(), 2)
		}
	}
	require.True(t, found)
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := telemetry.NewRecorder(reg)
	require.NoError(t, err)

	_, err = telemetry.NewRecorder(reg)
	require.Error(t, err)
}
