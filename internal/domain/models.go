package domain

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// CompletionRequest represents a chat completion request sent upstream.
// Temperature and MaxTokens are optional; nil means "let the server decide".
type CompletionRequest struct {
	Model       string    `json:"model"                 validate:"required"`
	Messages    []Message `json:"messages"              validate:"required,min=1,dive"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"    validate:"oneof=user assistant system"`
	Content string `json:"content"`
}

// CompletionResponse is the condensed view of a non-streaming completion.
type CompletionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// CompletionResult pairs a completed response with its metrics.
type CompletionResult struct {
	Response *CompletionResponse `json:"response"`
	Metrics  *ResponseMetrics    `json:"metrics"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseMetrics is the telemetry of one finished exchange.
type ResponseMetrics struct {
	Tokens           Usage
	ResponseTime     time.Duration
	EstimatedCost    float64
	TimeToFirstToken *time.Duration
	RawResponse      json.RawMessage
}

type responseMetricsJSON struct {
	Tokens             Usage           `json:"tokens"`
	ResponseTimeMs     int64           `json:"response_time_ms"`
	EstimatedCost      float64         `json:"estimated_cost"`
	TimeToFirstTokenMs *int64          `json:"time_to_first_token_ms,omitempty"`
	RawResponse        json.RawMessage `json:"raw_response,omitempty"`
}

// MarshalJSON renders durations as whole milliseconds.
func (m ResponseMetrics) MarshalJSON() ([]byte, error) {
	out := responseMetricsJSON{
		Tokens:         m.Tokens,
		ResponseTimeMs: m.ResponseTime.Milliseconds(),
		EstimatedCost:  m.EstimatedCost,
		RawResponse:    m.RawResponse,
	}
	if m.TimeToFirstToken != nil {
		ttft := m.TimeToFirstToken.Milliseconds()
		out.TimeToFirstTokenMs = &ttft
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *ResponseMetrics) UnmarshalJSON(data []byte) error {
	var in responseMetricsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	m.Tokens = in.Tokens
	m.ResponseTime = time.Duration(in.ResponseTimeMs) * time.Millisecond
	m.EstimatedCost = in.EstimatedCost
	m.RawResponse = in.RawResponse
	m.TimeToFirstToken = nil
	if in.TimeToFirstTokenMs != nil {
		ttft := time.Duration(*in.TimeToFirstTokenMs) * time.Millisecond
		m.TimeToFirstToken = &ttft
	}
	return nil
}

// StreamChunk is one decoded `data:` frame of a streaming completion.
type StreamChunk struct {
	Content      string
	FinishReason string
	Usage        *Usage
}

// StreamHandler receives the incremental output of a streaming exchange.
// OnChunk always carries the full content accumulated so far.
type StreamHandler struct {
	OnChunk    func(content string, complete bool, ttft *time.Duration)
	OnComplete func(metrics *ResponseMetrics)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
