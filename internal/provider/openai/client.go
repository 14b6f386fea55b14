// Package openai implements the chat completion client for OpenAI-compatible
// gateways: request validation, the blocking and streaming exchanges, metrics
// and error classification.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/observability"
)

const (
	completionsPath   = "/v1/chat/completions"
	defaultTimeout    = 30 * time.Second
	maxErrorBodyBytes = 64 << 10
	tracerName        = "github.com/davidbz/chatstream/internal/provider/openai"
)

// chatRequest is the wire body: the caller's request plus stream flags.
type chatRequest struct {
	*domain.CompletionRequest

	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// Client implements domain.CompletionClient over net/http.
// It holds no per-exchange state; concurrent exchanges are independent.
type Client struct {
	httpClient         *http.Client
	validator          *domain.RequestValidator
	classifier         *domain.ErrorClassifier
	costCalculator     domain.CostCalculator
	clock              domain.Clock
	tracer             trace.Tracer
	timeout            time.Duration
	maxMalformedFrames int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock replaces time.Now for metrics.
func WithClock(clock domain.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// NewClient creates a new completion client.
func NewClient(config Config, costCalculator domain.CostCalculator, opts ...Option) *Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		// Timeouts come from the cancellation token, not the transport.
		httpClient:         &http.Client{},
		validator:          domain.NewRequestValidator(config.ValidationLimits()),
		classifier:         domain.NewErrorClassifier(),
		costCalculator:     costCalculator,
		clock:              time.Now,
		tracer:             otel.Tracer(tracerName),
		timeout:            timeout,
		maxMalformedFrames: config.MaxMalformedFrames,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SendCompletion performs a blocking exchange and returns the response with
// its metrics. Every failure is a *domain.ChatError.
func (c *Client) SendCompletion(
	ctx context.Context,
	endpointBase, credential string,
	req *domain.CompletionRequest,
) (*domain.CompletionResult, error) {
	if err := c.validator.Validate(req); err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, req, false)
	defer span.End()

	token := domain.NewTimeoutToken(ctx, c.timeout)
	defer token.Release()

	collector := domain.NewMetricsCollector(c.costCalculator, c.clock)
	collector.Start()

	result, err := c.complete(token, endpointBase, credential, req, collector)
	if err != nil {
		return nil, c.fail(ctx, span, c.fault(token, err))
	}

	span.SetAttributes(
		attribute.Int("llm.usage.total_tokens", result.Metrics.Tokens.TotalTokens),
		attribute.Float64("llm.cost", result.Metrics.EstimatedCost),
	)

	observability.FromContext(ctx).Debug("completion succeeded",
		observability.Int("prompt_tokens", result.Metrics.Tokens.PromptTokens),
		observability.Int("completion_tokens", result.Metrics.Tokens.CompletionTokens),
		observability.Duration("response_time", result.Metrics.ResponseTime),
	)

	return result, nil
}

func (c *Client) complete(
	token *domain.CancellationToken,
	endpointBase, credential string,
	req *domain.CompletionRequest,
	collector *domain.MetricsCollector,
) (*domain.CompletionResult, error) {
	ctx := token.Context()

	resp, err := c.post(ctx, endpointBase, credential, chatRequest{CompletionRequest: req})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var completion sdk.ChatCompletion
	if decodeErr := json.Unmarshal(body, &completion); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	response := toDomainResponse(&completion)
	collector.SetUsage(response.Usage)
	collector.SetRawResponse(body)

	metrics, err := collector.Finalize(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	return &domain.CompletionResult{
		Response: response,
		Metrics:  metrics,
	}, nil
}

// post issues the request and returns the response only for 2xx statuses;
// anything else is read, closed and classified.
func (c *Client) post(
	ctx context.Context,
	endpointBase, credential string,
	body chatRequest,
) (*http.Response, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		completionsURL(endpointBase),
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		_ = resp.Body.Close()
		return nil, c.classifier.ClassifyStatus(resp.StatusCode, errBody)
	}

	return resp, nil
}

// fault classifies err, preferring the token's cause once it has fired so a
// cancelled read is never reported as a transport fault.
func (c *Client) fault(token *domain.CancellationToken, err error) *domain.ChatError {
	if chatErr, ok := domain.AsChatError(err); ok {
		return chatErr
	}
	if token.IsCancelled() {
		return c.classifier.ClassifyFault(token.Cause())
	}
	return c.classifier.ClassifyFault(err)
}

func (c *Client) startSpan(ctx context.Context, req *domain.CompletionRequest, stream bool) (context.Context, trace.Span) {
	ctx = observability.WithModel(ctx, req.Model)
	return c.tracer.Start(ctx, "chat.completion", trace.WithAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Bool("llm.stream", stream),
		attribute.Int("llm.messages", len(req.Messages)),
	))
}

func (c *Client) fail(ctx context.Context, span trace.Span, chatErr *domain.ChatError) *domain.ChatError {
	span.SetAttributes(attribute.String("chat.error.kind", string(chatErr.Kind)))

	logger := observability.FromContext(ctx)
	if chatErr.Kind == domain.KindAborted {
		logger.Info("exchange aborted")
		return chatErr
	}

	span.SetStatus(codes.Error, chatErr.Message)
	span.RecordError(chatErr)
	logger.Warn("exchange failed",
		observability.String("kind", string(chatErr.Kind)),
		observability.Int("status", chatErr.StatusCode),
		observability.Bool("retryable", chatErr.Retryable),
		observability.Error(chatErr),
	)
	return chatErr
}

func completionsURL(endpointBase string) string {
	return strings.TrimRight(endpointBase, "/") + completionsPath
}

// toDomainResponse converts SDK response to domain response.
func toDomainResponse(resp *sdk.ChatCompletion) *domain.CompletionResponse {
	content := ""
	finishReason := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &domain.CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      content,
		FinishReason: finishReason,
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}
