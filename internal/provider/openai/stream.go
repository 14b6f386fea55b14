package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/observability"
	"github.com/davidbz/chatstream/internal/sse"
)

const readBufferSize = 4096

// SendStreamingCompletion performs a streaming exchange. Content is delivered
// through handler.OnChunk as it arrives and handler.OnComplete runs once on
// the terminal [DONE] frame. A nil token gets the configured timeout.
//
// Cancelling the token yields a KindAborted error; content already delivered
// through OnChunk stands.
func (c *Client) SendStreamingCompletion(
	ctx context.Context,
	endpointBase, credential string,
	req *domain.CompletionRequest,
	handler domain.StreamHandler,
	token *domain.CancellationToken,
) error {
	if err := c.validator.Validate(req); err != nil {
		return err
	}

	ctx, span := c.startSpan(ctx, req, true)
	defer span.End()

	if token == nil {
		token = domain.NewTimeoutToken(ctx, c.timeout)
		defer token.Release()
	}

	if token.IsCancelled() {
		return c.fail(ctx, span, c.fault(token, token.Cause()))
	}

	collector := domain.NewMetricsCollector(c.costCalculator, c.clock)
	collector.Start()

	resp, err := c.post(token.Context(), endpointBase, credential, chatRequest{
		CompletionRequest: req,
		Stream:            true,
		StreamOptions:     &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return c.fail(ctx, span, c.fault(token, err))
	}

	state := &streamState{
		model:     req.Model,
		collector: collector,
		handler:   handler,
	}

	if err = c.consumeStream(ctx, token, resp.Body, state); err != nil {
		return c.fail(ctx, span, c.fault(token, err))
	}

	span.SetAttributes(
		attribute.Int("llm.stream.frames", state.frames),
		attribute.Int("llm.stream.malformed_frames", state.malformed),
	)
	return nil
}

// streamState is owned by a single exchange.
type streamState struct {
	model     string
	collector *domain.MetricsCollector
	handler   domain.StreamHandler

	content   strings.Builder
	frames    int
	malformed int
}

// consumeStream runs the decode loop until [DONE], a fault or cancellation.
// The body is closed on every exit path.
func (c *Client) consumeStream(
	ctx context.Context,
	token *domain.CancellationToken,
	body io.ReadCloser,
	state *streamState,
) error {
	defer body.Close()

	lines := sse.NewLineBuffer()
	buf := make([]byte, readBufferSize)

	for {
		if token.IsCancelled() {
			return token.Cause()
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range lines.Feed(buf[:n]) {
				done, err := c.handleLine(ctx, line, state)
				if err != nil || done {
					return err
				}
			}
		}

		if readErr == nil {
			continue
		}

		if token.IsCancelled() {
			return token.Cause()
		}

		if errors.Is(readErr, io.EOF) {
			if line, ok := lines.Flush(); ok {
				done, err := c.handleLine(ctx, line, state)
				if err != nil || done {
					return err
				}
			}
			return domain.ErrStreamTruncated
		}

		return fmt.Errorf("failed to read stream: %w", readErr)
	}
}

// handleLine processes one complete line and reports whether the stream ended.
func (c *Client) handleLine(ctx context.Context, line string, state *streamState) (bool, error) {
	payload, ok := sse.Payload(line)
	if !ok {
		return false, nil
	}
	state.frames++

	if payload == sse.DoneToken {
		metrics, err := state.collector.Finalize(ctx, state.model)
		if err != nil {
			return false, err
		}

		observability.FromContext(ctx).Debug("stream completed",
			observability.Int("frames", state.frames),
			observability.Int("total_tokens", metrics.Tokens.TotalTokens),
			observability.DurationPtr("ttft", metrics.TimeToFirstToken),
		)

		if state.handler.OnComplete != nil {
			state.handler.OnComplete(metrics)
		}
		return true, nil
	}

	chunk, err := domain.ParseChunk([]byte(payload))
	if err != nil {
		state.malformed++
		observability.FromContext(ctx).Warn("skipping malformed stream frame",
			observability.Error(err),
			observability.Int("malformed_frames", state.malformed),
		)

		if c.maxMalformedFrames > 0 && state.malformed > c.maxMalformedFrames {
			return false, &domain.ChatError{
				Kind:      domain.KindAPI,
				Message:   "Received too many malformed stream frames",
				Retryable: true,
				Details:   map[string]any{"malformed_frames": state.malformed},
			}
		}
		return false, nil
	}

	ttft := state.collector.ObserveFragment(chunk.Content)

	if chunk.Content != "" {
		state.content.WriteString(chunk.Content)
		state.emit(false, ttft)
	}

	if chunk.Usage != nil {
		state.collector.SetUsage(*chunk.Usage)
	}

	if chunk.FinishReason != "" {
		state.emit(true, ttft)
	}

	return false, nil
}

func (s *streamState) emit(complete bool, ttft *time.Duration) {
	if s.handler.OnChunk != nil {
		s.handler.OnChunk(s.content.String(), complete, ttft)
	}
}
