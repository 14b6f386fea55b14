// Package echo provides an OpenAI-compatible upstream that echoes the last
// user message back, word by word when streaming. It makes no external calls
// and gives deterministic responses for development and tests.
package echo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/observability"
	"github.com/davidbz/chatstream/internal/sse"
)

const (
	// ModelName is the only model the echo upstream serves.
	ModelName = "echo4"

	defaultChunkDelay = 10 * time.Millisecond
)

type request struct {
	Model         string           `json:"model"`
	Messages      []domain.Message `json:"messages"`
	Stream        bool             `json:"stream"`
	StreamOptions *struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Server implements POST /v1/chat/completions.
type Server struct {
	chunkDelay time.Duration
	now        func() time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithChunkDelay sets the pause between streamed words.
func WithChunkDelay(d time.Duration) Option {
	return func(s *Server) {
		s.chunkDelay = d
	}
}

// NewServer creates a new echo upstream.
func NewServer(opts ...Option) *Server {
	s := &Server{
		chunkDelay: defaultChunkDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the upstream routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", s.handleCompletions)
	return mux
}

// RegisterPricing registers echo model pricing with the registry.
// Echo models have zero cost as they are for testing purposes only.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	if err := registry.RegisterPricing(ctx, ModelName, domain.PricingConfig{}); err != nil {
		return fmt.Errorf("failed to register echo pricing: %w", err)
	}
	return nil
}

func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	if strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer")) == "" {
		writeError(w, http.StatusUnauthorized, "invalid_api_key", "missing bearer credential")
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.Model != ModelName {
		writeError(w, http.StatusNotFound, "model_not_found",
			fmt.Sprintf("model %s is not supported by echo provider", req.Model))
		return
	}

	content := lastUserContent(req.Messages)
	promptTokens := 0
	for _, msg := range req.Messages {
		promptTokens += countTokens(msg.Content)
	}
	completionTokens := countTokens(content)
	u := usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}

	id := fmt.Sprintf("echo-%d", s.now().UnixNano())
	logger.Debug("echoing request",
		observability.Bool("stream", req.Stream),
		observability.Int("completion_tokens", completionTokens),
	)

	if !req.Stream {
		s.writeCompletion(w, id, content, u)
		return
	}

	includeUsage := req.StreamOptions != nil && req.StreamOptions.IncludeUsage
	s.writeStream(ctx, w, id, content, u, includeUsage)
}

func (s *Server) writeCompletion(w http.ResponseWriter, id, content string, u usage) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      id,
		"object":  "chat.completion",
		"created": s.now().Unix(),
		"model":   ModelName,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": u,
	})
}

func (s *Server) writeStream(ctx context.Context, w http.ResponseWriter, id, content string, u usage, includeUsage bool) {
	out := sse.NewWriter(w)
	created := s.now().Unix()

	chunk := func(delta map[string]any, finishReason any) map[string]any {
		return map[string]any{
			"id":      id,
			"object":  "chat.completion.chunk",
			"created": created,
			"model":   ModelName,
			"choices": []map[string]any{{
				"index":         0,
				"delta":         delta,
				"finish_reason": finishReason,
			}},
		}
	}

	if err := out.WriteData(chunk(map[string]any{"role": "assistant"}, nil)); err != nil {
		return
	}

	// Stream each word with a small delay
	words := strings.Fields(content)
	for i, word := range words {
		delta := word
		if i < len(words)-1 {
			delta += " "
		}

		if err := out.WriteData(chunk(map[string]any{"content": delta}, nil)); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.chunkDelay):
		}
	}

	if err := out.WriteData(chunk(map[string]any{}, "stop")); err != nil {
		return
	}

	if includeUsage {
		if err := out.WriteData(map[string]any{
			"id":      id,
			"object":  "chat.completion.chunk",
			"created": created,
			"model":   ModelName,
			"choices": []any{},
			"usage":   u,
		}); err != nil {
			return
		}
	}

	out.WriteDone()
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"message": message,
			"type":    code,
		},
	})
}

func lastUserContent(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	return len(strings.Fields(content))
}
