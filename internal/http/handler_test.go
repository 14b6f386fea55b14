package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/chatstream/internal/config"
	"github.com/davidbz/chatstream/internal/conversation"
	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/export"
	chathttp "github.com/davidbz/chatstream/internal/http"
	"github.com/davidbz/chatstream/internal/http/middleware"
	"github.com/davidbz/chatstream/internal/provider/echo"
	"github.com/davidbz/chatstream/internal/provider/openai"
	"github.com/davidbz/chatstream/internal/provider/registry"
	"github.com/davidbz/chatstream/internal/routing"
	"github.com/davidbz/chatstream/internal/sse"
	"github.com/davidbz/chatstream/internal/telemetry"
)

// newRoutes wires the relay against an in-process echo upstream that has no
// configured credential, so every exchange needs a caller bearer token.
func newRoutes(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	upstream := httptest.NewServer(echo.NewServer(echo.WithChunkDelay(0)).Handler())
	t.Cleanup(upstream.Close)

	upstreams := registry.NewRegistry()
	require.NoError(t, upstreams.Register(ctx, &domain.Upstream{
		Name:    "echo",
		BaseURL: upstream.URL,
		Models:  []string{echo.ModelName},
	}))

	pricing := domain.NewInMemoryPricingRegistry()
	require.NoError(t, echo.RegisterPricing(ctx, pricing))

	metricsRegistry := prometheus.NewRegistry()
	recorder, err := telemetry.NewRecorder(metricsRegistry)
	require.NoError(t, err)

	client := openai.NewClient(openai.Config{Timeout: 5}, domain.NewStandardCostCalculator(pricing))
	service := conversation.NewService(client, routing.NewRouter(upstreams), recorder,
		conversation.Config{Timeout: 5 * time.Second})

	exporter := export.New(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }, time.UTC)
	handler := chathttp.NewHandler(service, exporter, pricing)

	server := chathttp.NewServer(&config.ServerConfig{}, handler, middleware.Chain(middleware.Trace()), metricsRegistry)
	return server.Routes()
}

func do(t *testing.T, routes http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	return rec
}

func createConversation(t *testing.T, routes http.Handler, params conversation.CreateParams) *domain.Conversation {
	t.Helper()

	rec := do(t, routes, http.MethodPost, "/v1/conversations", "", params)
	require.Equal(t, http.StatusCreated, rec.Code)

	var conv domain.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	return &conv
}

type event struct {
	name string
	data string
}

func readEvents(t *testing.T, body []byte) []event {
	t.Helper()

	var (
		events []event
		name   string
	)
	for _, line := range sse.NewLineBuffer().Feed(body) {
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			name = after
			continue
		}
		if payload, ok := sse.Payload(line); ok {
			events = append(events, event{name: name, data: payload})
			name = ""
		}
	}
	return events
}

func TestHandler_Conversations(t *testing.T) {
	routes := newRoutes(t)

	t.Run("should create and fetch a conversation", func(t *testing.T) {
		conv := createConversation(t, routes, conversation.CreateParams{
			Title: "Greeting",
			Model: echo.ModelName,
		})
		require.NotEmpty(t, conv.ID)
		require.Equal(t, "Greeting", conv.Title)

		rec := do(t, routes, http.MethodGet, "/v1/conversations/"+conv.ID, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

		var resp chathttp.ConversationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, conv.ID, resp.Conversation.ID)
		require.Equal(t, domain.StateIdle, resp.Streaming.State)
		require.False(t, resp.Streaming.IsStreaming)
	})

	t.Run("should reject a conversation without a model", func(t *testing.T) {
		rec := do(t, routes, http.MethodPost, "/v1/conversations", "", conversation.CreateParams{Title: "x"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/conversations", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 404 for unknown conversations", func(t *testing.T) {
		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/v1/conversations/missing"},
			{http.MethodDelete, "/v1/conversations/missing/stream"},
			{http.MethodGet, "/v1/conversations/missing/export"},
		} {
			rec := do(t, routes, tc.method, tc.path, "", nil)
			require.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		}

		rec := do(t, routes, http.MethodPost, "/v1/conversations/missing/messages", "Bearer k",
			chathttp.SendMessageRequest{Content: "hi"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_SendMessage(t *testing.T) {
	routes := newRoutes(t)

	t.Run("should return the blocking reply", func(t *testing.T) {
		conv := createConversation(t, routes, conversation.CreateParams{Model: echo.ModelName})

		rec := do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "Bearer caller",
			chathttp.SendMessageRequest{Content: "hello there"})
		require.Equal(t, http.StatusOK, rec.Code)

		var outcome conversation.Outcome
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
		require.False(t, outcome.Aborted)
		require.Equal(t, "hello there", outcome.Message.Content)
		require.NotNil(t, outcome.Message.Metrics)
		require.Equal(t, domain.Usage{PromptTokens: 2, CompletionTokens: 2, TotalTokens: 4}, outcome.Message.Metrics.Tokens)
	})

	t.Run("should relay the stream as events", func(t *testing.T) {
		conv := createConversation(t, routes, conversation.CreateParams{Model: echo.ModelName})

		rec := do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "Bearer caller",
			chathttp.SendMessageRequest{Content: "hello there", Stream: true})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

		events := readEvents(t, rec.Body.Bytes())
		require.GreaterOrEqual(t, len(events), 3)

		var chunks []chathttp.ChunkEvent
		for _, ev := range events[:len(events)-2] {
			require.Equal(t, chathttp.EventChunk, ev.name)

			var chunk chathttp.ChunkEvent
			require.NoError(t, json.Unmarshal([]byte(ev.data), &chunk))
			chunks = append(chunks, chunk)
		}
		require.Equal(t, "hello ", chunks[0].Content)
		require.NotNil(t, chunks[0].TimeToFirstTokenMs)

		last := chunks[len(chunks)-1]
		require.True(t, last.Complete)
		require.Equal(t, "hello there", last.Content)

		complete := events[len(events)-2]
		require.Equal(t, chathttp.EventComplete, complete.name)

		var outcome conversation.Outcome
		require.NoError(t, json.Unmarshal([]byte(complete.data), &outcome))
		require.Equal(t, "hello there", outcome.Message.Content)
		require.NotNil(t, outcome.Message.Metrics.TimeToFirstToken)

		require.Equal(t, event{data: sse.DoneToken}, events[len(events)-1])

		rec = do(t, routes, http.MethodGet, "/v1/conversations/"+conv.ID, "", nil)
		var resp chathttp.ConversationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Conversation.Messages, 2)
		require.Equal(t, domain.StateIdle, resp.Streaming.State)
	})

	t.Run("should map upstream auth failures to 401", func(t *testing.T) {
		conv := createConversation(t, routes, conversation.CreateParams{Model: echo.ModelName})

		rec := do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "",
			chathttp.SendMessageRequest{Content: "hi"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var chatErr domain.ChatError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chatErr))
		require.Equal(t, domain.KindAuth, chatErr.Kind)
	})

	t.Run("should answer stream failures before content with a status", func(t *testing.T) {
		conv := createConversation(t, routes, conversation.CreateParams{Model: echo.ModelName})

		rec := do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "",
			chathttp.SendMessageRequest{Content: "hi", Stream: true})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var chatErr domain.ChatError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chatErr))
		require.Equal(t, domain.KindAuth, chatErr.Kind)
	})

	t.Run("should reject models no upstream serves", func(t *testing.T) {
		conv := createConversation(t, routes, conversation.CreateParams{Model: "gpt-4"})

		for _, stream := range []bool{false, true} {
			rec := do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "Bearer caller",
				chathttp.SendMessageRequest{Content: "hi", Stream: stream})
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		}
	})

	t.Run("should reject out-of-range settings at creation", func(t *testing.T) {
		rec := do(t, routes, http.MethodPost, "/v1/conversations", "", conversation.CreateParams{
			Model:    echo.ModelName,
			Settings: domain.ConversationSettings{Temperature: domain.Float(5)},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var chatErr domain.ChatError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chatErr))
		require.Equal(t, domain.KindValidation, chatErr.Kind)
		require.Equal(t, "temperature", chatErr.Details["field"])
	})
}

func TestHandler_Cancel(t *testing.T) {
	routes := newRoutes(t)
	conv := createConversation(t, routes, conversation.CreateParams{Model: echo.ModelName})

	rec := do(t, routes, http.MethodDelete, "/v1/conversations/"+conv.ID+"/stream", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"cancelled":false}`, rec.Body.String())
}

func TestHandler_Export(t *testing.T) {
	routes := newRoutes(t)
	conv := createConversation(t, routes, conversation.CreateParams{Title: "Greeting", Model: echo.ModelName})

	rec := do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "Bearer caller",
		chathttp.SendMessageRequest{Content: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name        string
		query       string
		status      int
		contentType string
		filename    string
		contains    string
	}{
		{
			name:        "markdown by default",
			status:      http.StatusOK,
			contentType: "text/markdown; charset=utf-8",
			filename:    `attachment; filename="Greeting-2024-01-01T00-00-00.md"`,
			contains:    "# Greeting",
		},
		{
			name:        "json",
			query:       "?format=json",
			status:      http.StatusOK,
			contentType: "application/json",
			filename:    `attachment; filename="Greeting-2024-01-01T00-00-00.json"`,
			contains:    `"title": "Greeting"`,
		},
		{
			name:   "unsupported format",
			query:  "?format=pdf",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, routes, http.MethodGet, "/v1/conversations/"+conv.ID+"/export"+tt.query, "", nil)
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}

			require.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			require.Equal(t, tt.filename, rec.Header().Get("Content-Disposition"))
			require.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestHandler_UpdatePricing(t *testing.T) {
	routes := newRoutes(t)

	t.Run("should merge into the current table", func(t *testing.T) {
		rec := do(t, routes, http.MethodPut, "/v1/pricing", "", map[string]domain.PricingConfig{
			"gpt-4": {InputCostPer1K: 0.03, OutputCostPer1K: 0.06},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var table map[string]domain.PricingConfig
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
		require.Contains(t, table, echo.ModelName)
		require.InDelta(t, 0.06, table["gpt-4"].OutputCostPer1K, 1e-9)
	})

	t.Run("should reject negative prices", func(t *testing.T) {
		rec := do(t, routes, http.MethodPut, "/v1/pricing", "", map[string]domain.PricingConfig{
			"gpt-4": {InputCostPer1K: -1},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	routes := newRoutes(t)

	rec := do(t, routes, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	conv := createConversation(t, routes, conversation.CreateParams{Model: echo.ModelName})
	rec = do(t, routes, http.MethodPost, "/v1/conversations/"+conv.ID+"/messages", "Bearer caller",
		chathttp.SendMessageRequest{Content: "count me"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, routes, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(),
		`chatstream_exchanges_total{model="echo4",outcome="complete",stream="false"} 1`)
	require.Contains(t, rec.Body.String(),
		`chatstream_tokens_total{model="echo4",type="completion"} 2`)
}
