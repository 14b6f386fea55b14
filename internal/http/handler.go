// Package http exposes conversations over a JSON and SSE relay API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/davidbz/chatstream/internal/conversation"
	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/export"
	"github.com/davidbz/chatstream/internal/observability"
	"github.com/davidbz/chatstream/internal/sse"
)

// SSE event names emitted by HandleSendMessage.
const (
	EventChunk    = "chunk"
	EventComplete = "complete"
	EventAborted  = "aborted"
	EventError    = "error"
)

// Handler handles HTTP requests.
type Handler struct {
	conversations *conversation.Service
	exporter      *export.Exporter
	pricing       domain.PricingRegistry
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	conversations *conversation.Service,
	exporter *export.Exporter,
	pricing domain.PricingRegistry,
) *Handler {
	return &Handler{
		conversations: conversations,
		exporter:      exporter,
		pricing:       pricing,
	}
}

// SendMessageRequest is the body of POST /v1/conversations/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
	Stream  bool   `json:"stream"`
}

// ChunkEvent is the payload of a "chunk" event.
type ChunkEvent struct {
	Content            string `json:"content"`
	Complete           bool   `json:"complete"`
	TimeToFirstTokenMs *int64 `json:"time_to_first_token_ms,omitempty"`
}

// ConversationResponse is a conversation with the state of its exchange slot.
type ConversationResponse struct {
	Conversation *domain.Conversation  `json:"conversation"`
	Streaming    domain.StreamingState `json:"streaming"`
}

// HandleCreateConversation processes POST /v1/conversations.
func (h *Handler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var params conversation.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	conv, err := h.conversations.Create(params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	observability.FromContext(observability.WithConversationID(r.Context(), conv.ID)).
		Info("conversation created", observability.String("model", conv.Model))

	writeJSON(w, http.StatusCreated, conv)
}

// HandleGetConversation processes GET /v1/conversations/{id}.
func (h *Handler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, state, err := h.conversations.Get(r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ConversationResponse{Conversation: conv, Streaming: state})
}

// HandleSendMessage processes POST /v1/conversations/{id}/messages. The
// caller's bearer token, when present, is forwarded upstream.
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := observability.WithConversationID(r.Context(), id)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	credential := bearerToken(r)

	observability.FromContext(ctx).Info("message received",
		observability.Bool("stream", req.Stream),
		observability.Int("content_length", len(req.Content)),
	)

	if !req.Stream {
		outcome, err := h.conversations.Complete(ctx, id, credential, req.Content)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
		return
	}

	// The event stream opens on the first chunk. Any error raised before it,
	// upstream failures included, is answered with a plain status code.
	var stream *sse.Writer
	open := func() *sse.Writer {
		if stream == nil {
			stream = sse.NewWriter(w)
		}
		return stream
	}

	outcome, err := h.conversations.Send(ctx, id, credential, req.Content,
		func(content string, complete bool, ttft *time.Duration) {
			event := ChunkEvent{Content: content, Complete: complete}
			if ttft != nil {
				ms := ttft.Milliseconds()
				event.TimeToFirstTokenMs = &ms
			}
			if writeErr := open().WriteEvent(EventChunk, event); writeErr != nil {
				observability.FromContext(ctx).Debug("failed to write chunk", observability.Error(writeErr))
			}
		})

	if err != nil && stream == nil {
		h.writeServiceError(w, r, err)
		return
	}

	var chatErr *domain.ChatError
	switch {
	case err == nil && outcome.Aborted:
		_ = open().WriteEvent(EventAborted, outcome)
	case err == nil:
		_ = open().WriteEvent(EventComplete, outcome)
	case errors.As(err, &chatErr):
		_ = stream.WriteEvent(EventError, chatErr)
	default:
		_ = stream.WriteEvent(EventError, errorBody{Error: err.Error()})
	}

	open().WriteDone()
}

// HandleCancel processes DELETE /v1/conversations/{id}/stream.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.conversations.Cancel(r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// HandleExport processes GET /v1/conversations/{id}/export?format=json|markdown.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatMarkdown
	}

	conv, _, err := h.conversations.Get(r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	body, err := h.exporter.Export(conv, format)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	filename, err := h.exporter.Filename(conv, format)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if format == export.FormatJSON {
		contentType = "application/json"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// HandleUpdatePricing processes PUT /v1/pricing: a partial model table merged
// into the current one.
func (h *Handler) HandleUpdatePricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var table map[string]domain.PricingConfig
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.pricing.Merge(ctx, table); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	observability.FromContext(ctx).Info("pricing updated", observability.Int("models", len(table)))

	writeJSON(w, http.StatusOK, h.pricing.Snapshot(ctx))
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logger := observability.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Error(err))
	} else {
		logger.Info("request rejected", observability.Int("status", status), observability.Error(err))
	}

	if chatErr, ok := domain.AsChatError(err); ok {
		writeJSON(w, status, chatErr)
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrExchangeInProgress):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrModelRequired), errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrNoUpstream):
		return http.StatusUnprocessableEntity
	}

	chatErr, ok := domain.AsChatError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch chatErr.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindRateLimit:
		return http.StatusTooManyRequests
	case domain.KindNetwork:
		return http.StatusBadGateway
	case domain.KindAborted:
		return http.StatusConflict
	case domain.KindAPI:
		if chatErr.StatusCode >= http.StatusBadRequest {
			return chatErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "

	header := r.Header.Get("Authorization")
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status already written; nothing useful to do on failure.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
