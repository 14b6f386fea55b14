// Package conversation owns in-memory conversations and the single active
// exchange of each one.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/observability"
)

const defaultTimeout = 30 * time.Second

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrExchangeInProgress   = errors.New("an exchange is already in progress for this conversation")
	ErrModelRequired        = errors.New("model is required")
	ErrNoUpstream           = errors.New("no upstream serves this model")
)

// Config holds exchange settings. Zero Limits means the default limits.
type Config struct {
	Timeout time.Duration
	Limits  domain.ValidationLimits
}

// CreateParams describes a new conversation.
type CreateParams struct {
	Title          string                      `json:"title"`
	Model          string                      `json:"model"`
	CredentialName string                      `json:"credential_name,omitempty"`
	Settings       domain.ConversationSettings `json:"settings"`
}

// Outcome is the result of one exchange. Aborted exchanges are outcomes, not
// errors; Message then holds whatever content arrived before the stop.
type Outcome struct {
	Message domain.ConversationMessage `json:"message"`
	Aborted bool                       `json:"aborted"`
}

// ChunkFunc receives the accumulated content of a streaming exchange.
type ChunkFunc func(content string, complete bool, ttft *time.Duration)

type entry struct {
	conv    *domain.Conversation
	session *domain.StreamingSession
}

// Service is safe for concurrent use. Exchanges on different conversations
// run independently.
type Service struct {
	client    domain.CompletionClient
	router    domain.UpstreamRouter
	recorder  domain.ExchangeRecorder
	config    Config
	validator *domain.RequestValidator
	now       func() time.Time
	newID     func() string

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the random ID source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new conversation service.
func NewService(
	client domain.CompletionClient,
	router domain.UpstreamRouter,
	recorder domain.ExchangeRecorder,
	config Config,
	opts ...Option,
) *Service {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Limits == (domain.ValidationLimits{}) {
		config.Limits = domain.DefaultValidationLimits()
	}

	s := &Service{
		client:    client,
		router:    router,
		recorder:  recorder,
		config:    config,
		validator: domain.NewRequestValidator(config.Limits),
		now:       time.Now,
		newID:     observability.GenerateID,
		entries:   make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create starts an empty conversation. Settings are checked against the
// same limits every request of the conversation is validated with.
func (s *Service) Create(params CreateParams) (*domain.Conversation, error) {
	if params.Model == "" {
		return nil, ErrModelRequired
	}

	if err := s.validator.ValidateSettings(params.Settings.Temperature, params.Settings.MaxTokens); err != nil {
		return nil, err
	}

	title := params.Title
	if title == "" {
		title = "New Conversation"
	}

	conv := &domain.Conversation{
		ID:             s.newID(),
		Title:          title,
		Model:          params.Model,
		CredentialName: params.CredentialName,
		Settings:       params.Settings,
		Messages:       []domain.ConversationMessage{},
		CreatedAt:      s.now(),
	}

	s.mu.Lock()
	s.entries[conv.ID] = &entry{conv: conv, session: domain.NewStreamingSession()}
	s.mu.Unlock()

	return conv.Clone(), nil
}

// Get returns a copy of the conversation and the state of its exchange slot.
func (s *Service) Get(id string) (*domain.Conversation, domain.StreamingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, domain.StreamingState{}, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	return e.conv.Clone(), e.session.Snapshot(), nil
}

// Send appends content as a user message and streams the assistant reply.
// An empty credential falls back to the one configured for the upstream.
func (s *Service) Send(
	ctx context.Context,
	id, credential, content string,
	onChunk ChunkFunc,
) (*Outcome, error) {
	return s.exchange(ctx, id, credential, content, true, onChunk)
}

// Complete is the non-streaming variant of Send.
func (s *Service) Complete(ctx context.Context, id, credential, content string) (*Outcome, error) {
	return s.exchange(ctx, id, credential, content, false, nil)
}

// Cancel stops the active exchange of a conversation. It reports whether an
// exchange was running.
func (s *Service) Cancel(id string) (bool, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	return e.session.Cancel(), nil
}

func (s *Service) exchange(
	ctx context.Context,
	id, credential, content string,
	stream bool,
	onChunk ChunkFunc,
) (*Outcome, error) {
	ctx = observability.WithConversationID(ctx, id)
	logger := observability.FromContext(ctx)

	assistantID := s.newID()
	token := domain.NewTimeoutToken(ctx, s.config.Timeout)
	defer token.Release()

	e, req, upstream, err := s.begin(ctx, id, assistantID, content, token)
	if err != nil {
		return nil, err
	}

	if credential == "" {
		credential = upstream.Credential
	}
	// Every exchange leaves the slot idle, whatever the outcome.
	defer func() {
		if resetErr := e.session.Reset(); resetErr != nil {
			logger.Error("failed to reset streaming session", observability.Error(resetErr))
		}
	}()

	ctx = observability.WithMessageID(ctx, assistantID)

	var (
		metrics *domain.ResponseMetrics
		reply   string
	)

	if stream {
		handler := domain.StreamHandler{
			OnChunk: func(accumulated string, complete bool, ttft *time.Duration) {
				reply = accumulated
				if recvErr := e.session.Receive(accumulated); recvErr != nil {
					logger.Debug("dropping chunk after exchange ended", observability.Error(recvErr))
					return
				}
				if onChunk != nil {
					onChunk(accumulated, complete, ttft)
				}
			},
			OnComplete: func(m *domain.ResponseMetrics) {
				metrics = m
			},
		}
		err = s.client.SendStreamingCompletion(ctx, upstream.BaseURL, credential, req, handler, token)
	} else {
		var result *domain.CompletionResult
		result, err = s.client.SendCompletion(token.Context(), upstream.BaseURL, credential, req)
		if err == nil {
			reply = result.Response.Content
			metrics = result.Metrics
		}
	}

	if err != nil {
		return s.settleFailure(e, req.Model, stream, assistantID, reply, err)
	}

	if completeErr := e.session.Complete(); completeErr != nil {
		return nil, completeErr
	}

	s.recorder.RecordCompletion(req.Model, stream, metrics)

	msg := domain.ConversationMessage{
		ID:        assistantID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: s.now(),
		Metrics:   metrics,
	}
	s.append(e, msg)

	return &Outcome{Message: msg}, nil
}

// begin routes the conversation's model, claims the exchange slot, records
// the user message and builds the request from the full history.
func (s *Service) begin(
	ctx context.Context,
	id, assistantID, content string,
	token *domain.CancellationToken,
) (*entry, *domain.CompletionRequest, *domain.Upstream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	upstream, err := s.router.Route(ctx, e.conv.Model)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrNoUpstream, err)
	}

	if beginErr := e.session.Begin(assistantID, token); beginErr != nil {
		return nil, nil, nil, ErrExchangeInProgress
	}

	e.conv.Messages = append(e.conv.Messages, domain.ConversationMessage{
		ID:        s.newID(),
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: s.now(),
	})

	return e, buildRequest(e.conv), upstream, nil
}

// settleFailure ends a failed exchange. Aborts keep the partial reply and
// are not reported as errors.
func (s *Service) settleFailure(
	e *entry,
	model string,
	stream bool,
	assistantID, partial string,
	err error,
) (*Outcome, error) {
	chatErr, ok := domain.AsChatError(err)
	if !ok {
		chatErr = domain.NewErrorClassifier().ClassifyFault(err)
	}

	s.recorder.RecordFailure(model, stream, chatErr.Kind)

	if chatErr.Kind != domain.KindAborted {
		if failErr := e.session.Fail(chatErr); failErr != nil {
			return nil, errors.Join(chatErr, failErr)
		}
		return nil, chatErr
	}

	if abortErr := e.session.Abort(); abortErr != nil {
		return nil, abortErr
	}

	msg := domain.ConversationMessage{
		ID:        assistantID,
		Role:      domain.RoleAssistant,
		Content:   partial,
		Timestamp: s.now(),
		Aborted:   true,
	}
	if partial != "" {
		s.append(e, msg)
	}

	return &Outcome{Message: msg, Aborted: true}, nil
}

func (s *Service) append(e *entry, msg domain.ConversationMessage) {
	s.mu.Lock()
	e.conv.Messages = append(e.conv.Messages, msg)
	s.mu.Unlock()
}

// buildRequest renders the system prompt and the full history. Empty
// messages, such as an aborted reply that produced nothing, are skipped.
func buildRequest(conv *domain.Conversation) *domain.CompletionRequest {
	messages := make([]domain.Message, 0, len(conv.Messages)+1)

	if conv.Settings.SystemPrompt != "" {
		messages = append(messages, domain.Message{
			Role:    domain.RoleSystem,
			Content: conv.Settings.SystemPrompt,
		})
	}

	for _, msg := range conv.Messages {
		if msg.Content == "" {
			continue
		}
		messages = append(messages, domain.Message{Role: msg.Role, Content: msg.Content})
	}

	return &domain.CompletionRequest{
		Model:       conv.Model,
		Messages:    messages,
		Temperature: conv.Settings.Temperature,
		MaxTokens:   conv.Settings.MaxTokens,
	}
}
