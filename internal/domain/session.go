package domain

import (
	"fmt"
	"sync"
)

// SessionState is the lifecycle position of one in-flight message.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateSending   SessionState = "sending"
	StateStreaming SessionState = "streaming"
	StateComplete  SessionState = "complete"
	StateAborted   SessionState = "aborted"
	StateFailed    SessionState = "failed"
)

type sessionEvent string

const (
	eventBegin    sessionEvent = "begin"
	eventReceive  sessionEvent = "receive"
	eventComplete sessionEvent = "complete"
	eventAbort    sessionEvent = "abort"
	eventFail     sessionEvent = "fail"
	eventReset    sessionEvent = "reset"
)

//nolint:gochecknoglobals // Static transition table
var sessionTransitions = map[SessionState]map[sessionEvent]SessionState{
	StateIdle: {
		eventBegin: StateSending,
	},
	StateSending: {
		eventReceive:  StateStreaming,
		eventComplete: StateComplete,
		eventAbort:    StateAborted,
		eventFail:     StateFailed,
	},
	StateStreaming: {
		eventReceive:  StateStreaming,
		eventComplete: StateComplete,
		eventAbort:    StateAborted,
		eventFail:     StateFailed,
	},
	StateComplete: {eventReset: StateIdle},
	StateAborted:  {eventReset: StateIdle},
	StateFailed:   {eventReset: StateIdle},
}

// StreamingState is a point-in-time view of a StreamingSession.
type StreamingState struct {
	State              SessionState `json:"state"`
	IsStreaming        bool         `json:"is_streaming"`
	StreamingMessageID string       `json:"streaming_message_id,omitempty"`
	StreamingContent   string       `json:"streaming_content"`
	Err                *ChatError   `json:"error,omitempty"`
}

// StreamingSession owns the state of the single active exchange of a
// conversation. All changes go through one transition function.
type StreamingSession struct {
	mu        sync.Mutex
	state     SessionState
	messageID string
	content   string
	token     *CancellationToken
	err       *ChatError
}

// NewStreamingSession returns an idle session.
func NewStreamingSession() *StreamingSession {
	return &StreamingSession{state: StateIdle}
}

// Begin moves an idle session to sending for messageID.
func (s *StreamingSession) Begin(messageID string, token *CancellationToken) error {
	return s.transition(eventBegin, func() {
		s.messageID = messageID
		s.token = token
		s.content = ""
		s.err = nil
	})
}

// Receive records the full content streamed so far.
func (s *StreamingSession) Receive(content string) error {
	return s.transition(eventReceive, func() {
		s.content = content
	})
}

// Complete marks the exchange as finished normally.
func (s *StreamingSession) Complete() error {
	return s.transition(eventComplete, nil)
}

// Abort marks the exchange as cancelled. Content received so far is kept.
func (s *StreamingSession) Abort() error {
	return s.transition(eventAbort, nil)
}

// Fail marks the exchange as failed with err.
func (s *StreamingSession) Fail(err *ChatError) error {
	return s.transition(eventFail, func() {
		s.err = err
	})
}

// Reset returns a finished session to the empty idle shape.
func (s *StreamingSession) Reset() error {
	return s.transition(eventReset, func() {
		s.messageID = ""
		s.content = ""
		s.token = nil
		s.err = nil
	})
}

// Cancel fires the active token, if any. It reports whether a token was fired.
func (s *StreamingSession) Cancel() bool {
	s.mu.Lock()
	token := s.token
	active := s.state == StateSending || s.state == StateStreaming
	s.mu.Unlock()

	if !active || token == nil {
		return false
	}
	token.Cancel()
	return true
}

// Snapshot returns the current state.
func (s *StreamingSession) Snapshot() StreamingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StreamingState{
		State:              s.state,
		IsStreaming:        s.state == StateSending || s.state == StateStreaming,
		StreamingMessageID: s.messageID,
		StreamingContent:   s.content,
		Err:                s.err,
	}
}

func (s *StreamingSession) transition(ev sessionEvent, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := sessionTransitions[s.state][ev]
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, s.state)
	}

	if apply != nil {
		apply()
	}
	s.state = next
	return nil
}
