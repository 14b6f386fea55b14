package domain

import "time"

// Conversation is an ordered chat history with its generation settings.
type Conversation struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Model          string                `json:"model"`
	CredentialName string                `json:"credential_name,omitempty"`
	Settings       ConversationSettings  `json:"settings"`
	Messages       []ConversationMessage `json:"messages"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ConversationSettings are the generation parameters applied to every send.
type ConversationSettings struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

// ConversationMessage is one turn of a conversation.
type ConversationMessage struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metrics   *ResponseMetrics `json:"metrics,omitempty"`
	Aborted   bool             `json:"aborted,omitempty"`
}

// Clone returns a deep copy safe to hand out of a lock.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]ConversationMessage, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}
