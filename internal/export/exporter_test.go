package export_test

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/export"
)

var exportedAt = time.Date(2024, 5, 17, 14, 30, 5, 0, time.UTC)

func newExporter() *export.Exporter {
	return export.New(func() time.Time { return exportedAt }, time.UTC)
}

func sampleConversation() *domain.Conversation {
	ttft := 120 * time.Millisecond
	started := time.Date(2024, 5, 17, 14, 0, 0, 0, time.UTC)

	return &domain.Conversation{
		ID:             "conv-1",
		Title:          "Go: channels & select?",
		Model:          "gpt-4",
		CredentialName: "Work key",
		Settings: domain.ConversationSettings{
			Temperature:  domain.Float(0.7),
			MaxTokens:    domain.Int(512),
			SystemPrompt: "You are terse.",
		},
		Messages: []domain.ConversationMessage{
			{ID: "m1", Role: domain.RoleUser, Content: "What is select?", Timestamp: started},
			{
				ID:        "m2",
				Role:      domain.RoleAssistant,
				Content:   "It waits on channels.",
				Timestamp: started.Add(2 * time.Second),
				Metrics: &domain.ResponseMetrics{
					Tokens:           domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
					ResponseTime:     1000 * time.Millisecond,
					EstimatedCost:    0.0015,
					TimeToFirstToken: &ttft,
				},
			},
			{ID: "m3", Role: domain.RoleUser, Content: "More?", Timestamp: started.Add(time.Minute)},
			{
				ID:        "m4",
				Role:      domain.RoleAssistant,
				Content:   "It also",
				Timestamp: started.Add(time.Minute + time.Second),
				Aborted:   true,
			},
			{
				ID:        "m5",
				Role:      domain.RoleAssistant,
				Content:   "Done.",
				Timestamp: started.Add(2 * time.Minute),
				Metrics: &domain.ResponseMetrics{
					Tokens:        domain.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
					ResponseTime:  2000 * time.Millisecond,
					EstimatedCost: 1.0 / 3.0,
				},
			},
		},
		CreatedAt: started,
	}
}

func TestExporter_Markdown(t *testing.T) {
	out, err := newExporter().Export(sampleConversation(), export.FormatMarkdown)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "# Go: channels & select?\n"))
	require.Contains(t, out, "**Model:** gpt-4\n")
	require.Contains(t, out, "**API Key:** Work key\n")
	require.Contains(t, out, "**Exported:** 2024-05-17T14:30:05\n")
	require.Contains(t, out, "- **Temperature:** 0.7\n")
	require.Contains(t, out, "- **Max Tokens:** 512\n")
	require.Contains(t, out, "- **System Prompt:** You are terse.\n")
	require.Contains(t, out, "- **Messages:** 5\n")
	require.Contains(t, out, "- **Total Tokens:** 33\n")
	require.Contains(t, out, "- **Average Response Time:** 1500ms\n")
	require.Contains(t, out, "### 👤 User\n")
	require.Contains(t, out, "### 🤖 Assistant\n")
	require.Contains(t, out, "*(response stopped)*")

	totalCost := regexp.MustCompile(`(?m)\*\*Total Cost:\*\* \$\d+\.\d{4}$`)
	require.Regexp(t, totalCost, out)
	require.Contains(t, out, "**Total Cost:** $0.3348\n")

	require.Less(t, strings.Index(out, "What is select?"), strings.Index(out, "It waits on channels."))
}

func TestExporter_MarkdownDefaults(t *testing.T) {
	conv := &domain.Conversation{Model: "gpt-4"}

	out, err := newExporter().Export(conv, export.FormatMarkdown)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "# Conversation\n"))
	require.NotContains(t, out, "**API Key:**")
	require.Contains(t, out, "- **Temperature:** default\n")
	require.Contains(t, out, "- **Total Cost:** $0.0000\n")
	require.Contains(t, out, "- **Average Response Time:** 0ms\n")
}

func TestExporter_JSON(t *testing.T) {
	conv := sampleConversation()

	out, err := newExporter().Export(conv, export.FormatJSON)
	require.NoError(t, err)

	var decoded domain.Conversation
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Equal(t, conv.ID, decoded.ID)
	require.Len(t, decoded.Messages, len(conv.Messages))
	require.Equal(t, conv.Messages[1].Metrics.ResponseTime, decoded.Messages[1].Metrics.ResponseTime)
	require.True(t, decoded.Messages[3].Aborted)
	require.Contains(t, out, `"response_time_ms": 1000`)
}

func TestExporter_UnsupportedFormat(t *testing.T) {
	_, err := newExporter().Export(sampleConversation(), "pdf")
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)

	_, err = newExporter().Filename(sampleConversation(), "pdf")
	require.ErrorIs(t, err, export.ErrUnsupportedFormat)

	_, err = newExporter().Export(nil, export.FormatJSON)
	require.Error(t, err)
}

func TestExporter_Filename(t *testing.T) {
	exporter := newExporter()

	tests := []struct {
		name     string
		title    string
		format   export.Format
		expected string
	}{
		{
			name:     "markdown",
			title:    "Go: channels & select?",
			format:   export.FormatMarkdown,
			expected: "Go--channels---select--2024-05-17T14-30-05.md",
		},
		{
			name:     "json",
			title:    "plain",
			format:   export.FormatJSON,
			expected: "plain-2024-05-17T14-30-05.json",
		},
		{
			name:     "non-ascii",
			title:    "café",
			format:   export.FormatJSON,
			expected: "caf--2024-05-17T14-30-05.json",
		},
		{
			name:     "empty title",
			title:    "",
			format:   export.FormatJSON,
			expected: "conversation-2024-05-17T14-30-05.json",
		},
		{
			name:     "long title",
			title:    strings.Repeat("a", 80),
			format:   export.FormatMarkdown,
			expected: strings.Repeat("a", 50) + "-2024-05-17T14-30-05.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := exporter.Filename(&domain.Conversation{Title: tt.title}, tt.format)
			require.NoError(t, err)
			require.Equal(t, tt.expected, name)
		})
	}
}
