// Package export renders conversations as JSON or Markdown documents.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/davidbz/chatstream/internal/domain"
)

// Format is an export output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"

	maxTitleLength = 50
	localTimeISO   = "2006-01-02T15:04:05"
	filenameStamp  = "2006-01-02T15-04-05"
)

// ErrUnsupportedFormat is returned for any format other than json or markdown.
var ErrUnsupportedFormat = errors.New("unsupported export format")

//nolint:gochecknoglobals // Compiled once
var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// Exporter serializes conversations. The zero value is not usable; use New.
type Exporter struct {
	now func() time.Time
	loc *time.Location
}

// New creates an exporter that stamps documents with now in loc.
// A nil loc means time.Local.
func New(now func() time.Time, loc *time.Location) *Exporter {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{now: now, loc: loc}
}

// Export renders conv in the given format.
func (e *Exporter) Export(conv *domain.Conversation, format Format) (string, error) {
	if conv == nil {
		return "", errors.New("conversation cannot be nil")
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal conversation: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return e.markdown(conv), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Filename returns "{sanitizedTitle}-{timestamp}.{ext}" for an export of conv.
func (e *Exporter) Filename(conv *domain.Conversation, format Format) (string, error) {
	var ext string
	switch format {
	case FormatJSON:
		ext = "json"
	case FormatMarkdown:
		ext = "md"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	title := unsafeFilenameChars.ReplaceAllString(conv.Title, "-")
	if title == "" {
		title = "conversation"
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	return fmt.Sprintf("%s-%s.%s", title, e.now().In(e.loc).Format(filenameStamp), ext), nil
}

func (e *Exporter) markdown(conv *domain.Conversation) string {
	var b strings.Builder

	title := conv.Title
	if title == "" {
		title = "Conversation"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	fmt.Fprintf(&b, "**Model:** %s\n", conv.Model)
	if conv.CredentialName != "" {
		fmt.Fprintf(&b, "**API Key:** %s\n", conv.CredentialName)
	}
	fmt.Fprintf(&b, "**Exported:** %s\n\n", e.now().In(e.loc).Format(localTimeISO))

	b.WriteString("## Configuration\n\n")
	if conv.Settings.Temperature != nil {
		fmt.Fprintf(&b, "- **Temperature:** %g\n", *conv.Settings.Temperature)
	} else {
		b.WriteString("- **Temperature:** default\n")
	}
	if conv.Settings.MaxTokens != nil {
		fmt.Fprintf(&b, "- **Max Tokens:** %d\n", *conv.Settings.MaxTokens)
	} else {
		b.WriteString("- **Max Tokens:** default\n")
	}
	if conv.Settings.SystemPrompt != "" {
		fmt.Fprintf(&b, "- **System Prompt:** %s\n", conv.Settings.SystemPrompt)
	}
	b.WriteString("\n")

	sum := summarize(conv.Messages)
	b.WriteString("## Metrics\n\n")
	fmt.Fprintf(&b, "- **Messages:** %d\n", len(conv.Messages))
	fmt.Fprintf(&b, "- **Total Tokens:** %d\n", sum.tokens)
	fmt.Fprintf(&b, "- **Total Cost:** $%.4f\n", sum.cost)
	fmt.Fprintf(&b, "- **Average Response Time:** %dms\n\n", sum.averageResponseTime().Milliseconds())

	b.WriteString("## Messages\n\n")
	for _, msg := range conv.Messages {
		fmt.Fprintf(&b, "### %s\n", roleLabel(msg.Role))
		fmt.Fprintf(&b, "*%s*\n\n", msg.Timestamp.In(e.loc).Format(localTimeISO))
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
		if msg.Aborted {
			b.WriteString("*(response stopped)*\n\n")
		}
		if msg.Metrics != nil {
			fmt.Fprintf(&b, "> Tokens: %d | Cost: $%.4f | Response time: %dms\n\n",
				msg.Metrics.Tokens.TotalTokens, msg.Metrics.EstimatedCost, msg.Metrics.ResponseTime.Milliseconds())
		}
	}

	return b.String()
}

type totals struct {
	tokens       int
	cost         float64
	responseTime time.Duration
	responses    int
}

func (t totals) averageResponseTime() time.Duration {
	if t.responses == 0 {
		return 0
	}
	return t.responseTime / time.Duration(t.responses)
}

func summarize(messages []domain.ConversationMessage) totals {
	var t totals
	for _, msg := range messages {
		if msg.Metrics == nil {
			continue
		}
		t.tokens += msg.Metrics.Tokens.TotalTokens
		t.cost += msg.Metrics.EstimatedCost
		t.responseTime += msg.Metrics.ResponseTime
		t.responses++
	}
	return t
}

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return "👤 User"
	case domain.RoleAssistant:
		return "🤖 Assistant"
	case domain.RoleSystem:
		return "⚙️ System"
	default:
		return string(role)
	}
}
