package sse_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/chatstream/internal/sse"
)

func TestLineBuffer_Feed(t *testing.T) {
	t.Run("should hold partial lines across reads", func(t *testing.T) {
		buf := sse.NewLineBuffer()

		require.Empty(t, buf.Feed([]byte(`data: {"choi`)))
		require.Equal(t, []string{`data: {"choices":[]}`, ""}, buf.Feed([]byte("ces\":[]}\n\ndata: [DO")))
		require.Equal(t, []string{"data: [DONE]"}, buf.Feed([]byte("NE]\n")))

		_, ok := buf.Flush()
		require.False(t, ok)
	})

	t.Run("should reassemble a rune split across reads", func(t *testing.T) {
		buf := sse.NewLineBuffer()
		line := []byte("data: héllo 👋\n")

		// Split inside the four-byte emoji.
		split := len(line) - 3
		require.Empty(t, buf.Feed(line[:split]))
		require.Equal(t, []string{"data: héllo 👋"}, buf.Feed(line[split:]))
	})

	t.Run("should strip CRLF terminators", func(t *testing.T) {
		buf := sse.NewLineBuffer()

		require.Equal(t, []string{"data: a", "", "data: b"}, buf.Feed([]byte("data: a\r\n\r\ndata: b\r\n")))
	})

	t.Run("should feed one byte at a time", func(t *testing.T) {
		buf := sse.NewLineBuffer()
		input := "data: one\ndata: two\n"

		var lines []string
		for i := range len(input) {
			lines = append(lines, buf.Feed([]byte{input[i]})...)
		}

		require.Equal(t, []string{"data: one", "data: two"}, lines)
	})

	t.Run("should flush the trailing fragment", func(t *testing.T) {
		buf := sse.NewLineBuffer()
		require.Empty(t, buf.Feed([]byte("data: [DONE]\r")))

		line, ok := buf.Flush()
		require.True(t, ok)
		require.Equal(t, "data: [DONE]", line)

		_, ok = buf.Flush()
		require.False(t, ok)
	})
}

func TestPayload(t *testing.T) {
	tests := []struct {
		line    string
		payload string
		ok      bool
	}{
		{`data: {"a":1}`, `{"a":1}`, true},
		{`data:{"a":1}`, `{"a":1}`, true},
		{"data:   [DONE]  ", "[DONE]", true},
		{"data:", "", true},
		{"", "", false},
		{": keep-alive", "", false},
		{"event: message", "", false},
		{" data: indented", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			payload, ok := sse.Payload(tt.line)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.payload, payload)
		})
	}
}
