// Package sse implements the small slice of server-sent events the chat
// client needs: splitting a body into lines across arbitrary read
// boundaries, extracting `data:` payloads, and writing frames back out.
package sse

import (
	"bytes"
	"strings"
)

const (
	// DataPrefix starts every frame line that carries a payload.
	DataPrefix = "data:"

	// DoneToken is the payload that terminates a completion stream.
	DoneToken = "[DONE]"
)

// LineBuffer accumulates raw bytes and hands back complete lines. Bytes are
// buffered until a newline arrives, so a multi-byte rune split across two
// reads is reassembled before it is ever converted to a string.
type LineBuffer struct {
	buf []byte
}

// NewLineBuffer returns an empty buffer.
func NewLineBuffer() *LineBuffer {
	return &LineBuffer{}
}

// Feed appends p and returns every line completed by it, in order, without
// their terminators. The trailing incomplete fragment stays buffered.
func (b *LineBuffer) Feed(p []byte) []string {
	b.buf = append(b.buf, p...)

	var lines []string
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(bytes.TrimSuffix(b.buf[:i], []byte{'\r'})))
		b.buf = b.buf[i+1:]
	}

	// Compact so a long stream does not pin its whole history.
	if len(b.buf) == 0 {
		b.buf = nil
	}

	return lines
}

// Flush returns the buffered partial line, if any, and empties the buffer.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.buf) == 0 {
		return "", false
	}
	line := string(bytes.TrimSuffix(b.buf, []byte{'\r'}))
	b.buf = nil
	return line, true
}

// Payload returns the trimmed payload of a `data:` line. ok is false for
// every other line: blanks, comments and other SSE fields.
func Payload(line string) (payload string, ok bool) {
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, DataPrefix)), true
}
