package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Writer wraps an http.ResponseWriter for Server-Sent Events.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter sets the event-stream headers and returns a Writer.
func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteData writes an unnamed `data:` frame with data encoded as JSON.
func (s *Writer) WriteData(data any) error {
	return s.WriteEvent("", data)
}

// WriteEvent writes a frame with an optional event name.
func (s *Writer) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if event != "" {
		if _, err = fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err = fmt.Fprintf(s.w, "%s %s\n\n", DataPrefix, jsonData); err != nil {
		return err
	}

	s.flush()
	return nil
}

// WriteDone writes the terminal [DONE] frame.
func (s *Writer) WriteDone() {
	fmt.Fprintf(s.w, "%s %s\n\n", DataPrefix, DoneToken)
	s.flush()
}

func (s *Writer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
