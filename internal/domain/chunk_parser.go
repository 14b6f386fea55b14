package domain

import (
	"encoding/json"
	"fmt"
)

type wireChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// ParseChunk decodes one `data:` payload into a StreamChunk. Missing delta
// content yields an empty fragment; a missing or null usage yields nil.
func ParseChunk(payload []byte) (*StreamChunk, error) {
	var wire wireChunk
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
	}

	chunk := &StreamChunk{
		Usage: wire.Usage,
	}

	if len(wire.Choices) > 0 {
		choice := wire.Choices[0]
		if choice.Delta.Content != nil {
			chunk.Content = *choice.Delta.Content
		}
		if choice.FinishReason != nil {
			chunk.FinishReason = *choice.FinishReason
		}
	}

	return chunk, nil
}
