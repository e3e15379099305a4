package chunker

import (
	"fmt"

	"resumechat/internal/domain"
)

// WindowChunker cuts the text into fixed-size character windows. Consecutive
// windows share overlap characters.
type WindowChunker struct {
	size      int
	overlap   int
	minLength int
}

func NewWindowChunker(size, overlap, minLength int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", domain.ErrConfiguration, size, overlap)
	}
	return &WindowChunker{size: size, overlap: overlap, minLength: minLength}, nil
}

func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	if len(runes) == 0 {
		return nil, nil
	}
	// byte offset of every rune, plus the end of the text
	offsets := make([]int, 0, len(runes)+1)
	for i := range document.Content {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(document.Content))

	var chunks []domain.Chunk
	step := c.size - c.overlap
	for i := 0; i < len(runes); i += step {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		text := document.Content[offsets[i]:offsets[end]]
		chunks = appendChunk(chunks, document, text, offsets[i], c.minLength)
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
