package chunker

import (
	"strings"

	"resumechat/internal/domain"
)

// DelimiterChunker splits on an explicit marker placed in the document by
// its author, e.g. "[Chunk]" between resume sections.
type DelimiterChunker struct {
	marker    string
	minLength int
}

func NewDelimiterChunker(marker string, minLength int) *DelimiterChunker {
	if marker == "" {
		marker = DefaultMarker
	}
	return &DelimiterChunker{marker: marker, minLength: minLength}
}

func (c *DelimiterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	offset := 0
	for _, part := range strings.Split(document.Content, c.marker) {
		text := strings.TrimSpace(part)
		if text != "" {
			chunks = appendChunk(chunks, document, text, offset+strings.Index(part, text), c.minLength)
		}
		offset += len(part) + len(c.marker)
	}
	return chunks, nil
}
