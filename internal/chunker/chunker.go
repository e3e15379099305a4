// Package chunker splits the resume into retrieval chunks.
//
// Three policies are available: a fixed character window with overlap (the
// default), sentence groups, and an explicit delimiter marker. All of them
// drop chunks whose trimmed text is shorter than a minimum length and number
// the surviving chunks consecutively.
package chunker

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"resumechat/internal/domain"
)

const (
	TypeWindow    = "window"
	TypeSentence  = "sentence"
	TypeDelimiter = "delimiter"

	DefaultMarker = "[Chunk]"
)

// Options selects and configures a chunking policy.
type Options struct {
	Type              string
	Size              int
	Overlap           int
	SentencesPerChunk int
	OverlapSentences  int
	Marker            string
	MinLength         int
}

// New builds the chunker named by opts.Type. Invalid sizes are reported as
// domain.ErrConfiguration before any text is processed.
func New(opts Options) (domain.Chunker, error) {
	switch opts.Type {
	case TypeWindow, "":
		return NewWindowChunker(opts.Size, opts.Overlap, opts.MinLength)
	case TypeSentence:
		return NewSentenceChunker(opts.SentencesPerChunk, opts.OverlapSentences, opts.MinLength)
	case TypeDelimiter:
		return NewDelimiterChunker(opts.Marker, opts.MinLength), nil
	default:
		return nil, fmt.Errorf("%w: unknown chunker %q", domain.ErrConfiguration, opts.Type)
	}
}

// appendChunk adds text as the next chunk unless it is too short to be useful.
func appendChunk(chunks []domain.Chunk, document domain.Document, text string, start, minLength int) []domain.Chunk {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minLength {
		return chunks
	}
	idx := len(chunks)
	return append(chunks, domain.Chunk{
		DocumentID: document.ID,
		ChunkID:    document.ID + ":" + strconv.Itoa(idx),
		Text:       text,
		Index:      idx,
		Start:      start,
	})
}
