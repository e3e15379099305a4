package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"resumechat/internal/domain"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	minLength         int
	splitter          *regexp.Regexp
}

// NewSentenceChunker groups sentencesPerChunk sentences per chunk, repeating
// the last overlapSentences of each chunk at the start of the next one.
func NewSentenceChunker(sentencesPerChunk, overlapSentences, minLength int) (*SentenceChunker, error) {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		return nil, fmt.Errorf("%w: overlap_sentences (%d) must be smaller than sentences_per_chunk (%d)",
			domain.ErrConfiguration, overlapSentences, sentencesPerChunk)
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		minLength:         minLength,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}, nil
}

type sentence struct {
	text  string
	start int
}

func (c *SentenceChunker) sentences(content string) []sentence {
	var out []sentence
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(content, -1) {
		out = appendTrimmed(out, content, loc[0], loc[1])
		last = loc[1]
	}
	// text after the final terminator is still a sentence
	return appendTrimmed(out, content, last, len(content))
}

func appendTrimmed(out []sentence, content string, from, to int) []sentence {
	raw := content[from:to]
	text := strings.TrimSpace(raw)
	if text == "" {
		return out
	}
	return append(out, sentence{text: text, start: from + strings.Index(raw, text)})
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		parts := make([]string, 0, end-i)
		for _, s := range sentences[i:end] {
			parts = append(parts, s.text)
		}
		chunks = appendChunk(chunks, document, strings.Join(parts, " "), sentences[i].start, c.minLength)
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks, nil
}
