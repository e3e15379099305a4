// Package answer turns raw model output into the text shown to the user.
package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// NoInformation is shown when the model produced nothing at all.
	NoInformation = "I have no relevant information to share."
	// Failure is shown when answering a question failed for any reason.
	Failure = "Sorry, I am facing a problem. Please try again later."

	// DefaultMinLength is the shortest extracted answer, in runes, that is kept.
	DefaultMinLength = 2
)

var (
	cues      = []string{"answer:"}
	scaffolds = []string{"question:", "context:", "conversation:"}
)

// Extractor applies the cue and degenerate-output rules.
type Extractor struct {
	minLength int
}

func NewExtractor(minLength int) *Extractor {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Extractor{minLength: minLength}
}

// Extract returns the final answer for raw model output. When the output is
// too short or degenerate, topChunk (the best ranked chunk) is returned
// verbatim; if that is empty too the no-information answer is used.
func (e *Extractor) Extract(raw, topChunk string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return NoInformation
	}
	text = strings.TrimSpace(afterLastCue(text))
	if utf8.RuneCountInString(text) < e.minLength || Degenerate(text) {
		if strings.TrimSpace(topChunk) == "" {
			return NoInformation
		}
		return topChunk
	}
	return text
}

// afterLastCue returns the text after the last answer cue, matched without
// regard to case, or text unchanged when there is no cue.
func afterLastCue(text string) string {
	cut := -1
	for _, c := range cues {
		if i := lastIndexFold(text, c); i >= 0 && i+len(c) > cut {
			cut = i + len(c)
		}
	}
	if cut < 0 {
		return text
	}
	return text[cut:]
}

// lastIndexFold is strings.LastIndex ignoring case for an ASCII sub. Offsets
// are taken in s itself, so they stay valid whatever runes s contains.
func lastIndexFold(s, sub string) int {
	for i := len(s) - len(sub); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

// Degenerate reports output that carries no answer: punctuation or symbols
// only, or an echo of the prompt scaffolding. A scaffold label only counts
// at the start of a line.
func Degenerate(text string) bool {
	hasWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasWord = true
			break
		}
	}
	if !hasWord {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		for _, s := range scaffolds {
			if strings.HasPrefix(line, s) {
				return true
			}
		}
	}
	return false
}
