// Package prompt assembles the grounding prompt sent to the language model.
package prompt

import (
	"strings"

	"resumechat/internal/domain"
)

const (
	// FallbackPhrase is what the model is told to answer when the context
	// does not contain the information.
	FallbackPhrase = "I will not be able to answer that question at the moment."
	// Separator joins retrieved chunks inside the CONTEXT block.
	Separator = "\n---\n"
	// AnswerCue ends the prompt; the answer is whatever follows it.
	AnswerCue = "ANSWER:"

	defaultOwner = "the candidate"
)

// Builder renders prompts for one resume owner.
type Builder struct {
	owner string
}

func NewBuilder(owner string) *Builder {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = defaultOwner
	}
	return &Builder{owner: owner}
}

// Owner returns the name the assistant speaks for.
func (b *Builder) Owner() string { return b.owner }

// Build renders the instruction block, the ranked chunk texts, the recent
// turns (if any) and the question, ending with the answer cue.
func (b *Builder) Build(question string, chunks []string, turns []domain.Turn) string {
	var sb strings.Builder
	sb.WriteString(b.instructions())
	sb.WriteString("\n\nCONTEXT:\n")
	sb.WriteString(strings.Join(chunks, Separator))
	if len(turns) > 0 {
		sb.WriteString("\n\nCONVERSATION:\n")
		for _, t := range turns {
			sb.WriteString("USER: ")
			sb.WriteString(t.Question)
			sb.WriteString("\nASSISTANT: ")
			sb.WriteString(t.Answer)
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("\n")
	}
	sb.WriteString("\nQUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(AnswerCue)
	return sb.String()
}

func (b *Builder) instructions() string {
	return "You are " + b.owner + "'s helpful AI assistant. Answer questions using ONLY the information in the " +
		"CONTEXT section, which is taken from " + b.owner + "'s resume. The CONVERSATION section, when present, " +
		"shows the previous exchanges and may help resolve follow-up questions.\n\n" +
		"Instructions:\n" +
		"1. Refer to yourself as \"I\" (first person).\n" +
		"2. Be respectful, professional and concise.\n" +
		"3. Stick strictly to what you find in the CONTEXT. Do not guess or use outside knowledge.\n" +
		"4. Do not combine parts of the context that are not clearly related to the question.\n" +
		"5. Do not give opinions on political or religious matters or anything controversial, and never use offensive language.\n" +
		"6. If the CONTEXT does not contain the answer, you MUST respond with: \"" + FallbackPhrase + "\""
}
