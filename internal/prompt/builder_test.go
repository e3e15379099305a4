package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"resumechat/internal/domain"
)

func TestBuildStructure(t *testing.T) {
	b := NewBuilder("Anmol Gupta")
	p := b.Build("Where does Anmol work?", []string{"Anmol works at Acme Corp.", "Anmol studied CS."}, nil)

	assert.Contains(t, p, FallbackPhrase)
	assert.Contains(t, p, "Anmol Gupta's helpful AI assistant")
	assert.Contains(t, p, "CONTEXT:\nAnmol works at Acme Corp.\n---\nAnmol studied CS.")
	assert.Contains(t, p, "QUESTION: Where does Anmol work?")
	assert.NotContains(t, p, "CONVERSATION:")
	assert.True(t, strings.HasSuffix(p, AnswerCue))

	ctx := strings.Index(p, "CONTEXT:")
	q := strings.Index(p, "QUESTION:")
	assert.Less(t, ctx, q)
}

func TestBuildRendersTurnsInOrder(t *testing.T) {
	turns := []domain.Turn{
		{Question: "Where do you work?", Answer: "At Acme Corp."},
		{Question: "Since when?", Answer: "Since 2019."},
	}
	p := NewBuilder("Anmol").Build("And before that?", []string{"chunk"}, turns)

	assert.Contains(t, p, "CONVERSATION:\nUSER: Where do you work?\nASSISTANT: At Acme Corp.\nUSER: Since when?\nASSISTANT: Since 2019.\n")
	assert.Less(t, strings.Index(p, "CONVERSATION:"), strings.Index(p, "QUESTION: And before that?"))
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder("")
	assert.Equal(t, "the candidate", b.Owner())
	a := b.Build("q", []string{"x", "y"}, nil)
	assert.Equal(t, a, b.Build("q", []string{"x", "y"}, nil))
}

func TestBuildKeepsQuestionVerbatim(t *testing.T) {
	q := "  What's   your <role>?  "
	p := NewBuilder("Anmol").Build(q, []string{"chunk"}, nil)
	assert.Contains(t, p, "QUESTION: "+q+"\n")
}
