package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	text := "Anmol builds Go services at Acme. He likes hiking. Anmol leads the Go platform team at Acme."
	got, err := NewFrequencySummarizer().Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, "Anmol builds Go services at Acme. Anmol leads the Go platform team at Acme.", got)
}

func TestSummarizeTreatsLinesAsSentences(t *testing.T) {
	text := "Anmol Gupta\nSenior Engineer, Acme Corp\nSkills: Go, Kubernetes"
	got, err := NewFrequencySummarizer().Summarize(text, 5)
	require.NoError(t, err)
	assert.Equal(t, "Anmol Gupta Senior Engineer, Acme Corp Skills: Go, Kubernetes", got)
}

func TestSummarizeDegenerateInput(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("  ...  ", 2)
	require.NoError(t, err)
	assert.Equal(t, "...", got)

	got, err = NewFrequencySummarizer().Summarize("Acme’s platform.", 0)
	require.NoError(t, err)
	assert.Equal(t, "Acme’s platform.", got)
}
