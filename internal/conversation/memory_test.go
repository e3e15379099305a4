package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/domain"
)

func TestMemoryKeepsMostRecentTurns(t *testing.T) {
	m := NewMemory(3)
	for i := 1; i <= 5; i++ {
		m.Record(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	require.Equal(t, 3, m.Len())
	assert.Equal(t, []domain.Turn{
		{Question: "q3", Answer: "a3"},
		{Question: "q4", Answer: "a4"},
		{Question: "q5", Answer: "a5"},
	}, m.Recent())
}

func TestMemoryRecentIsACopy(t *testing.T) {
	m := NewMemory(2)
	m.Record("q", "a")
	turns := m.Recent()
	turns[0].Answer = "changed"
	assert.Equal(t, "a", m.Recent()[0].Answer)
}

func TestMemoryDefaultsAndReset(t *testing.T) {
	m := NewMemory(0)
	assert.Equal(t, DefaultCapacity, m.Capacity())
	assert.Empty(t, m.Recent())

	m.Record("q", "a")
	m.Reset()
	assert.Equal(t, 0, m.Len())
	m.Record("q2", "a2")
	assert.Equal(t, []domain.Turn{{Question: "q2", Answer: "a2"}}, m.Recent())
}
