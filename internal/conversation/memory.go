// Package conversation keeps the last few question/answer turns so follow-up
// questions can be grounded in what was just said.
package conversation

import (
	"sync"

	"resumechat/internal/domain"
)

// DefaultCapacity is the number of turns kept when no capacity is configured.
const DefaultCapacity = 3

// Memory is a bounded FIFO of turns. The oldest turn is evicted first.
type Memory struct {
	mu       sync.Mutex
	capacity int
	turns    []domain.Turn
}

// NewMemory creates a memory holding at most capacity turns.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity, turns: make([]domain.Turn, 0, capacity)}
}

// Record appends a completed turn, evicting the oldest one when full.
func (m *Memory) Record(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.turns) == m.capacity {
		copy(m.turns, m.turns[1:])
		m.turns = m.turns[:len(m.turns)-1]
	}
	m.turns = append(m.turns, domain.Turn{Question: question, Answer: answer})
}

// Recent returns the kept turns, oldest first. The slice is a copy.
func (m *Memory) Recent() []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

func (m *Memory) Capacity() int { return m.capacity }

// Reset drops every turn.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = m.turns[:0]
}
