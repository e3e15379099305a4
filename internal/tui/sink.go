package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"resumechat/internal/service"
)

type (
	statusMsg   string
	progressMsg int
	messageMsg  struct {
		id        int
		sender    service.Sender
		text      string
		streaming bool
	}
	appendMsg struct {
		id    int
		delta string
	}
	finishMsg struct {
		id    int
		final string
	}
	openedMsg struct {
		session ChatPort
		err     error
	}
	answeredMsg struct{ err error }
)

// eventSink forwards session events into the Bubble Tea loop through a
// channel drained by waitForEvent.
type eventSink struct {
	events chan tea.Msg
	nextID chan int
}

func newEventSink() *eventSink {
	s := &eventSink{events: make(chan tea.Msg, 256), nextID: make(chan int, 1)}
	s.nextID <- 0
	return s
}

func (s *eventSink) OnStatus(text string) { s.events <- statusMsg(text) }

func (s *eventSink) OnProgress(percent int) { s.events <- progressMsg(percent) }

func (s *eventSink) OnMessage(sender service.Sender, text string, streaming bool) service.MessageHandle {
	id := <-s.nextID
	s.nextID <- id + 1
	s.events <- messageMsg{id: id, sender: sender, text: text, streaming: streaming}
	return &handle{sink: s, id: id}
}

type handle struct {
	sink *eventSink
	id   int
}

func (h *handle) Append(delta string) { h.sink.events <- appendMsg{id: h.id, delta: delta} }
func (h *handle) Finish(final string) { h.sink.events <- finishMsg{id: h.id, final: final} }

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}
