package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"resumechat/internal/domain"
	"resumechat/internal/service"
)

// ChatPort is the TUI-facing subset of the chat session.
type ChatPort interface {
	Ask(ctx context.Context, question string, sink service.Sink) (string, error)
	Summary() string
}

// OpenFunc starts a session, reporting startup progress to sink.
type OpenFunc func(ctx context.Context, sink service.Sink) (ChatPort, error)

type entry struct {
	id     int
	sender service.Sender
	text   string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx      context.Context
	open     OpenFunc
	sink     *eventSink
	session  ChatPort
	title    string
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	entries  []entry
	status   string
	progress int
	busy     bool
	failed   bool
	sized    bool
}

// New creates the chat model. The session is opened when the program starts.
func New(ctx context.Context, title string, open OpenFunc) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the resume and press Enter"
	ti.CharLimit = 500
	vp := viewport.New(0, 0)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		open:     open,
		sink:     newEventSink(),
		title:    title,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		status:   service.StatusLoading,
		busy:     true,
	}
}

// Init opens the session and starts listening for its events.
func (m Model) Init() tea.Cmd {
	open, ctx, sink := m.open, m.ctx, m.sink
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(sink.events),
		func() tea.Msg {
			s, err := open(ctx, sink)
			return openedMsg{session: s, err: err}
		},
	)
}

// Update handles key, window and session events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.sized = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header + summary, status, input, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th-1)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy || m.session == nil {
				return m, nil
			}
			m.input.SetValue("")
			m.setBusy(true)
			session, ctx, sink := m.session, m.ctx, m.sink
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				_, err := session.Ask(ctx, q, sink)
				return answeredMsg{err: err}
			})
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	case openedMsg:
		if msg.err != nil {
			m.failed = true
			m.status = service.InitFailure(msg.err)
			return m, nil
		}
		m.session = msg.session
		m.setBusy(false)
		return m, textinput.Blink
	case answeredMsg:
		if errors.Is(msg.err, domain.ErrBusy) {
			return m, nil
		}
		m.setBusy(false)
		return m, textinput.Blink
	case statusMsg:
		if !m.failed {
			m.status = string(msg)
		}
		return m, waitForEvent(m.sink.events)
	case progressMsg:
		m.progress = int(msg)
		return m, waitForEvent(m.sink.events)
	case messageMsg:
		m.entries = append(m.entries, entry{id: msg.id, sender: msg.sender, text: msg.text})
		m.refresh()
		return m, waitForEvent(m.sink.events)
	case appendMsg:
		if e := m.find(msg.id); e != nil {
			e.text += msg.delta
			m.refresh()
		}
		return m, waitForEvent(m.sink.events)
	case finishMsg:
		if e := m.find(msg.id); e != nil {
			e.text = msg.final
			m.refresh()
		}
		return m, waitForEvent(m.sink.events)
	case spinner.TickMsg:
		if !m.busy || m.failed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setBusy(busy bool) {
	m.busy = busy
	if busy {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

func (m *Model) find(id int) *entry {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].id == id {
			return &m.entries[i]
		}
	}
	return nil
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.sized {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)
	summary := ""
	if m.session != nil {
		summary = summaryStyle.Render(m.session.Summary())
	}
	status := statusStyle.Render(m.status)
	switch {
	case m.failed:
		status = errorStyle.Render(m.status)
	case m.busy && m.session == nil:
		status = m.spinner.View() + " " + status + statusStyle.Render(progressLabel(m.progress))
	case m.busy:
		status = m.spinner.View() + " " + status
	}
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return ""
	}
	width := m.viewport.Width
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		label := assistantStyle.Render("Assistant:")
		if e.sender == service.SenderUser {
			label = userStyle.Render("You:")
		}
		body := e.text
		if width > 0 {
			body = lipgloss.NewStyle().Width(width).Render(body)
		}
		sb.WriteString(label + "\n" + body)
	}
	return sb.String()
}

func progressLabel(p int) string {
	if p <= 0 || p >= 100 {
		return ""
	}
	return " (" + strconv.Itoa(p) + "%)"
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	summaryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
