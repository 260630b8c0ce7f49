package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/usecase"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F46E5")).
			Padding(0, 1)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC")).PaddingLeft(1)
	userLabel     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#818CF8"))
	botLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34D399"))
	typingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputHeight   = 3
	chromeHeight  = inputHeight + 5
)

// changedMsg tells the model to re-read the session.
type changedMsg struct{}

// notify turns session events into a coalescing change signal. One pending
// signal is enough: the model re-reads the whole session when it handles it.
func notify(changes chan<- struct{}) usecase.EventSink {
	return func(_ context.Context, _ domain.SessionEvent) {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

type model struct {
	session *usecase.ChatSession
	changes <-chan struct{}

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	messages []domain.ChatMessage
	awaiting bool
	width    int
}

func newModel(session *usecase.ChatSession, changes <-chan struct{}) model {
	input := textarea.New()
	input.Placeholder = "Type your question about CDU..."
	input.ShowLineNumbers = false
	input.SetHeight(inputHeight)
	input.SetWidth(defaultWidth)
	input.KeyMap.InsertNewline.SetKeys("alt+enter")
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = typingStyle

	m := model{
		session:  session,
		changes:  changes,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		input:    input,
		spinner:  s,
		width:    defaultWidth,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForChange(m.changes))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.SetWidth(msg.Width)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc:
			m.session.Close()
			return m, tea.Quit
		case msg.Type == tea.KeyEnter && !msg.Alt:
			if m.session.Submit(m.input.Value()) != nil {
				m.input.Reset()
			}
			return m, nil
		case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.session.SetDraft(m.input.Value())
		return m, cmd

	case changedMsg:
		wasAwaiting := m.awaiting
		m.refresh()
		if m.session.Closed() {
			return m, tea.Quit
		}
		cmds := []tea.Cmd{waitForChange(m.changes)}
		if m.awaiting && !wasAwaiting {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.awaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh re-reads the transcript and scrolls to the newest entry.
func (m *model) refresh() {
	messages, state := m.session.Snapshot()
	m.messages = messages
	m.awaiting = state.AwaitingReply
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m model) transcript() string {
	body := lipgloss.NewStyle().Width(max(m.width-2, 10)).PaddingLeft(2)

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Sender == domain.UserSender {
			b.WriteString(userLabel.Render("You"))
		} else {
			b.WriteString(botLabel.Render("CDU Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Text))
	}
	return b.String()
}

func (m model) View() string {
	var typing string
	if m.awaiting {
		typing = typingStyle.Render(m.spinner.View() + " CDU Assistant is typing")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Help for CDU Students")+subtitleStyle.Render("Powered by Falcon RAG AI"),
		m.viewport.View(),
		typing,
		m.input.View(),
		helpStyle.Render("enter: send • alt+enter: new line • pgup/pgdn: scroll • esc: quit"),
	)
}
