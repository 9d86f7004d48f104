package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"docschat/internal/chatclient"
	"docschat/internal/models"
)

// replyMsg carries the settled result of one chat request.
type replyMsg struct {
	reply string
	err   error
}

// Model is the Bubble Tea model for the chat window.
type Model struct {
	session  *chatclient.Session
	sender   chatclient.Sender
	logger   *zap.Logger
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	title    string
	revision int
	ready    bool
}

func New(session *chatclient.Session, sender chatclient.Sender, title string, logger *zap.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = thinkingStyle

	return Model{
		session:  session,
		sender:   sender,
		logger:   logger,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		title:    title,
		revision: -1,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		// header, status and the input line
		reserved := 3 + ih
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.input.Width = max(10, msg.Width-6)
		m.syncTranscript(true)
		return m, nil

	case replyMsg:
		if msg.err != nil {
			m.logger.Warn("chat request failed", zap.Error(msg.err))
		}
		m.session.Settle(msg.reply, msg.err)
		m.input.SetValue(m.session.Input())
		m.syncTranscript(false)
		return m, nil

	case spinner.TickMsg:
		if !m.session.AwaitingReply() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.session.AwaitingReply() {
			return m, nil
		}

		if msg.Type == tea.KeyEnter {
			text, ok := m.session.Submit(m.input.Value())
			if !ok {
				return m, nil
			}
			m.syncTranscript(false)
			return m, tea.Batch(m.spinner.Tick, m.send(text))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.SetInput(m.input.Value())
	return m, cmd
}

func (m Model) send(text string) tea.Cmd {
	sender := m.sender
	return func() tea.Msg {
		reply, err := sender.Send(context.Background(), text)
		return replyMsg{reply: reply, err: err}
	}
}

// syncTranscript re-renders the transcript and jumps to the newest message
// whenever the session revision moved.
func (m *Model) syncTranscript(force bool) {
	rev := m.session.Revision()
	if rev == m.revision && !force {
		return
	}
	m.revision = rev
	m.viewport.SetContent(renderTranscript(m.session.Messages(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render(m.title)
	status := statusStyle.Render("Enter to send, Esc to quit")
	if m.session.AwaitingReply() {
		status = m.spinner.View() + thinkingStyle.Render("Thinking...")
	}

	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func renderTranscript(messages []models.ChatMessage, width int) string {
	if len(messages) == 0 {
		return statusStyle.Render("No messages yet.")
	}

	wrap := lipgloss.NewStyle().Width(max(10, width-2))
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		label := assistantStyle.Render("Assistant")
		if msg.Role == models.RoleUser {
			label = userStyle.Render("You")
		}
		parts = append(parts, label+"\n"+wrap.Render(msg.Content))
	}
	return strings.Join(parts, "\n\n")
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	thinkingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)
