package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/bootstrap"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	Respond(ctx context.Context, userText string) (string, error)
	Remember(ctx context.Context, text string) error
	Forget(ctx context.Context) error
	RetrievalState() bootstrap.State
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	service    ChatPort
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	status     string
	ready      bool
}

// New creates a new TUI model instance.
func New(service ChatPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something, /remember <fact>, or /forget"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := "Ready."
	if service.RetrievalState() != bootstrap.StateAvailable {
		status = "Ready. Retrieval disabled for this session."
	}
	return Model{service: service, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around the transcript and query boxes
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line != "" {
				m = m.submit(line)
				m.input.SetValue("")
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) Model {
	ctx := context.Background()
	switch {
	case line == "/forget":
		if err := m.service.Forget(ctx); err != nil {
			m.status = "Forget failed: " + err.Error()
		} else {
			m.status = "Knowledge base cleared."
		}
	case strings.HasPrefix(line, "/remember "):
		fact := strings.TrimSpace(strings.TrimPrefix(line, "/remember "))
		if err := m.service.Remember(ctx, fact); err != nil {
			m.status = "Remember failed: " + err.Error()
		} else {
			m.status = "Remembered."
		}
	default:
		m.transcript = append(m.transcript, userStyle.Render("you: ")+line)
		reply, err := m.service.Respond(ctx, line)
		if err != nil {
			m.status = "Error: " + err.Error()
		} else {
			m.transcript = append(m.transcript, assistantStyle.Render("ragchat: ")+reply)
			m.status = fmt.Sprintf("Answered. (%d turns)", len(m.transcript)/2)
		}
	}
	return m
}

// View renders the TUI layout and conversation.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ragchat") +
		dimStyle.Render("  retrieval: "+m.service.RetrievalState().String())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No messages yet."
	}
	return strings.Join(m.transcript, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
