// Package tui is the terminal presentation layer. It renders the
// controller's message log, the live tool status, and the approval and
// iteration prompts, and feeds key input back into the controller.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/yanmxa/codo/internal/agent"
	"github.com/yanmxa/codo/internal/controller"
	"github.com/yanmxa/codo/internal/preview"
	"github.com/yanmxa/codo/internal/session"
)

const (
	defaultWidth      = 80
	minTextareaHeight = 2
)

// Options wires the TUI to the orchestration core.
type Options struct {
	Controller *controller.Controller
	Agent      *agent.Agent
	Preview    *preview.Generator
	Store      *session.Store

	// Resumed is the session being continued, if any; saving on exit
	// updates it in place instead of creating a new one.
	Resumed *session.Session

	ProviderName string
	Model        string
	Cwd          string

	// Updates receives a signal whenever controller state changes.
	Updates <-chan struct{}
}

type (
	refreshMsg     struct{}
	requestDoneMsg struct{}
)

type model struct {
	opts Options

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	mdRenderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	historyIndex int
	tempInput    string

	quitting bool
}

// Run starts the interactive program and blocks until exit.
func Run(opts Options) error {
	p := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newModel(opts Options) *model {
	ta := textarea.New()
	ta.Placeholder = ""
	ta.Focus()
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetWidth(defaultWidth)
	ta.SetHeight(minTextareaHeight)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle().Foreground(CurrentTheme.Muted)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		FPS:    80 * time.Millisecond,
	}
	sp.Style = thinkingStyle

	return &model{
		opts:         opts,
		textarea:     ta,
		spinner:      sp,
		historyIndex: -1,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForUpdate())
}

// waitForUpdate turns controller change signals into bubbletea messages.
func (m *model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		if m.opts.Updates == nil {
			return nil
		}
		<-m.opts.Updates
		return refreshMsg{}
	}
}

func (m *model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		m.opts.Controller.SendMessage(context.Background(), text)
		return requestDoneMsg{}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chromeHeight := m.textarea.Height() + 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chromeHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.mdRenderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-4),
		)
		m.refreshViewport()
		return m, nil

	case refreshMsg:
		m.refreshViewport()
		return m, m.waitForUpdate()

	case requestDoneMsg:
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, taCmd, vpCmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes control keys; returns handled=false to let the
// textarea/viewport consume the key.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	c := m.opts.Controller

	// Gate prompts capture y/n/a style answers first.
	if p := c.PendingApproval(); p != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			c.ApproveToolExecution(true, false)
		case "a", "A":
			c.ApproveToolExecution(true, true)
		case "n", "N", "esc":
			c.ApproveToolExecution(false, false)
		}
		return nil, true
	}
	if p := c.PendingMaxIterations(); p != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			c.RespondToMaxIterations(true)
		case "n", "N", "esc":
			c.RespondToMaxIterations(false)
		}
		return nil, true
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		m.saveSession()
		return tea.Quit, true

	case tea.KeyEsc:
		if c.IsProcessing() {
			c.InterruptRequest()
			return nil, true
		}
		return nil, false

	case tea.KeyEnter:
		if msg.Alt {
			return nil, false // alt+enter inserts a newline
		}
		text := strings.TrimSpace(m.textarea.Value())
		if text == "" || c.IsProcessing() {
			return nil, true
		}
		m.textarea.Reset()
		m.historyIndex = -1
		return m.sendCmd(text), true

	case tea.KeyCtrlR:
		c.ToggleReasoning()
		m.refreshViewport()
		return nil, true

	case tea.KeyCtrlA:
		c.ToggleAutoApprove()
		return nil, true

	case tea.KeyCtrlL:
		c.ClearHistory()
		m.refreshViewport()
		return nil, true

	case tea.KeyUp:
		if m.textarea.Line() == 0 {
			m.historyBack()
			return nil, true
		}
		return nil, false

	case tea.KeyDown:
		if m.historyIndex >= 0 {
			m.historyForward()
			return nil, true
		}
		return nil, false
	}

	return nil, false
}

func (m *model) historyBack() {
	history := m.opts.Controller.InputHistory()
	if len(history) == 0 {
		return
	}
	if m.historyIndex == -1 {
		m.tempInput = m.textarea.Value()
		m.historyIndex = len(history) - 1
	} else if m.historyIndex > 0 {
		m.historyIndex--
	}
	m.textarea.SetValue(history[m.historyIndex])
}

func (m *model) historyForward() {
	history := m.opts.Controller.InputHistory()
	if m.historyIndex < 0 {
		return
	}
	m.historyIndex++
	if m.historyIndex >= len(history) {
		m.historyIndex = -1
		m.textarea.SetValue(m.tempInput)
		return
	}
	m.textarea.SetValue(history[m.historyIndex])
}

// saveSession persists the provider-side conversation on exit.
func (m *model) saveSession() {
	if m.opts.Store == nil || m.opts.Agent == nil {
		return
	}
	msgs := m.opts.Agent.Messages()
	if len(msgs) == 0 {
		return
	}
	sess := &session.Session{
		Metadata: session.Metadata{
			Provider: m.opts.ProviderName,
			Model:    m.opts.Model,
			Cwd:      m.opts.Cwd,
		},
		Messages: msgs,
	}
	if m.opts.Resumed != nil {
		sess.Metadata = m.opts.Resumed.Metadata
	}
	_ = m.opts.Store.Save(sess)
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *model) View() string {
	if !m.ready {
		return "initializing..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")

	c := m.opts.Controller
	switch {
	case c.PendingApproval() != nil:
		b.WriteString(m.renderApprovalPrompt(c.PendingApproval()))
	case c.PendingMaxIterations() != nil:
		b.WriteString(m.renderMaxIterationsPrompt(c.PendingMaxIterations()))
	default:
		b.WriteString(inputPromptStyle.Render("> "))
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *model) statusLine() string {
	c := m.opts.Controller
	parts := []string{fmt.Sprintf("%s/%s", m.opts.ProviderName, m.opts.Model)}
	if c.IsProcessing() {
		parts = append(parts, m.spinner.View()+" working")
	}
	if c.SessionAutoApprove() {
		parts = append(parts, "auto-approve")
	}
	if c.ShowReasoning() {
		parts = append(parts, "reasoning")
	}
	snap := c.Metrics().Snapshot()
	if snap.CompletionTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", snap.CompletionTokens))
	}
	return statusStyle.Render(strings.Join(parts, "  ·  "))
}
