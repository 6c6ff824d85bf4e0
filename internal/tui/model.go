package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/panjul/internal/chat"
	"github.com/diogo/panjul/internal/config"
	"github.com/diogo/panjul/internal/history"
	"github.com/diogo/panjul/internal/models"
	"github.com/diogo/panjul/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// streamChunkMsg carries a piece of the reply while it streams in
	streamChunkMsg struct {
		text string
	}
	// submitDoneMsg is sent once the session appended the reply or the fallback
	submitDoneMsg struct {
		appended bool
	}
)

// SessionFactory opens a new chat session for persona.
// It is used when the user switches persona with /persona.
type SessionFactory func(p *config.Persona) (*chat.Session, error)

// Options configures the chat view
type Options struct {
	Persona   *config.Persona
	ModelName string
	// Stream renders the reply while it arrives
	Stream    bool
	ExportDir string
	Render    render.Options
	Logger    *slog.Logger

	// NewSession and Personas enable the /persona command when both are set
	NewSession SessionFactory
	Personas   PersonaStore
}

// Model represents the TUI state
type Model struct {
	session *chat.Session
	persona *config.Persona
	opts    Options
	logger  *slog.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Request state
	loading   bool
	pending   string             // text of the in-flight user turn
	streaming string             // reply received so far
	stream    <-chan tea.Msg     // chunks and completion of the in-flight request
	cancel    context.CancelFunc // cancels the in-flight request

	ready          bool
	err            error
	notice         string
	animationFrame int // Frame counter for loading animation

	// Persona selection state
	selectingPersona bool
	personaList      []config.Persona
	personaCursor    int
	personaLoading   bool
	personaFilter    string

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model around session
func NewChatModel(session *chat.Session, opts Options) Model {
	persona := opts.Persona
	if persona == nil {
		persona = &config.Persona{Name: "default"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = persona.InputPlaceholder()
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		session:  session,
		persona:  persona,
		opts:     opts,
		logger:   logger,
		textarea: ta,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selectingPersona {
		return m.updatePersonaSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Header panel with border
		inputHeight := 6  // Input panel with border
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case "esc":
			if m.loading {
				// The session still appends the fallback for the cancelled request.
				if m.cancel != nil {
					m.cancel()
				}
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			if m.loading {
				return m, nil
			}
			return m.handleInput(m.textarea.Value())
		}

	case streamChunkMsg:
		m.streaming += msg.text
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForStream(m.stream))

	case submitDoneMsg:
		m.finishRequest()
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleInput runs a slash command or submits text to the session
func (m Model) handleInput(value string) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(value)
	if input == "" {
		return m, nil
	}

	m.notice = ""
	m.err = nil

	if strings.HasPrefix(input, "/") || input == "exit" || input == "quit" {
		if handled, next, cmd := m.runCommand(input); handled {
			return next, cmd
		}
	}

	m.textarea.Reset()
	return m.startRequest(value)
}

// runCommand executes a chat command. Unknown "/..." input is sent as a message.
func (m Model) runCommand(input string) (bool, tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]

	switch name {
	case "exit", "quit", "/exit", "/quit":
		return true, m, tea.Quit

	case "/clear":
		m.textarea.Reset()
		m.session.Reset()
		m.notice = "Conversation cleared"
		m.updateViewport()
		return true, m, nil

	case "/save":
		m.textarea.Reset()
		path, err := m.export(args)
		if err != nil {
			m.err = err
		} else {
			m.notice = "Saved to " + path
		}
		return true, m, nil

	case "/persona":
		if m.opts.NewSession == nil || m.opts.Personas == nil {
			return false, m, nil
		}
		m.textarea.Reset()
		m.selectingPersona = true
		m.personaLoading = true
		m.personaCursor = 0
		m.personaFilter = ""
		return true, m, m.loadPersonas()

	case "/help":
		m.textarea.Reset()
		m.notice = "/clear  reset the conversation  •  /save [md|json]  export it  •  /persona  switch persona  •  /exit  quit"
		return true, m, nil
	}

	return false, m, nil
}

// export writes the conversation to the export directory
func (m Model) export(args []string) (string, error) {
	format := history.ExportFormatMarkdown
	if len(args) > 0 {
		f, err := history.ParseExportFormat(args[0])
		if err != nil {
			return "", err
		}
		format = f
	}

	dir := m.opts.ExportDir
	if dir == "" {
		dir = "."
	}

	opts := history.DefaultExportOptions()
	opts.Format = format
	opts.ModelLabel = m.persona.Label()

	transcript := history.NewTranscript(
		m.session.ID(),
		m.persona.HeaderTitle(),
		m.persona.Name,
		m.opts.ModelName,
		m.session.Messages(),
	)
	path, err := transcript.WriteFile(dir, opts)
	if err != nil {
		return "", err
	}

	m.logger.Info("conversation exported", "path", path, "format", format)
	return path, nil
}

// startRequest submits text and puts the view in loading state
func (m Model) startRequest(text string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())

	m.loading = true
	m.pending = text
	m.streaming = ""
	m.cancel = cancel
	m.animationFrame = 0
	m.updateViewport()
	m.viewport.GotoBottom()

	var cmd tea.Cmd
	if m.opts.Stream {
		m.stream = submitStream(ctx, m.session, text)
		cmd = waitForStream(m.stream)
	} else {
		cmd = submit(ctx, m.session, text)
	}

	return m, tea.Batch(
		cmd,
		m.spinner.Tick,
		animationTick(),
	)
}

// finishRequest leaves loading state
func (m *Model) finishRequest() {
	if m.cancel != nil {
		m.cancel()
	}
	m.loading = false
	m.pending = ""
	m.streaming = ""
	m.stream = nil
	m.cancel = nil
}

// submit returns a command running a blocking Submit
func submit(ctx context.Context, session *chat.Session, text string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{appended: session.Submit(ctx, text)}
	}
}

// submitStream starts SubmitStream in the background and returns the channel
// that receives its chunks followed by one submitDoneMsg.
func submitStream(ctx context.Context, session *chat.Session, text string) <-chan tea.Msg {
	ch := make(chan tea.Msg, 64)
	go func() {
		defer close(ch)
		ok := session.SubmitStream(ctx, text, func(chunk string) {
			select {
			case ch <- streamChunkMsg{text: chunk}:
			case <-ctx.Done():
			}
		})
		ch <- submitDoneMsg{appended: ok}
	}()
	return ch
}

// waitForStream reads the next message of an in-flight stream
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return submitDoneMsg{}
		}
		return msg
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.selectingPersona {
		return m.renderPersonaSelector()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("✦ " + m.persona.HeaderTitle()),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.ModelName),
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages
	var messagesContent string
	if m.session.Conversation().Len() == 0 && !m.loading {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("  "+m.notice))
	}
	if m.err != nil {
		sections = append(sections, m.formatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render(m.persona.HeaderTitle())
	subtitle := welcomeStyle.Width(width).Render(m.persona.InputPlaceholder())
	help := hintStyle.Width(width).Align(lipgloss.Center).Render("Type /help for commands")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		help,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + m.persona.Label() + " is typing ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
		{"/help", "Commands"},
	}
	if m.loading {
		shortcuts[1].desc = "Cancel"
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// visibleMessages returns the turns to draw. While a request is in flight the
// session may already hold the pending user turn, so it is drawn from m.pending.
func (m Model) visibleMessages() []models.Message {
	msgs := m.session.Messages()
	if !m.loading {
		return msgs
	}

	if n := len(msgs); n > 0 && msgs[n-1].Role == models.RoleUser && msgs[n-1].Text == m.pending {
		msgs = msgs[:n-1]
	}
	msgs = append(msgs, models.UserMessage(m.pending))
	if m.streaming != "" {
		msgs = append(msgs, models.ModelMessage(m.streaming))
	}
	return msgs
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	renderOpts := m.opts.Render.InBubble(bubbleWidth)

	for i, msg := range m.visibleMessages() {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ " + m.persona.Label())
			content.WriteString(label + "\n")

			if msg.Fallback {
				content.WriteString(fallbackBubbleStyle.Width(bubbleWidth).Render(msg.Text))
			} else {
				rendered := render.Reply(msg.Text, renderOpts)
				content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
			}
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError formats an error for the line under the status bar
func (m Model) formatError(err error) string {
	if err == nil {
		return ""
	}
	return errorStyle.Render(fmt.Sprintf("⚠ Error: %v", err))
}

// RunChat starts the chat TUI
func RunChat(session *chat.Session, opts Options) error {
	m := NewChatModel(session, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
