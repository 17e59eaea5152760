package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tobetutor/internal/modules/conversation/dto"
	apperrors "tobetutor/internal/platform/errors"
	"tobetutor/internal/ui/components"
	"tobetutor/internal/ui/theme"
)

const intro = "Practice the verb TO BE. Type your name to begin."

// ─── ports ───────────────────────────────────────────────────────────────────

type chatPort interface {
	Start(ctx context.Context) (dto.SessionOutput, error)
	Submit(ctx context.Context, text string) (dto.SubmitOutput, error)
	Snapshot(ctx context.Context) (dto.SessionOutput, error)
}

type historyPort interface {
	List(ctx context.Context, limit int) ([]dto.ArchivedSummary, error)
}

// ─── async messages ───────────────────────────────────────────────────────────

type startedMsg struct {
	session dto.SessionOutput
	err     error
}

type snapshotMsg struct {
	session dto.SessionOutput
	err     error
}

type submittedMsg struct {
	out dto.SubmitOutput
	err error
}

type historyMsg struct {
	items []dto.ArchivedSummary
	err   error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Send    key.Binding
	Scroll  key.Binding
	Restart key.Binding
	Palette key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Send:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Scroll:  key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		Restart: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "new conversation")),
		Palette: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "commands")),
		Help:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Scroll},
		{k.Restart, k.Palette},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the chat screen: a scrolling transcript above a single input line.
// Only one line is in flight at a time; the input is locked until the tutor
// answers.
type Model struct {
	chat    chatPort
	history historyPort

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     keyMap
	help     help.Model
	palette  components.Palette
	showHelp bool

	sessionID string
	userName  string
	entries   []dto.EntryOutput
	pending   string
	busy      bool
	ended     bool
	status    string
	width     int
	height    int
}

// NewModel builds the chat screen. history may be nil when transcripts are
// not archived.
func NewModel(chat chatPort, history historyPort) Model {
	ti := textinput.New()
	ti.Placeholder = "type here and press enter"
	ti.CharLimit = 1000
	ti.Prompt = "› "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Hot

	return Model{
		chat:     chat,
		history:  history,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		keys:     defaultKeys(),
		help:     help.New(),
		palette:  components.NewPalette(),
		busy:     true,
		status:   "connecting",
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startCmd())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		if k, ok := msg.(tea.KeyMsg); !ok || k.String() != "ctrl+c" {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(m.width-4, 60))
		m.input.Width = max(m.width-6, 10)
		m.layout()
		m.refresh()
		return m, nil

	case startedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "could not start: " + msg.err.Error()
			if m.sessionID == "" {
				return m, nil
			}
			// keep showing the conversation that is still live
			return m, m.snapshotCmd()
		}
		m.show(msg.session)
		m.status = "new conversation"
		m.input.Reset()
		m.refresh()
		return m, m.input.Focus()

	case snapshotMsg:
		if msg.err != nil {
			return m, nil
		}
		m.show(msg.session)
		m.refresh()
		if m.ended {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()

	case submittedMsg:
		m.busy = false
		m.pending = ""
		if msg.err != nil {
			m.status = "send failed: " + msg.err.Error()
			if errors.Is(msg.err, apperrors.ErrSubmissionInFlight) {
				m.status = "still checking the previous sentence"
			}
			m.refresh()
			return m, nil
		}
		m.entries = append(m.entries, msg.out.Entries...)
		m.userName = msg.out.UserName
		m.ended = msg.out.Ended
		m.status = phaseStatus(msg.out.Phase)
		m.refresh()
		if m.ended {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()

	case historyMsg:
		if msg.err != nil {
			m.status = "history: " + msg.err.Error()
			return m, nil
		}
		m.status = historyStatus(msg.items)
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		return m, m.input.Focus()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			m.input.Blur()
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Restart):
			return m.restart()
		case key.Matches(msg, m.keys.Scroll):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case key.Matches(msg, m.keys.Send):
			return m.send()
		}
		if m.ended && msg.String() == "q" {
			return m, tea.Quit
		}
	}

	if m.busy || m.ended {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	if m.busy {
		m.status = "still checking the previous sentence"
		if m.sessionID == "" {
			m.status = "still connecting"
		}
		return m, nil
	}
	if m.ended {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}
	m.busy = true
	m.pending = text
	m.status = "checking…"
	m.refresh()
	return m, tea.Batch(m.submitCmd(text), m.spinner.Tick)
}

func (m Model) restart() (tea.Model, tea.Cmd) {
	if m.busy {
		m.status = "still checking the previous sentence"
		return m, nil
	}
	m.busy = true
	m.status = "starting a new conversation"
	return m, m.startCmd()
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	var body string
	switch {
	case m.showHelp:
		body = lipgloss.NewStyle().Width(m.width).Height(m.viewport.Height).Render(m.help.View(m.keys))
	case m.palette.Visible():
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		body = m.viewport.View()
	}

	inputBox := theme.PaneActive.Width(max(m.width-2, 10)).Render(m.input.View())
	if m.ended {
		inputBox = theme.Pane.Width(max(m.width-2, 10)).Render(theme.Muted.Render("conversation over: ctrl+r to start again, q to quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, inputBox, footer)
}

func (m Model) renderHeader() string {
	title := theme.Title.Render("tobetutor")
	who := theme.Muted.Render("  practice the verb TO BE")
	if m.userName != "" {
		who = "  " + theme.Hot.Render("● "+m.userName)
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(title+who) + "\n"
}

func (m Model) renderFooter() string {
	left := m.status
	right := theme.Muted.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, m.input.Focus()
	}
	switch parts[0] {
	case "session:restart":
		return m.restart()
	case "history:recent":
		if m.history == nil {
			m.status = apperrors.ErrArchiveDisabled.Error()
			return m, m.input.Focus()
		}
		limit := 5
		if len(parts) >= 2 {
			if n, err := strconv.Atoi(parts[1]); err == nil && n > 0 {
				limit = n
			}
		}
		return m, tea.Batch(m.historyCmd(limit), m.input.Focus())
	case "quit":
		return m, tea.Quit
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, m.input.Focus()
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) layout() {
	// header(2) + input box(3) + footer(1)
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

func (m *Model) show(session dto.SessionOutput) {
	m.sessionID = session.SessionID
	m.userName = session.UserName
	m.entries = session.Entries
	m.ended = session.Ended
}

// refresh re-renders the transcript and pins the view to the newest entry.
func (m *Model) refresh() {
	content := theme.Muted.Render(intro)
	if len(m.entries) > 0 {
		content += "\n\n" + components.RenderTranscript(m.entries, m.userName, m.width-2)
	}
	if m.pending != "" {
		content += "\n" + components.RenderPending(m.pending, m.userName, m.spinner.View(), m.width-2)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func phaseStatus(phase string) string {
	switch phase {
	case "awaiting_name":
		return "waiting for your name"
	case "awaiting_sentence":
		return "type a sentence with TO BE"
	case "awaiting_continue_choice":
		return "continue? y/n"
	case "ended":
		return "conversation ended"
	}
	return phase
}

func historyStatus(items []dto.ArchivedSummary) string {
	if len(items) == 0 {
		return "no archived conversations yet"
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := it.UserName
		if name == "" {
			name = "?"
		}
		parts = append(parts, fmt.Sprintf("%s %s (%d✓)", it.StartedAt.Local().Format("Jan 2 15:04"), name, it.Accepted))
	}
	return "recent: " + strings.Join(parts, " · ")
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.chat.Start(context.Background())
		return startedMsg{session: out, err: err}
	}
}

func (m Model) snapshotCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.chat.Snapshot(context.Background())
		return snapshotMsg{session: out, err: err}
	}
}

func (m Model) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.chat.Submit(context.Background(), text)
		return submittedMsg{out: out, err: err}
	}
}

func (m Model) historyCmd(limit int) tea.Cmd {
	return func() tea.Msg {
		items, err := m.history.List(context.Background(), limit)
		return historyMsg{items: items, err: err}
	}
}
