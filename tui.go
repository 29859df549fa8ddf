package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"oort/assistant"
	"oort/beep"
	"oort/clipboard"
	"oort/log"
)

// TUI message types
type eventMsg struct{ ev assistant.Event }
type refreshMsg struct{}
type levelTickMsg time.Time

// levelSource is the microphone level meter; voice.Input provides it.
type levelSource interface {
	Level() float64
}

const sidebarWidth = 36

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("246"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	recStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	sidebarStyle   = lipgloss.NewStyle().
			Width(sidebarWidth).
			PaddingRight(2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(lipgloss.Color("238"))

	statusStyles = map[assistant.StatusLevel]lipgloss.Style{
		assistant.StatusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		assistant.StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		assistant.StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		assistant.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

const aboutText = "OORT Africa Assistant is a multilingual voice assistant that answers " +
	"questions about the OORT DataHub Africa program."

type tuiModel struct {
	coord *assistant.Coordinator
	cues  *beep.Cues
	level levelSource

	view     assistant.View
	status   assistant.Status
	shown    int // messages rendered into the history viewport
	micLevel float64

	input   textinput.Model
	history viewport.Model
	spinner spinner.Model

	width, height int
}

func newTUIModel(coord *assistant.Coordinator, cues *beep.Cues, level levelSource) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about OORT DataHub Africa..."
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = recStyle

	m := tuiModel{
		coord:   coord,
		cues:    cues,
		level:   level,
		input:   ti,
		history: viewport.New(0, 0),
		spinner: sp,
	}
	m.view = coord.Cycle()
	return m
}

func NewTUIProgram(m tuiModel, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}

// waitForEvent is how background task completions become refreshes: the
// command blocks on the dispatcher's channel off the update loop.
func waitForEvent(ch <-chan assistant.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{ev: ev}
	}
}

func requestRefresh() tea.Msg { return refreshMsg{} }

func levelTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return levelTickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, levelTick(), waitForEvent(m.coord.Events()))
}

// Update is one refresh cycle. The staged transcript is consumed before the
// incoming message is handled.
func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.view = m.coord.Cycle()

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case eventMsg:
		m.handleEvent(msg.ev)
		cmds = append(cmds, waitForEvent(m.coord.Events()), requestRefresh)

	case refreshMsg:

	case levelTickMsg:
		if m.level != nil && m.view.Recording {
			m.micLevel = m.micLevel*0.5 + m.level.Level()*0.5
		} else {
			m.micLevel = 0
		}
		cmds = append(cmds, levelTick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncHistory()
	return m, tea.Batch(cmds...)
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit

	case "enter":
		text := m.input.Value()
		m.input.Reset()
		m.coord.Submit(text)
		return requestRefresh

	case "ctrl+r":
		if m.coord.PressMic() == assistant.TransitionStarted {
			m.status = assistant.Status{Level: assistant.StatusInfo, Text: "Listening..."}
			m.cues.PlayStart()
		}
		return requestRefresh

	case "esc":
		if m.coord.CancelRecording() == assistant.TransitionStopped {
			m.status = assistant.Status{Level: assistant.StatusInfo, Text: "Recording cancelled."}
			m.cues.PlayEnd()
		}
		return requestRefresh

	case "tab":
		lang := m.coord.Language().Next()
		m.coord.SetLanguage(lang)
		log.Info("language_change: " + lang.Code())
		m.status = assistant.Status{Level: assistant.StatusInfo, Text: "Language: " + lang.Label()}
		return requestRefresh

	case "ctrl+y":
		answer, ok := m.coord.LastAnswer()
		if !ok {
			return nil
		}
		if err := clipboard.Copy(answer); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
			m.status = assistant.Status{Level: assistant.StatusWarning, Text: "Copy failed: " + err.Error()}
			return nil
		}
		m.status = assistant.Status{Level: assistant.StatusSuccess, Text: "Last answer copied to clipboard."}
		return nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *tuiModel) handleEvent(ev assistant.Event) {
	if st := m.coord.Apply(ev); !st.Empty() {
		m.status = st
	}
	done, ok := ev.(assistant.ListenDone)
	if !ok || done.Stale {
		return
	}
	if done.Outcome == assistant.ListenHeard {
		m.cues.PlayEnd()
	} else {
		m.cues.PlayError()
	}
}

func (m *tuiModel) resize() {
	mainWidth := max(m.width-sidebarWidth-3, 20)
	// title + blank, status, recording line, input, help
	m.history.Width = mainWidth
	m.history.Height = max(m.height-7, 3)
	m.input.Width = mainWidth - 4
	m.shown = -1
}

// syncHistory re-renders the conversation when it grew or the window
// changed, keeping the newest message in view.
func (m *tuiModel) syncHistory() {
	if m.history.Width == 0 || m.shown == len(m.view.Messages) {
		return
	}
	m.history.SetContent(renderHistory(m.view.Messages, m.history.Width))
	m.history.GotoBottom()
	m.shown = len(m.view.Messages)
}

func renderHistory(msgs []assistant.Message, width int) string {
	if len(msgs) == 0 {
		return dimStyle.Render("No questions yet. Type one below or press ctrl+r to speak.")
	}
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.Role == assistant.User {
			b.WriteString(userStyle.Render("You") + "\n")
		} else {
			b.WriteString(assistantStyle.Render("Assistant") + "\n")
		}
		for _, line := range wrapText(msg.Content, width-2) {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("OORT Africa Assistant"),
		"",
		m.history.View(),
		m.renderStatus(),
		m.renderMic(),
		m.input.View(),
		m.renderHelp(),
	)
	sidebar := sidebarStyle.Height(m.height).Render(m.renderSidebar())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", body)
}

func (m tuiModel) renderStatus() string {
	if m.status.Empty() {
		return ""
	}
	return statusStyles[m.status.Level].Render(m.status.Text)
}

func (m tuiModel) renderMic() string {
	if !m.view.Recording {
		return keyStyle.Render("ctrl+r") + helpStyle.Render(" 🎤 speak a question")
	}
	return m.spinner.View() + recStyle.Render("Listening... ") + levelBar(m.micLevel, 12) +
		helpStyle.Render("  esc to cancel")
}

// levelBar scales RMS so normal speech (~0.05-0.1) fills most of the bar.
func levelBar(level float64, width int) string {
	n := min(int(level*float64(width)*10), width)
	return okStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", width-n))
}

func (m tuiModel) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"enter", "ask"},
		{"ctrl+r", "speak"},
		{"esc", "cancel recording"},
		{"tab", "language"},
		{"ctrl+y", "copy answer"},
		{"pgup/pgdn", "scroll"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = keyStyle.Render(k.key) + helpStyle.Render(" "+k.desc)
	}
	return strings.Join(parts, helpStyle.Render(" · "))
}

func (m tuiModel) renderSidebar() string {
	var lines []string
	lines = append(lines, titleStyle.Render("OORT DH Africa Assistant"), "")

	lines = append(lines, headingStyle.Render("Language"))
	for _, lang := range assistant.Languages {
		if lang == m.view.Language {
			lines = append(lines, okStyle.Render("● "+lang.Label()))
		} else {
			lines = append(lines, dimStyle.Render("○ "+lang.Label()))
		}
	}
	lines = append(lines, "")

	r := m.view.Readiness
	lines = append(lines, headingStyle.Render("System Status"),
		statusLine("🎙️ Voice Input", r.Recognition, "Active"),
		statusLine("🔊 Voice Output", r.Synthesis, "Active"),
		statusLine("🧠 Knowledge Base", r.KnowledgeBase, "Loaded"),
	)
	if hints := r.Troubleshooting(); len(hints) > 0 {
		lines = append(lines, "", headingStyle.Render("Troubleshooting"))
		for _, h := range hints {
			for _, l := range wrapText(h, sidebarWidth-4) {
				lines = append(lines, dimStyle.Render(l))
			}
		}
	}

	lines = append(lines, "", headingStyle.Render("About"))
	for _, l := range wrapText(aboutText, sidebarWidth-4) {
		lines = append(lines, dimStyle.Render(l))
	}
	lines = append(lines, "", helpStyle.Render("oort "+version))
	return strings.Join(lines, "\n")
}

func statusLine(label string, ok bool, okText string) string {
	if ok {
		return okStyle.Render(fmt.Sprintf("%s: %s", label, okText))
	}
	return badStyle.Render(fmt.Sprintf("%s: Not Available", label))
}

// wrapText breaks on spaces; words longer than width are split.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		r := []rune(para)
		if len(r) == 0 {
			lines = append(lines, "")
			continue
		}
		for len(r) > width {
			splitAt := width
			for i := width; i > 0; i-- {
				if r[i] == ' ' {
					splitAt = i
					break
				}
			}
			lines = append(lines, string(r[:splitAt]))
			r = []rune(strings.TrimLeft(string(r[splitAt:]), " "))
		}
		if len(r) > 0 {
			lines = append(lines, string(r))
		}
	}
	return lines
}
