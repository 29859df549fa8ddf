package main

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"oort/assistant"
)

type stubKB struct{}

func (stubKB) Ready() bool { return true }

func (stubKB) Query(text string, lang assistant.Language) string {
	return "[" + lang.Code() + "] answer to " + text
}

type stubInput struct {
	ready bool
	text  string
}

func (s stubInput) Ready() bool { return s.ready }

func (s stubInput) Listen(context.Context, assistant.Language, time.Duration) (string, error) {
	return s.text, nil
}

type stubOutput struct{}

func (stubOutput) Ready() bool { return false }

func (stubOutput) Speak(context.Context, string, assistant.Language) error { return nil }

func newTestModel(t *testing.T, input assistant.VoiceInput) (tuiModel, *assistant.Coordinator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	coord := assistant.NewCoordinator(ctx, assistant.English, assistant.Collaborators{
		KnowledgeBase: stubKB{},
		Input:         input,
		Output:        stubOutput{},
	})
	t.Cleanup(func() {
		cancel()
		coord.Wait()
	})
	m := newTUIModel(coord, nil, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, coord
}

func update(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(tuiModel)
}

func typeText(t *testing.T, m tuiModel, s string) tuiModel {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func nextEvent(t *testing.T, coord *assistant.Coordinator) assistant.Event {
	t.Helper()
	select {
	case ev := <-coord.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task event")
		return nil
	}
}

func TestSubmitShowsExchangeAfterRefresh(t *testing.T) {
	m, coord := newTestModel(t, stubInput{})

	m = typeText(t, m, "When does the program start?")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	m = update(t, m, refreshMsg{})

	if len(m.view.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(m.view.Messages))
	}
	if !strings.Contains(m.history.View(), "answer to When does the program start?") {
		t.Errorf("history missing answer:\n%s", m.history.View())
	}
	if got := coord.Dispatcher().Dispatched("speak"); got != 1 {
		t.Errorf("speak dispatched %d times, want 1", got)
	}
}

func TestDuplicateSubmitIgnored(t *testing.T) {
	m, coord := newTestModel(t, stubInput{})

	for i := 0; i < 2; i++ {
		m = typeText(t, m, "When does the program start?")
		m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m = update(t, m, refreshMsg{})
	}
	if len(m.view.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(m.view.Messages))
	}
	if got := coord.Dispatcher().Dispatched("speak"); got != 1 {
		t.Errorf("speak dispatched %d times, want 1", got)
	}
}

func TestMicUnavailable(t *testing.T) {
	m, coord := newTestModel(t, stubInput{ready: false})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m = update(t, m, eventMsg{ev: nextEvent(t, coord)})

	if m.view.Recording {
		t.Error("recording should be cleared")
	}
	if m.status.Level != assistant.StatusError || !strings.Contains(m.status.Text, "not available") {
		t.Errorf("status = %+v", m.status)
	}
}

func TestMicTranscriptAnswered(t *testing.T) {
	m, coord := newTestModel(t, stubInput{ready: true, text: "how do I earn rewards"})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !strings.Contains(m.View(), "Listening...") {
		t.Error("listening indicator not shown")
	}
	ev := nextEvent(t, coord)
	m = update(t, m, eventMsg{ev: ev})

	if len(m.view.Messages) != 2 || m.view.Messages[0].Content != "how do I earn rewards" {
		t.Fatalf("messages = %+v", m.view.Messages)
	}
	if m.status.Level != assistant.StatusSuccess {
		t.Errorf("status = %+v", m.status)
	}
	if _, ok := coord.Session().PendingTranscript(); ok {
		t.Error("transcript should be consumed")
	}

	// Further refreshes must not answer it again.
	m = update(t, m, refreshMsg{})
	m = update(t, m, refreshMsg{})
	if len(m.view.Messages) != 2 {
		t.Errorf("messages = %d after refreshes, want 2", len(m.view.Messages))
	}
}

func TestLanguageCycleKeepsHistory(t *testing.T) {
	m, _ := newTestModel(t, stubInput{})

	m = typeText(t, m, "hello")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, refreshMsg{})

	if m.view.Language != assistant.French {
		t.Fatalf("language = %s, want french", m.view.Language)
	}
	if m.view.Messages[1].Content != "[en] answer to hello" {
		t.Errorf("history changed: %+v", m.view.Messages)
	}

	m = typeText(t, m, "bonjour")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, refreshMsg{})
	if got := m.view.Messages[3].Content; got != "[fr] answer to bonjour" {
		t.Errorf("answer = %q", got)
	}
}

func TestViewShowsSystemStatus(t *testing.T) {
	m, _ := newTestModel(t, stubInput{ready: false})
	out := m.View()
	for _, want := range []string{"System Status", "Voice Input: Not Available", "Knowledge Base: Loaded", "Troubleshooting"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"hello world", 20, []string{"hello world"}},
		{"hello world", 5, []string{"hello", "world"}},
		{"abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"مرحبا بالعالم", 6, []string{"مرحبا", "بالعال", "م"}},
		{"a\nb", 10, []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHelpListsMicKeys(t *testing.T) {
	m, _ := newTestModel(t, stubInput{})
	help := m.renderHelp()
	for _, want := range []string{"ctrl+r", "esc", "cancel recording"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q: %s", want, help)
		}
	}
}
