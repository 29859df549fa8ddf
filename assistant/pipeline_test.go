package assistant

import (
	"context"
	"testing"
)

type pipelineHarness struct {
	session  *Session
	kb       *fakeKB
	out      *fakeOutput
	dispatch *Dispatcher
	pipeline *Pipeline
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := &pipelineHarness{
		session:  NewSession(English),
		kb:       newFakeKB(),
		out:      &fakeOutput{ready: true},
		dispatch: NewDispatcher(ctx, 16),
	}
	h.pipeline = NewPipeline(h.session, h.kb, h.out, h.dispatch)
	return h
}

func TestProcessAppendsExchangeAndSpeaks(t *testing.T) {
	h := newPipelineHarness(t)

	r := h.pipeline.Process("When does the program start?")
	if r.Outcome != Answered {
		t.Fatalf("Outcome = %v, want answered", r.Outcome)
	}

	msgs := h.session.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0] != (Message{Role: User, Content: "When does the program start?"}) {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != Assistant || msgs[1].Content != r.Response {
		t.Errorf("second message = %+v, want assistant %q", msgs[1], r.Response)
	}

	if ev := waitEvent(t, h.dispatch.Events()); ev.Task() != "speak" {
		t.Fatalf("event = %T, want speak", ev)
	}
	if got := h.dispatch.Dispatched("speak"); got != 1 {
		t.Errorf("speak dispatched %d times, want 1", got)
	}
	if got := h.out.count(); got != 1 {
		t.Errorf("Speak called %d times, want 1", got)
	}
}

func TestProcessRejectsBlankInput(t *testing.T) {
	for _, input := range []string{"", " ", "\t\n", "   \r\n  "} {
		t.Run(input, func(t *testing.T) {
			h := newPipelineHarness(t)
			r := h.pipeline.Process(input)
			if r.Outcome != RejectedEmpty {
				t.Errorf("Outcome = %v, want rejected_empty", r.Outcome)
			}
			if n := len(h.session.Messages()); n != 0 {
				t.Errorf("got %d messages, want 0", n)
			}
			if n := h.dispatch.Dispatched("speak"); n != 0 {
				t.Errorf("speak dispatched %d times, want 0", n)
			}
			if n := len(h.kb.queried()); n != 0 {
				t.Errorf("kb queried %d times, want 0", n)
			}
		})
	}
}

func TestProcessSubmittedTwiceIsAnsweredOnce(t *testing.T) {
	h := newPipelineHarness(t)
	q := "When does the program start?"

	h.pipeline.Process(q)
	waitEvent(t, h.dispatch.Events())

	r := h.pipeline.Process(q)
	if r.Outcome != RejectedDuplicate {
		t.Fatalf("Outcome = %v, want rejected_duplicate", r.Outcome)
	}
	if n := len(h.session.Messages()); n != 2 {
		t.Errorf("got %d messages, want 2", n)
	}
	if n := h.dispatch.Dispatched("speak"); n != 1 {
		t.Errorf("speak dispatched %d times, want 1", n)
	}
	if n := len(h.kb.queried()); n != 1 {
		t.Errorf("kb queried %d times, want 1", n)
	}
}

func TestProcessDuplicateOnlyAgainstLatestUserMessage(t *testing.T) {
	h := newPipelineHarness(t)

	h.pipeline.Process("hello")
	h.pipeline.Process("how do I join?")
	if r := h.pipeline.Process("hello"); r.Outcome != Answered {
		t.Errorf("repeat of an older question: Outcome = %v, want answered", r.Outcome)
	}
	if n := len(h.session.Messages()); n != 6 {
		t.Errorf("got %d messages, want 6", n)
	}
}

func TestProcessNotDuplicateWhenContentDiffers(t *testing.T) {
	h := newPipelineHarness(t)

	h.pipeline.Process("hello")
	if r := h.pipeline.Process("hello "); r.Outcome != Answered {
		t.Errorf("Outcome = %v, want answered for differing content", r.Outcome)
	}
}

func TestIsDuplicate(t *testing.T) {
	q := Message{Role: User, Content: "hi"}
	a := Message{Role: Assistant, Content: "hello there"}
	for _, tt := range []struct {
		name    string
		history []Message
		text    string
		want    bool
	}{
		{"empty history", nil, "hi", false},
		{"same user text last", []Message{q}, "hi", true},
		{"same user text before reply", []Message{q, a}, "hi", true},
		{"matches assistant text only", []Message{{Role: User, Content: "x"}, {Role: Assistant, Content: "hi"}}, "hi", false},
		{"different text", []Message{q, a}, "hello", false},
		{"older user message", []Message{q, a, {Role: User, Content: "join?"}, a}, "hi", false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicate(tt.history, tt.text); got != tt.want {
				t.Errorf("isDuplicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpeakFailureIsSwallowed(t *testing.T) {
	h := newPipelineHarness(t)
	h.out.err = errMicrophone

	r := h.pipeline.Process("what is OORT?")
	if !r.Accepted() {
		t.Fatal("expected input to be answered")
	}
	ev := waitEvent(t, h.dispatch.Events())
	sd, ok := ev.(SpeakDone)
	if !ok {
		t.Fatalf("event = %T, want SpeakDone", ev)
	}
	if sd.Err == nil {
		t.Error("expected speak error to be reported in the event")
	}
	if n := len(h.session.Messages()); n != 2 {
		t.Errorf("got %d messages, want 2", n)
	}
}

func TestSpeakSkippedWhenSynthesisUnavailable(t *testing.T) {
	h := newPipelineHarness(t)
	h.out.ready = false

	h.pipeline.Process("what is OORT?")
	ev := waitEvent(t, h.dispatch.Events())
	if sd, ok := ev.(SpeakDone); !ok || !sd.Skipped {
		t.Errorf("event = %+v, want skipped SpeakDone", ev)
	}
	if n := h.out.count(); n != 0 {
		t.Errorf("Speak called %d times, want 0", n)
	}
}

func TestProcessUsesCurrentLanguage(t *testing.T) {
	h := newPipelineHarness(t)

	h.pipeline.Process("hello")
	h.session.SetLanguage(Swahili)
	h.pipeline.Process("habari")

	got := h.kb.queried()
	if len(got) != 2 || got[0] != English || got[1] != Swahili {
		t.Errorf("queried languages = %v, want [english swahili]", got)
	}
}
