package voice

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"oort/assistant"
	"oort/audio"
	"oort/transcriber"
)

// tonePCM is a square wave: alternating +amp/-amp samples.
func tonePCM(samples int, amp int16) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		s := amp
		if i%2 == 1 {
			s = -amp
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

func newTestInput(pcm []byte, tr transcriber.Transcriber) *Input {
	in := NewInput(audio.NewFakePCMContext(pcm, false), nil, tr)
	in.tick = 10 * time.Millisecond
	in.trailing = 50 * time.Millisecond
	return in
}

func TestListenTranscribesSpeech(t *testing.T) {
	tr := transcriber.NewFake("what is OORT", nil)
	in := newTestInput(tonePCM(1024*64, 8000), tr)

	text, err := in.Listen(context.Background(), assistant.French, 5*time.Second)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if text != "what is OORT" {
		t.Errorf("text = %q", text)
	}
	if tr.Uploads() != 1 {
		t.Errorf("uploads = %d, want 1", tr.Uploads())
	}
	if got := tr.Languages(); len(got) != 1 || got[0] != "fr" {
		t.Errorf("languages = %v, want [fr]", got)
	}
	if tr.FedBytes() < 1024*64*2 {
		t.Errorf("fed %d bytes, want at least the whole utterance", tr.FedBytes())
	}
}

func TestListenSilenceSkipsUpload(t *testing.T) {
	tr := transcriber.NewFake("hallucinated", nil)
	in := newTestInput(nil, tr)

	start := time.Now()
	text, err := in.Listen(context.Background(), assistant.English, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
	if tr.Uploads() != 0 {
		t.Errorf("uploads = %d, want 0", tr.Uploads())
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
}

func TestListenTranscriptionError(t *testing.T) {
	tr := transcriber.NewFake("", errors.New("503"))
	in := newTestInput(tonePCM(1024*64, 8000), tr)

	if _, err := in.Listen(context.Background(), assistant.English, 5*time.Second); err == nil {
		t.Fatal("expected error")
	}
}

func TestListenBusy(t *testing.T) {
	in := newTestInput(nil, transcriber.NewFake("", nil))
	// Hold the microphone without ever honouring the yield request.
	if _, err := in.acquire(context.Background(), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := in.Listen(context.Background(), assistant.English, 50*time.Millisecond); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
}

func TestListenWaitsForMicrophone(t *testing.T) {
	in := newTestInput(tonePCM(1024*16, 8000), transcriber.NewFake("hello", nil))
	if _, err := in.acquire(context.Background(), time.Now().Add(time.Second)); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	time.AfterFunc(30*time.Millisecond, in.release)

	text, err := in.Listen(context.Background(), assistant.English, 5*time.Second)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want hello", text)
	}
}

func TestNewerListenTakesMicrophone(t *testing.T) {
	tr := transcriber.NewFake("second", nil)
	in := newTestInput(nil, tr)

	type result struct {
		text string
		err  error
	}
	first := make(chan result, 1)
	go func() {
		text, err := in.Listen(context.Background(), assistant.English, 5*time.Second)
		first <- result{text, err}
	}()
	// Let the first listen open the microphone.
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	if _, err := in.Listen(context.Background(), assistant.English, 200*time.Millisecond); err != nil {
		t.Fatalf("second Listen: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("second listen took %v", elapsed)
	}

	select {
	case r := <-first:
		if r.err != nil || r.text != "" {
			t.Errorf("first listen = (%q, %v), want empty and no error", r.text, r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first listen did not yield the microphone")
	}
	if tr.Uploads() != 0 {
		t.Errorf("uploads = %d, want 0", tr.Uploads())
	}
}

func TestListenContextCancelled(t *testing.T) {
	tr := transcriber.NewFake("never", nil)
	in := newTestInput(nil, tr)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	if _, err := in.Listen(ctx, assistant.English, 5*time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if tr.Uploads() != 0 {
		t.Error("cancelled listen should not upload")
	}
}

func TestReady(t *testing.T) {
	var nilInput *Input
	if nilInput.Ready() {
		t.Error("nil input should not be ready")
	}
	if NewInput(nil, nil, transcriber.NewFake("", nil)).Ready() {
		t.Error("input without audio should not be ready")
	}
	if !newTestInput(nil, transcriber.NewFake("", nil)).Ready() {
		t.Error("configured input should be ready")
	}
}

type answerKB struct{}

func (answerKB) Ready() bool { return true }

func (answerKB) Query(text string, _ assistant.Language) string { return "answer: " + text }

func TestCancelThenRecordAgain(t *testing.T) {
	in := newTestInput(tonePCM(1024*400, 8000), transcriber.NewFake("what is OORT", nil))
	ctx, cancel := context.WithCancel(context.Background())
	coord := assistant.NewCoordinator(ctx, assistant.English, assistant.Collaborators{
		KnowledgeBase: answerKB{},
		Input:         in,
	})
	t.Cleanup(func() {
		cancel()
		coord.Wait()
	})

	coord.PressMic()
	time.Sleep(50 * time.Millisecond)
	coord.CancelRecording()
	if tr := coord.PressMic(); tr != assistant.TransitionStarted {
		t.Fatalf("PressMic after cancel = %v, want started", tr)
	}

	var stale, current *assistant.ListenDone
	for stale == nil || current == nil {
		select {
		case ev := <-coord.Events():
			ld, ok := ev.(assistant.ListenDone)
			if !ok {
				continue
			}
			if ld.Stale {
				stale = &ld
			} else {
				current = &ld
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for both listens")
		}
	}

	if current.Outcome != assistant.ListenHeard || !current.Staged {
		t.Errorf("new recording = %+v, want heard and staged", *current)
	}
	if st := current.Status(); st.Level != assistant.StatusSuccess {
		t.Errorf("status = %+v", st)
	}
	if stale.Staged {
		t.Error("cancelled recording staged a transcript")
	}

	view := coord.Cycle()
	if len(view.Messages) != 2 || view.Messages[0].Content != "what is OORT" {
		t.Errorf("messages = %+v", view.Messages)
	}
}
