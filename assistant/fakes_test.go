package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeKB struct {
	ready bool

	mu      sync.Mutex
	queries []Language
}

func newFakeKB() *fakeKB { return &fakeKB{ready: true} }

func (k *fakeKB) Ready() bool { return k.ready }

func (k *fakeKB) Query(text string, lang Language) string {
	k.mu.Lock()
	k.queries = append(k.queries, lang)
	k.mu.Unlock()
	return "answer(" + lang.Code() + "): " + text
}

func (k *fakeKB) queried() []Language {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]Language(nil), k.queries...)
}

type fakeInput struct {
	ready bool
	text  string
	err   error
	panic any
	// release, when non-nil, holds Listen until it is closed.
	release chan struct{}

	mu    sync.Mutex
	calls []Language
}

func (f *fakeInput) Ready() bool { return f.ready }

func (f *fakeInput) Listen(ctx context.Context, lang Language, timeout time.Duration) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, lang)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.panic != nil {
		panic(f.panic)
	}
	return f.text, f.err
}

func (f *fakeInput) listened() []Language {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Language(nil), f.calls...)
}

type fakeOutput struct {
	ready bool
	err   error

	mu     sync.Mutex
	spoken []string
}

func (f *fakeOutput) Ready() bool { return f.ready }

func (f *fakeOutput) Speak(_ context.Context, text string, _ Language) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	return f.err
}

func (f *fakeOutput) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

var errMicrophone = errors.New("microphone unplugged")

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task event")
		return nil
	}
}

func waitListen(t *testing.T, ch <-chan Event) ListenDone {
	t.Helper()
	for {
		ev := waitEvent(t, ch)
		if ld, ok := ev.(ListenDone); ok {
			return ld
		}
	}
}

func expectNoEvent(t *testing.T, ch <-chan Event, d time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %T", ev)
	case <-time.After(d):
	}
}
