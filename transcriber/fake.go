package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// FakeTranscriber returns a fixed transcript and remembers how much audio
// each session received.
type FakeTranscriber struct {
	text string
	err  error

	mu        sync.Mutex
	sessions  int
	fedBytes  int
	languages []string
	uploads   int
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) NewSession(_ context.Context, cfg SessionConfig) (Session, error) {
	f.mu.Lock()
	f.sessions++
	f.languages = append(f.languages, cfg.Language)
	f.mu.Unlock()
	return &fakeSession{owner: f}, nil
}

// Uploads counts sessions that were closed rather than aborted.
func (f *FakeTranscriber) Uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

func (f *FakeTranscriber) FedBytes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fedBytes
}

func (f *FakeTranscriber) Languages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.languages...)
}

type fakeSession struct {
	owner *FakeTranscriber
}

func (s *fakeSession) Feed(pcm []byte) {
	s.owner.mu.Lock()
	s.owner.fedBytes += len(pcm)
	s.owner.mu.Unlock()
}

func (s *fakeSession) Abort() {}

func (s *fakeSession) Close() (SessionResult, error) {
	f := s.owner
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	if f.err != nil {
		return SessionResult{}, fmt.Errorf("fake transcriber error: %w", f.err)
	}
	return SessionResult{
		Text:         f.text,
		NoSpeech:     f.text == "",
		AudioS:       1.0,
		TranscribeMs: 10,
	}, nil
}
