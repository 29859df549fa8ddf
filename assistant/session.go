package assistant

import "sync"

// Session is the state that outlives a single refresh cycle. The refresh
// goroutine and task goroutines share it, so every field is read and
// written under mu.
type Session struct {
	mu        sync.Mutex
	messages  []Message
	recording bool
	language  Language
	pending   *string
	listenGen uint64
}

func NewSession(lang Language) *Session {
	if lang == "" {
		lang = English
	}
	return &Session{language: lang}
}

// Snapshot is a consistent copy of the session taken under one lock.
type Snapshot struct {
	Messages  []Message
	Recording bool
	Language  Language
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Messages:  append([]Message(nil), s.messages...),
		Recording: s.recording,
		Language:  s.language,
	}
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Session) Language() Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage only affects later queries, listens and synthesis; the
// history is left untouched.
func (s *Session) SetLanguage(lang Language) {
	s.mu.Lock()
	s.language = lang
	s.mu.Unlock()
}

// appendIf evaluates accept against the current history and appends msg
// only when it returns true, all under one lock. accept must not retain
// the slice.
func (s *Session) appendIf(msg Message, accept func(history []Message) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !accept(s.messages) {
		return false
	}
	s.messages = append(s.messages, msg)
	return true
}

func (s *Session) append(msg Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

// startRecording moves Idle to Recording and returns the generation of the
// new listen. It reports false if a listen is already outstanding.
func (s *Session) startRecording() (uint64, Language, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		return 0, s.language, false
	}
	s.recording = true
	s.listenGen++
	return s.listenGen, s.language, true
}

// cancelRecording moves Recording to Idle. The outstanding listen keeps
// running but its generation is no longer current.
func (s *Session) cancelRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return false
	}
	s.recording = false
	s.listenGen++
	return true
}

// finishListen is the cleanup step of a listen task. When gen is current it
// clears recording and stages a non-empty transcript. A stale generation
// touches nothing: its transcript is dropped and a newer recording stays on.
func (s *Session) finishListen(gen uint64, transcript string) (staged, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.listenGen {
		return false, true
	}
	s.recording = false
	if transcript != "" {
		t := transcript
		s.pending = &t
		return true, false
	}
	return false, false
}

// TakeTranscript extracts and clears the staged transcript in one step so
// it can never be processed twice.
func (s *Session) TakeTranscript() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return "", false
	}
	t := *s.pending
	s.pending = nil
	return t, true
}

func (s *Session) PendingTranscript() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return "", false
	}
	return *s.pending, true
}
