package assistant

import "context"

// Coordinator owns the session and the components that act on it. The
// host UI calls Cycle on every refresh and routes user actions and task
// events through the other methods, all from one goroutine.
type Coordinator struct {
	session  *Session
	dispatch *Dispatcher
	recorder *Recorder
	pipeline *Pipeline
	probe    *Probe
}

type Collaborators struct {
	KnowledgeBase KnowledgeBase
	Input         VoiceInput
	Output        VoiceOutput
}

func NewCoordinator(ctx context.Context, lang Language, c Collaborators) *Coordinator {
	session := NewSession(lang)
	dispatch := NewDispatcher(ctx, 16)
	return &Coordinator{
		session:  session,
		dispatch: dispatch,
		recorder: NewRecorder(session, c.Input, dispatch),
		pipeline: NewPipeline(session, c.KnowledgeBase, c.Output, dispatch),
		probe:    NewProbe(c.Input, c.Output, c.KnowledgeBase),
	}
}

// View is everything the UI needs to render one cycle.
type View struct {
	Messages   []Message
	Recording  bool
	MicEnabled bool
	Language   Language
	Readiness  Readiness
	// Voice is set when this cycle answered a staged transcript.
	Voice *Result
}

// Cycle consumes a staged transcript at most once, then snapshots the
// session for rendering.
func (c *Coordinator) Cycle() View {
	var voice *Result
	if text, ok := c.session.TakeTranscript(); ok {
		r := c.pipeline.Process(text)
		voice = &r
	}
	snap := c.session.Snapshot()
	return View{
		Messages:   snap.Messages,
		Recording:  snap.Recording,
		MicEnabled: !snap.Recording,
		Language:   snap.Language,
		Readiness:  c.probe.Check(),
		Voice:      voice,
	}
}

// Submit handles typed input. The caller requests a refresh afterwards so
// the new messages show up at once.
func (c *Coordinator) Submit(text string) Result {
	return c.pipeline.Process(text)
}

// PressMic is the mic control. It is disabled while recording, so it only
// ever starts a listen.
func (c *Coordinator) PressMic() Transition {
	if c.session.Recording() {
		return TransitionNone
	}
	return c.recorder.Toggle()
}

// CancelRecording toggles Recording back to Idle. The listen task keeps
// running and its transcript is discarded when it finishes.
func (c *Coordinator) CancelRecording() Transition {
	if !c.session.Recording() {
		return TransitionNone
	}
	return c.recorder.Toggle()
}

func (c *Coordinator) SetLanguage(lang Language) {
	c.session.SetLanguage(lang)
}

func (c *Coordinator) Language() Language { return c.session.Language() }

// Apply interprets a task event as a status line. State changes were
// already made by the task itself.
func (c *Coordinator) Apply(ev Event) Status {
	switch e := ev.(type) {
	case ListenDone:
		return e.Status()
	case TaskFailed:
		return Status{Level: StatusError, Text: e.Err.Error()}
	}
	return Status{}
}

func (c *Coordinator) Events() <-chan Event { return c.dispatch.Events() }

func (c *Coordinator) Session() *Session { return c.session }

func (c *Coordinator) Dispatcher() *Dispatcher { return c.dispatch }

func (c *Coordinator) Readiness() Readiness { return c.probe.Check() }

// LastAnswer returns the most recent assistant message, if any.
func (c *Coordinator) LastAnswer() (string, bool) {
	msgs := c.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == Assistant {
			return msgs[i].Content, true
		}
	}
	return "", false
}

// Wait blocks until all background tasks have finished.
func (c *Coordinator) Wait() { c.dispatch.Wait() }
