package assistant

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"oort/log"
)

const ListenTimeout = 15 * time.Second

type Transition int

const (
	TransitionNone Transition = iota
	TransitionStarted
	TransitionStopped
)

// Recorder is the Idle/Recording state machine. The recording flag itself
// lives in the Session so the listen task and the refresh loop agree on it.
type Recorder struct {
	session  *Session
	input    VoiceInput
	dispatch *Dispatcher
	timeout  time.Duration
}

func NewRecorder(session *Session, input VoiceInput, dispatch *Dispatcher) *Recorder {
	return &Recorder{session: session, input: input, dispatch: dispatch, timeout: ListenTimeout}
}

// Toggle stops a recording without interrupting its task, or starts a new
// one and dispatches the listen task for it.
func (r *Recorder) Toggle() Transition {
	if r.session.cancelRecording() {
		log.Info("recording_cancel")
		return TransitionStopped
	}
	gen, lang, ok := r.session.startRecording()
	if !ok {
		return TransitionNone
	}
	log.Info(fmt.Sprintf("recording_start gen=%d lang=%s", gen, lang.Code()))
	r.dispatch.Dispatch("listen", r.listenTask(gen, lang))
	return TransitionStarted
}

func (r *Recorder) listenTask(gen uint64, lang Language) Task {
	return func(ctx context.Context) (ev Event) {
		done := ListenDone{Gen: gen}
		start := time.Now()

		// Runs on every exit path, panics included.
		defer func() {
			if p := recover(); p != nil {
				done.Outcome = ListenFailed
				done.Err = fmt.Errorf("listen panicked: %v", p)
				done.Stack = debug.Stack()
				done.Transcript = ""
			}
			if done.Stack != nil {
				log.Stack(done.Err, done.Stack)
			}
			done.Staged, done.Stale = r.session.finishListen(gen, done.Transcript)
			if done.Stale && done.Transcript != "" {
				log.Info(fmt.Sprintf("stale_transcript_discarded gen=%d", gen))
			}
			log.Listen(done.Outcome.String(), lang.Code(), time.Since(start), done.Stale)
			ev = done
		}()

		if r.input == nil || !r.input.Ready() {
			done.Outcome = ListenUnavailable
			return
		}

		text, err := r.input.Listen(ctx, lang, r.timeout)
		switch {
		case err != nil:
			done.Outcome = ListenFailed
			done.Err = err
			done.Stack = debug.Stack()
		case strings.TrimSpace(text) == "":
			done.Outcome = ListenNothingHeard
		default:
			done.Outcome = ListenHeard
			done.Transcript = strings.TrimSpace(text)
		}
		return
	}
}
