package assistant

import "fmt"

// Event is the completion message a background task sends back to the
// refresh loop. Receiving one is what triggers the next refresh.
type Event interface {
	Task() string
}

type ListenOutcome int

const (
	ListenHeard ListenOutcome = iota
	ListenNothingHeard
	ListenUnavailable
	ListenFailed
)

func (o ListenOutcome) String() string {
	switch o {
	case ListenHeard:
		return "heard"
	case ListenNothingHeard:
		return "nothing_heard"
	case ListenUnavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

type ListenDone struct {
	Gen        uint64
	Outcome    ListenOutcome
	Transcript string
	Err        error
	Stack      []byte
	// Staged is true when Transcript was written to the session.
	Staged bool
	// Stale is true when recording was toggled off before the task ended.
	Stale bool
}

func (ListenDone) Task() string { return "listen" }

type SpeakDone struct {
	Err     error
	Skipped bool
}

func (SpeakDone) Task() string { return "speak" }

// TaskFailed is produced by the dispatcher when a task panics outside of
// its own recovery.
type TaskFailed struct {
	Name  string
	Err   error
	Stack []byte
}

func (e TaskFailed) Task() string { return e.Name }

// TaskDone stands in for a task that returned no event.
type TaskDone struct{ Name string }

func (e TaskDone) Task() string { return e.Name }

type StatusLevel int

const (
	StatusNone StatusLevel = iota
	StatusInfo
	StatusSuccess
	StatusWarning
	StatusError
)

// Status is the user-visible line produced by interpreting an event.
type Status struct {
	Level StatusLevel
	Text  string
}

func (s Status) Empty() bool { return s.Level == StatusNone }

func (e ListenDone) Status() Status {
	if e.Stale {
		return Status{Level: StatusInfo, Text: "Recording cancelled."}
	}
	switch e.Outcome {
	case ListenHeard:
		return Status{Level: StatusSuccess, Text: "Recognized: " + e.Transcript}
	case ListenNothingHeard:
		return Status{Level: StatusWarning, Text: "I didn't hear anything. Please try speaking again."}
	case ListenUnavailable:
		return Status{Level: StatusError, Text: "Voice input is not available. Please check that speech recognition is configured."}
	default:
		return Status{Level: StatusError, Text: fmt.Sprintf("Error during voice recognition: %v", e.Err)}
	}
}
