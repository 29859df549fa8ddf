package assistant

import (
	"context"
	"strings"

	"oort/log"
)

type Outcome int

const (
	Answered Outcome = iota
	RejectedEmpty
	RejectedDuplicate
)

func (o Outcome) String() string {
	switch o {
	case Answered:
		return "answered"
	case RejectedEmpty:
		return "rejected_empty"
	default:
		return "rejected_duplicate"
	}
}

type Result struct {
	Outcome  Outcome
	Response string
}

func (r Result) Accepted() bool { return r.Outcome == Answered }

// Pipeline turns one unit of user input, typed or transcribed, into a
// question/answer pair and a speak task.
type Pipeline struct {
	session  *Session
	kb       KnowledgeBase
	output   VoiceOutput
	dispatch *Dispatcher
}

func NewPipeline(session *Session, kb KnowledgeBase, output VoiceOutput, dispatch *Dispatcher) *Pipeline {
	return &Pipeline{session: session, kb: kb, output: output, dispatch: dispatch}
}

// isDuplicate is the idempotency rule: input equal to the most recent user
// message is the same submission seen again by an overlapping refresh and
// must not be answered twice. The assistant reply that follows every
// accepted question is skipped over.
func isDuplicate(history []Message, text string) bool {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == User {
			return history[i].Content == text
		}
	}
	return false
}

// Process runs on the refresh goroutine. The knowledge base query blocks
// it; audio never does.
func (p *Pipeline) Process(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Outcome: RejectedEmpty}
	}

	accepted := p.session.appendIf(Message{Role: User, Content: text}, func(history []Message) bool {
		return !isDuplicate(history, text)
	})
	if !accepted {
		log.Info("input_duplicate")
		return Result{Outcome: RejectedDuplicate}
	}

	lang := p.session.Language()
	response := lang.NoAnswer()
	if p.kb != nil {
		response = p.kb.Query(text, lang)
	} else {
		log.Warn("knowledge base unavailable, answering with fallback")
	}
	p.session.append(Message{Role: Assistant, Content: response})
	log.Exchange(User.String(), text)
	log.Exchange(Assistant.String(), response)

	p.dispatch.Dispatch("speak", p.speakTask(response, lang))
	return Result{Outcome: Answered, Response: response}
}

// speakTask fails quietly: the text answer is already on screen.
func (p *Pipeline) speakTask(text string, lang Language) Task {
	return func(ctx context.Context) Event {
		if p.output == nil || !p.output.Ready() {
			return SpeakDone{Skipped: true}
		}
		if err := p.output.Speak(ctx, text, lang); err != nil {
			log.Warnf("speak failed: %v", err)
			return SpeakDone{Err: err}
		}
		return SpeakDone{}
	}
}
