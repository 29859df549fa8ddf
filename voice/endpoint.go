package voice

import "time"

const (
	tickInterval       = 100 * time.Millisecond
	trailingSilence    = 1200 * time.Millisecond
	speechConfirmTicks = 2
	speechLevel        = 0.02 // normalized RMS
)

type Endpoint int

const (
	EndpointNone        Endpoint = iota
	EndpointSpeechStart          // speech confirmed
	EndpointDone                 // trailing silence after speech
)

// endpointer decides when an utterance has ended from one speech/no-speech
// sample per tick. Silence before the first confirmed speech never ends the
// utterance; only the caller's timeout does.
type endpointer struct {
	confirmAt int
	hangover  int

	ticks       int
	speechTicks int
	speechRun   int
	silenceRun  int
	heard       bool
}

func newEndpointer(tick, trailing time.Duration) *endpointer {
	hangover := int(trailing / tick)
	if hangover < 1 {
		hangover = 1
	}
	return &endpointer{confirmAt: speechConfirmTicks, hangover: hangover}
}

func (e *endpointer) Tick(hasSpeech bool) Endpoint {
	e.ticks++
	if hasSpeech {
		e.speechTicks++
		e.speechRun++
		e.silenceRun = 0
		if !e.heard && e.speechRun >= e.confirmAt {
			e.heard = true
			return EndpointSpeechStart
		}
		return EndpointNone
	}

	e.speechRun = 0
	if !e.heard {
		return EndpointNone
	}
	e.silenceRun++
	if e.silenceRun >= e.hangover {
		return EndpointDone
	}
	return EndpointNone
}

func (e *endpointer) Heard() bool { return e.heard }
