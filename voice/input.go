package voice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"oort/assistant"
	"oort/audio"
	"oort/encoder"
	"oort/log"
	"oort/transcriber"
)

var ErrBusy = errors.New("microphone busy")

// Input is the microphone-backed speech recognizer. One Listen holds the
// microphone at a time. A later Listen asks the holder to yield, waits for
// the capture to stop and fails with ErrBusy only if its own timeout runs
// out first.
type Input struct {
	audio       audio.Context
	device      *audio.DeviceInfo
	transcriber transcriber.Transcriber

	tick     time.Duration
	trailing time.Duration

	mu        sync.Mutex
	capturing bool
	yield     chan struct{} // closed to ask the holder to stop capturing
	released  chan struct{} // closed when the holder stops capturing

	level atomic.Uint64
}

func NewInput(ctx audio.Context, device *audio.DeviceInfo, tr transcriber.Transcriber) *Input {
	return &Input{
		audio:       ctx,
		device:      device,
		transcriber: tr,
		tick:        tickInterval,
		trailing:    trailingSilence,
	}
}

func (in *Input) Ready() bool {
	return in != nil && in.audio != nil && in.transcriber != nil
}

// Level is the most recent input RMS, for the level meter.
func (in *Input) Level() float64 {
	return math.Float64frombits(in.level.Load())
}

func (in *Input) Provider() string {
	if in == nil || in.transcriber == nil {
		return "none"
	}
	return in.transcriber.Name()
}

func (in *Input) DeviceName() string {
	if in.device == nil {
		return "system default"
	}
	return in.device.Name
}

// Listen records until the speaker pauses or timeout elapses. With no
// speech it returns "" and never calls the transcription API. Speech cut
// off by the timeout is still transcribed. If a later Listen asks for the
// microphone, this one stops capturing and returns "" without uploading.
func (in *Input) Listen(ctx context.Context, lang assistant.Language, timeout time.Duration) (string, error) {
	if !in.Ready() {
		return "", errors.New("voice input not configured")
	}
	deadline := time.Now().Add(timeout)
	yield, err := in.acquire(ctx, deadline)
	if err != nil {
		return "", err
	}
	released := false
	release := func() {
		if !released {
			released = true
			in.release()
		}
	}
	defer release()
	defer in.level.Store(0)

	capture, err := in.audio.NewCapture(in.device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return "", fmt.Errorf("opening microphone: %w", err)
	}
	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		capture.ClearCallback()
		capture.Stop()
		capture.Close()
	}
	defer stop()

	sess, err := in.transcriber.NewSession(ctx, transcriber.SessionConfig{Language: lang.Code()})
	if err != nil {
		return "", fmt.Errorf("starting transcription: %w", err)
	}

	meter := &levelMeter{}
	capture.SetCallback(func(data []byte, _ uint32) {
		sess.Feed(data)
		meter.Add(data)
	})
	if err := capture.Start(); err != nil {
		stopped = true
		capture.ClearCallback()
		capture.Close()
		sess.Abort()
		return "", fmt.Errorf("starting capture: %w", err)
	}

	start := time.Now()
	ep := newEndpointer(in.tick, in.trailing)
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	ticker := time.NewTicker(in.tick)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			stop()
			sess.Abort()
			return "", ctx.Err()
		case <-timer.C:
			log.Info("listen_timeout")
			break loop
		case <-yield:
			// A newer listen wants the microphone; whatever this one heard
			// belongs to a recording that was already cancelled.
			log.Info("listen_yielded")
			stop()
			release()
			sess.Abort()
			return "", nil
		case <-ticker.C:
			lvl := meter.Take()
			in.level.Store(math.Float64bits(lvl))
			if ep.Tick(lvl >= speechLevel) == EndpointDone {
				break loop
			}
		}
	}
	stop()
	release()

	if !ep.Heard() {
		sess.Abort()
		return "", nil
	}

	result, err := sess.Close()
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}
	log.Capture(log.CaptureStats{
		AudioS:       result.AudioS,
		SpeechTicks:  ep.speechTicks,
		TotalTicks:   ep.ticks,
		EncodedKB:    result.EncodedKB,
		TranscribeMs: result.TranscribeMs,
		Provider:     in.transcriber.Name(),
	})
	log.Info(fmt.Sprintf("listen_captured after %s", time.Since(start).Round(time.Millisecond)))
	return result.Text, nil
}

func (in *Input) acquire(ctx context.Context, deadline time.Time) (<-chan struct{}, error) {
	wait := time.NewTimer(time.Until(deadline))
	defer wait.Stop()

	in.mu.Lock()
	for in.capturing {
		if in.yield != nil {
			close(in.yield)
			in.yield = nil
		}
		released := in.released
		in.mu.Unlock()
		select {
		case <-released:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait.C:
			return nil, ErrBusy
		}
		in.mu.Lock()
	}
	in.capturing = true
	in.yield = make(chan struct{})
	in.released = make(chan struct{})
	yield := in.yield
	in.mu.Unlock()
	return yield, nil
}

func (in *Input) release() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.capturing = false
	in.yield = nil
	close(in.released)
}
