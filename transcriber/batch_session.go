package transcriber

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"oort/encoder"
)

type transcribeFunc func(ctx context.Context, audio []byte, format string) (*Result, error)

// noSpeechThreshold drops whisper's hallucinated text on near-silent clips.
const noSpeechThreshold = 0.8

type batchSession struct {
	ctx        context.Context
	cfg        SessionConfig
	transcribe transcribeFunc
	encoder    encoder.Encoder
	chunks     chan []byte
	encodeDone chan struct{}
	encodeErr  error

	mu     sync.Mutex
	closed bool
}

func newBatchSession(ctx context.Context, cfg SessionConfig, transcribe transcribeFunc) (*batchSession, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}

	bs := &batchSession{
		ctx:        ctx,
		cfg:        cfg,
		transcribe: transcribe,
		encoder:    enc,
		chunks:     make(chan []byte, 64),
		encodeDone: make(chan struct{}),
	}

	go func() {
		defer close(bs.encodeDone)
		for chunk := range bs.chunks {
			if bs.encodeErr != nil {
				continue
			}
			if _, err := bs.encoder.Write(chunk); err != nil {
				bs.encodeErr = err
			}
		}
	}()

	return bs, nil
}

// Feed after Close is ignored.
func (bs *batchSession) Feed(pcm []byte) {
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if !bs.closed {
		bs.chunks <- buf
	}
}

func (bs *batchSession) finishEncoding() error {
	bs.mu.Lock()
	if !bs.closed {
		bs.closed = true
		close(bs.chunks)
	}
	bs.mu.Unlock()
	<-bs.encodeDone
	if bs.encodeErr != nil {
		return bs.encodeErr
	}
	return bs.encoder.Close()
}

// Abort discards the audio without uploading it.
func (bs *batchSession) Abort() {
	bs.finishEncoding()
}

func (bs *batchSession) Close() (SessionResult, error) {
	if err := bs.finishEncoding(); err != nil {
		return SessionResult{}, fmt.Errorf("encoding audio: %w", err)
	}

	audioData := bs.encoder.Bytes()
	result, err := bs.transcribe(bs.ctx, audioData, bs.encoder.Format())
	if err != nil {
		return SessionResult{}, err
	}

	text := strings.TrimSpace(result.Text)
	if result.NoSpeechProb >= noSpeechThreshold {
		text = ""
	}

	sr := SessionResult{
		Text:      text,
		NoSpeech:  text == "",
		RateLimit: result.RateLimit,
		AudioS:    encoder.Duration(bs.encoder.TotalFrames()).Seconds(),
		EncodedKB: float64(len(audioData)) / 1024,
		EncodeMs:  float64(bs.encoder.EncodeTime().Milliseconds()),
	}
	if result.Metrics != nil {
		sr.TranscribeMs = float64(result.Metrics.Total.Milliseconds())
	}
	return sr, nil
}
