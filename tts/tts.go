package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"oort/assistant"
	"oort/audio"
	"oort/log"
)

// OpenAI returns raw PCM as 24 kHz 16-bit mono.
const (
	pcmSampleRate = 24000
	pcmChannels   = 1
	maxInputChars = 4096
)

var ErrNotConfigured = errors.New("voice output not configured")

// Synthesizer speaks answers through the OpenAI speech endpoint and the
// local audio output. Clips never overlap: a second Speak waits for the
// first to finish.
type Synthesizer struct {
	client *openai.Client
	player audio.Player
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	speeds map[assistant.Language]float64

	mu sync.Mutex
}

type Options struct {
	Model string
	Voice string
	// BaseURL overrides the API endpoint, e.g. for a compatible local
	// server.
	BaseURL string
}

func New(apiKey string, player audio.Player, opts Options) *Synthesizer {
	if apiKey == "" || player == nil {
		return &Synthesizer{player: player}
	}
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	model := openai.SpeechModel(opts.Model)
	if model == "" {
		model = openai.TTSModel1
	}
	voice := openai.SpeechVoice(opts.Voice)
	if voice == "" {
		voice = openai.VoiceAlloy
	}
	return &Synthesizer{
		client: openai.NewClientWithConfig(cfg),
		player: player,
		model:  model,
		voice:  voice,
		// Slightly slower for the languages the voices are weakest in.
		speeds: map[assistant.Language]float64{
			assistant.Arabic:  0.9,
			assistant.Swahili: 0.9,
		},
	}
}

func (s *Synthesizer) Ready() bool {
	return s != nil && s.client != nil && s.player != nil
}

func (s *Synthesizer) Speak(ctx context.Context, text string, lang assistant.Language) error {
	if !s.Ready() {
		return ErrNotConfigured
	}
	text = clip(strings.TrimSpace(text), maxInputChars)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	pcm, err := s.synthesize(ctx, text, lang)
	if err != nil {
		return err
	}
	synthMs := float64(time.Since(start).Milliseconds())

	playStart := time.Now()
	if err := s.player.Play(ctx, pcm, audio.PlaybackConfig{SampleRate: pcmSampleRate, Channels: pcmChannels}); err != nil {
		return fmt.Errorf("playing speech: %w", err)
	}
	log.Speak(lang.Code(), len([]rune(text)), synthMs, float64(time.Since(playStart).Milliseconds()))
	return nil
}

func (s *Synthesizer) synthesize(ctx context.Context, text string, lang assistant.Language) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          s.speed(lang),
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech: %w", err)
	}
	// Drop a trailing odd byte so the player only sees whole samples.
	return pcm[:len(pcm)&^1], nil
}

func (s *Synthesizer) speed(lang assistant.Language) float64 {
	if v, ok := s.speeds[lang]; ok {
		return v
	}
	return 1.0
}

// clip cuts text to at most n runes, preferring a sentence boundary.
func clip(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	cut := string(r[:n])
	if i := strings.LastIndexAny(cut, ".!?"); i > 0 {
		return cut[:i+1]
	}
	return cut
}
