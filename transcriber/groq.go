package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
)

type Groq struct {
	baseTranscriber
}

func NewGroq(apiKey string) *Groq {
	return &Groq{baseTranscriber{
		client: newAPIClient(),
		apiURL: "https://api.groq.com/openai/v1/audio/transcriptions",
		apiKey: apiKey,
		model:  "whisper-large-v3-turbo",
	}}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	go g.client.preconnect(g.apiURL)
	return newBatchSession(ctx, cfg, func(ctx context.Context, audio []byte, format string) (*Result, error) {
		return g.transcribe(ctx, audio, format, cfg.Language)
	})
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

func (g *Groq) transcribe(ctx context.Context, audioData []byte, format, lang string) (*Result, error) {
	resp, err := g.upload(ctx, audioData, format, map[string]string{
		"response_format": "verbose_json",
		"language":        lang,
	})
	if err != nil {
		return nil, fmt.Errorf("groq: %w", err)
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	// Whole-clip no-speech is the minimum across segments: one confident
	// segment means somebody spoke.
	noSpeech := 0.0
	for i, seg := range gResp.Segments {
		if i == 0 || seg.NoSpeechProb < noSpeech {
			noSpeech = seg.NoSpeechProb
		}
	}

	return &Result{
		Text:         gResp.Text,
		Metrics:      resp.Metrics,
		RateLimit:    rateLimit(resp.Header),
		NoSpeechProb: noSpeech,
		Duration:     gResp.Duration,
	}, nil
}
