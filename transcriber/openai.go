package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
)

type OpenAI struct {
	baseTranscriber
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{baseTranscriber{
		client: newAPIClient(),
		apiURL: "https://api.openai.com/v1/audio/transcriptions",
		apiKey: apiKey,
		model:  "gpt-4o-transcribe",
	}}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	go o.client.preconnect(o.apiURL)
	return newBatchSession(ctx, cfg, func(ctx context.Context, audio []byte, format string) (*Result, error) {
		return o.transcribe(ctx, audio, format, cfg.Language)
	})
}

func (o *OpenAI) transcribe(ctx context.Context, audioData []byte, format, lang string) (*Result, error) {
	resp, err := o.upload(ctx, audioData, format, map[string]string{
		"response_format": "json",
		"language":        lang,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	var oResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	return &Result{
		Text:      oResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: rateLimit(resp.Header),
	}, nil
}
