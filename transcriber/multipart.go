package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

type baseTranscriber struct {
	client *apiClient
	apiURL string
	apiKey string
	model  string
}

// upload posts one whisper-style multipart request.
func (b *baseTranscriber) upload(ctx context.Context, audioData []byte, format string, fields map[string]string) (*apiResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, err
	}
	writer.WriteField("model", b.model)
	for k, v := range fields {
		if v != "" {
			writer.WriteField(k, v)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(resp.Body))
	}
	return resp, nil
}

func rateLimit(h http.Header) string {
	return firstNonEmpty(h, "x-ratelimit-remaining-requests") + "/" + firstNonEmpty(h, "x-ratelimit-limit-requests")
}
