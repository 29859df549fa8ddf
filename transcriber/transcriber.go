package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	NoSpeechProb float64
	Duration     float64
}

type SessionConfig struct {
	// Language is an ISO-639-1 hint; empty lets the provider detect it.
	Language string
}

type SessionResult struct {
	Text         string
	NoSpeech     bool
	RateLimit    string
	AudioS       float64
	EncodedKB    float64
	EncodeMs     float64
	TranscribeMs float64
}

// Session collects one utterance. Feed may be called from an audio callback;
// Close uploads the encoded audio and blocks for the transcript.
type Session interface {
	Feed(pcm []byte)
	Close() (SessionResult, error)
	Abort()
}

type Transcriber interface {
	Name() string
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// New picks a provider by name. An empty provider prefers Groq when its key
// is set.
func New(provider, groqKey, openaiKey string) (Transcriber, error) {
	switch provider {
	case "groq":
		if groqKey == "" {
			return nil, fmt.Errorf("provider groq needs GROQ_API_KEY")
		}
		return NewGroq(groqKey), nil
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("provider openai needs OPENAI_API_KEY")
		}
		return NewOpenAI(openaiKey), nil
	case "":
		if groqKey != "" {
			return NewGroq(groqKey), nil
		}
		if openaiKey != "" {
			return NewOpenAI(openaiKey), nil
		}
		return nil, fmt.Errorf("set GROQ_API_KEY or OPENAI_API_KEY environment variable")
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", provider)
	}
}
