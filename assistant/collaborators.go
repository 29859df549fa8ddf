package assistant

import (
	"context"
	"time"
)

// KnowledgeBase answers questions. Query never returns an empty string;
// when nothing matches it returns its own localized fallback.
type KnowledgeBase interface {
	Ready() bool
	Query(text string, lang Language) string
}

// VoiceInput returns "" with a nil error on silence or timeout.
type VoiceInput interface {
	Ready() bool
	Listen(ctx context.Context, lang Language, timeout time.Duration) (string, error)
}

type VoiceOutput interface {
	Ready() bool
	Speak(ctx context.Context, text string, lang Language) error
}
