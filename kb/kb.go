package kb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"oort/assistant"
	"oort/log"
)

// Fallback is the answer given when nothing in the index matches.
func Fallback(lang assistant.Language) string {
	return lang.NoAnswer()
}

// KnowledgeBase answers questions from an indexed FAQ document.
type KnowledgeBase struct {
	store   *store
	entries atomic.Int64
	timeout time.Duration
}

// Open opens (creating if needed) the index at dbPath. Use ":memory:" for
// a throwaway index.
func Open(dbPath string) (*KnowledgeBase, error) {
	s, err := openStore(dbPath)
	if err != nil {
		return nil, err
	}
	kb := &KnowledgeBase{store: s, timeout: 5 * time.Second}
	n, err := s.count(context.Background())
	if err != nil {
		s.close()
		return nil, fmt.Errorf("count entries: %w", err)
	}
	kb.entries.Store(int64(n))
	return kb, nil
}

// Load indexes the FAQ file, skipping the rebuild when the file has not
// changed since the last load. It returns the number of indexed entries.
func (kb *KnowledgeBase) Load(ctx context.Context, path string) (int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading knowledge base: %w", err)
	}
	return kb.LoadBytes(ctx, src)
}

func (kb *KnowledgeBase) LoadBytes(ctx context.Context, src []byte) (int, error) {
	sum := sha256.Sum256(src)
	hash := hex.EncodeToString(sum[:])

	prev, err := kb.store.sourceHash(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading index metadata: %w", err)
	}
	if prev == hash && kb.entries.Load() > 0 {
		log.Info("kb_index_current")
		return int(kb.entries.Load()), nil
	}

	entries := Parse(src)
	if err := kb.store.replace(ctx, entries, hash); err != nil {
		return 0, fmt.Errorf("indexing knowledge base: %w", err)
	}
	kb.entries.Store(int64(len(entries)))
	log.Info(fmt.Sprintf("kb_indexed entries=%d", len(entries)))
	return len(entries), nil
}

// Ready reports whether the index holds any entries. It does not touch
// the database.
func (kb *KnowledgeBase) Ready() bool {
	return kb != nil && kb.entries.Load() > 0
}

func (kb *KnowledgeBase) Entries() int {
	if kb == nil {
		return 0
	}
	return int(kb.entries.Load())
}

// Query looks in the requested language first, then English. It never
// returns "": a miss or a lookup error yields the localized fallback.
func (kb *KnowledgeBase) Query(text string, lang assistant.Language) string {
	if !kb.Ready() {
		return Fallback(lang)
	}
	ctx, cancel := context.WithTimeout(context.Background(), kb.timeout)
	defer cancel()

	t := terms(text)
	langs := []assistant.Language{lang}
	if lang != assistant.English {
		langs = append(langs, assistant.English)
	}
	for _, l := range langs {
		answer, err := kb.store.search(ctx, t, l)
		if err != nil {
			log.Errorf("kb query failed: %v", err)
			break
		}
		if answer != "" {
			return answer
		}
	}
	return Fallback(lang)
}

func (kb *KnowledgeBase) Close() error {
	if kb == nil {
		return nil
	}
	return kb.store.close()
}
