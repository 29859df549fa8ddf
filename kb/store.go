package kb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"

	"oort/assistant"
)

// store is the FTS5 index over FAQ entries.
type store struct {
	db *sql.DB
}

func openStore(dbPath string) (*store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: the index is small and :memory: databases are
	// per-connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		lang TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_lang ON entries(lang);
	CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
		question, answer,
		content='entries', content_rowid='id'
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *store) close() error {
	return s.db.Close()
}

func (s *store) sourceHash(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'source_hash'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// replace swaps the whole index for entries in one transaction.
func (s *store) replace(ctx context.Context, entries []Entry, hash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (lang, question, answer) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, string(e.Lang), e.Question, e.Answer); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Question, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO entries_fts(entries_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('source_hash', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, hash); err != nil {
		return fmt.Errorf("store hash: %w", err)
	}
	return tx.Commit()
}

func (s *store) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// search returns the best answer in lang for the terms, or "" when nothing
// matches. Question matches weigh twice as much as answer matches.
func (s *store) search(ctx context.Context, terms []string, lang assistant.Language) (string, error) {
	if len(terms) == 0 {
		return "", nil
	}
	var answer string
	err := s.db.QueryRowContext(ctx, `
		SELECT e.answer
		FROM entries_fts
		JOIN entries e ON e.id = entries_fts.rowid
		WHERE entries_fts MATCH ? AND e.lang = ?
		ORDER BY bm25(entries_fts, 2.0, 1.0)
		LIMIT 1`, matchExpr(terms), string(lang)).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	return answer, nil
}

// matchExpr quotes every term so FTS5 never sees user input as syntax.
func matchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "can": true, "do": true,
	"does": true, "for": true, "how": true, "i": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"what": true, "when": true, "where": true, "who": true, "why": true,
	"with": true, "you": true, "my": true, "me": true, "be": true,
	"le": true, "la": true, "les": true, "de": true, "des": true, "du": true,
	"et": true, "est": true, "un": true, "une": true, "que": true, "qui": true,
	"ni": true, "na": true, "ya": true, "wa": true, "za": true, "kwa": true,
}

// terms splits a question into lowercase words, dropping punctuation and
// stopwords. If every word is a stopword the words are kept.
func terms(question string) []string {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	seen := make(map[string]bool)
	for _, w := range words {
		if stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	if len(out) == 0 {
		return words
	}
	return out
}
