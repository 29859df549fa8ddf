package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const appDir = "oort-assistant"

const (
	diagnosticsFile  = "diagnostics_log.txt"
	conversationFile = "conversation_log.txt"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	convFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

// ResolveDir picks the log directory: flag first, then OORT_LOG_PATH, then
// the OS default. Relative paths are resolved against the working dir.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("OORT_LOG_PATH")} {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, diagnosticsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	convFile, err = os.OpenFile(filepath.Join(dir, conversationFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

// Close is safe to call more than once.
func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if convFile != nil {
		convFile.Close()
		convFile = nil
	}
	logReady = false
}

func ready() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return logReady
}

func Info(msg string) {
	if ready() {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if ready() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if ready() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if ready() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if ready() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

// Stack logs err together with a goroutine stack trace.
func Stack(err error, stack []byte) {
	if !ready() {
		return
	}
	diagLog.Error().
		Err(err).
		Str("stack", strings.TrimSpace(string(stack))).
		Msg("task_failure")
}

// Listen records the outcome of one listen task.
func Listen(outcome, lang string, elapsed time.Duration, stale bool) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("outcome", outcome).
		Str("lang", lang).
		Float64("elapsed_ms", float64(elapsed.Milliseconds())).
		Bool("stale", stale).
		Msg("listen")
}

type CaptureStats struct {
	AudioS       float64
	SpeechTicks  int
	TotalTicks   int
	EncodedKB    float64
	TranscribeMs float64
	Provider     string
}

func Capture(s CaptureStats) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("provider", s.Provider).
		Float64("audio_s", s.AudioS).
		Int("speech_ticks", s.SpeechTicks).
		Int("total_ticks", s.TotalTicks).
		Float64("encoded_kb", s.EncodedKB).
		Float64("transcribe_ms", s.TranscribeMs).
		Msg("capture")
}

func Speak(lang string, chars int, synthMs, playMs float64) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("lang", lang).
		Int("chars", chars).
		Float64("synth_ms", synthMs).
		Float64("play_ms", playMs).
		Msg("speak")
}

// Exchange appends one conversation line to conversation_log.txt.
func Exchange(role, text string) {
	logMu.Lock()
	defer logMu.Unlock()
	if !logReady || convFile == nil {
		return
	}
	text = strings.ReplaceAll(text, "\n", " ")
	line := fmt.Sprintf("%s\t[%d]\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, role, text)
	convFile.WriteString(line)
}

func SessionStart(lang, provider string, kbEntries int) {
	if !ready() {
		return
	}
	diagLog.Info().
		Str("lang", lang).
		Str("provider", provider).
		Int("kb_entries", kbEntries).
		Msg("session_start")
}

func SessionEnd(messages int) {
	if !ready() {
		return
	}
	diagLog.Info().
		Int("messages", messages).
		Msg("session_end")
}
