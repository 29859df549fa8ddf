package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"oort/assistant"
)

const (
	DefaultKBFile   = "oort_faq.md"
	DefaultDBPath   = "db/kb.sqlite"
	DefaultTTSModel = "tts-1"
	DefaultTTSVoice = "alloy"
)

type Config struct {
	Language assistant.Language
	KBFile   string
	DBPath   string
	LogPath  string

	Provider  string // "groq", "openai" or "" for whichever key is set
	GroqKey   string
	OpenAIKey string

	TTS      bool
	TTSModel string
	TTSVoice string

	Device string
	Setup  bool
	Beep   bool

	Doctor  bool
	Version bool
}

// Load reads the optional env file, then flags. Flags default to the
// environment so either can be used.
func Load(args []string, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	var lang string

	fs := flag.NewFlagSet("oort", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&lang, "lang", getEnv("OORT_LANGUAGE", "english"), "Language: english, french, arabic or swahili (or en, fr, ar, sw)")
	fs.StringVar(&cfg.KBFile, "kb", getEnv("OORT_KB_FILE", DefaultKBFile), "FAQ markdown file for the knowledge base")
	fs.StringVar(&cfg.DBPath, "db", getEnv("OORT_DB_PATH", DefaultDBPath), "Knowledge base index path")
	fs.StringVar(&cfg.LogPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.StringVar(&cfg.Provider, "provider", getEnv("OORT_TRANSCRIBER", ""), "Transcription provider: groq or openai")
	fs.BoolVar(&cfg.TTS, "tts", getEnvBool("OORT_TTS", true), "Speak answers aloud")
	fs.StringVar(&cfg.TTSModel, "tts-model", getEnv("OORT_TTS_MODEL", DefaultTTSModel), "Speech synthesis model")
	fs.StringVar(&cfg.TTSVoice, "tts-voice", getEnv("OORT_TTS_VOICE", DefaultTTSVoice), "Speech synthesis voice")
	fs.StringVar(&cfg.Device, "device", getEnv("OORT_DEVICE", ""), "Use named microphone device")
	fs.BoolVar(&cfg.Setup, "setup", false, "Select microphone device (otherwise uses system default)")
	fs.BoolVar(&cfg.Beep, "beep", getEnvBool("OORT_BEEP", true), "Play audio cues when listening starts and stops")
	fs.BoolVar(&cfg.Doctor, "doctor", false, "Report component readiness and exit")
	fs.BoolVar(&cfg.Version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	l, err := assistant.ParseLanguage(lang)
	if err != nil {
		return Config{}, err
	}
	cfg.Language = l
	cfg.GroqKey = os.Getenv("GROQ_API_KEY")
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Provider {
	case "", "groq", "openai":
	default:
		return fmt.Errorf("unknown transcription provider %q (use groq or openai)", c.Provider)
	}
	if strings.TrimSpace(c.KBFile) == "" {
		return errors.New("knowledge base file must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("knowledge base index path must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
