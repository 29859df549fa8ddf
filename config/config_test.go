package config

import (
	"os"
	"path/filepath"
	"testing"

	"oort/assistant"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OORT_LANGUAGE", "OORT_KB_FILE", "OORT_DB_PATH", "OORT_TRANSCRIBER",
		"OORT_TTS", "OORT_TTS_MODEL", "OORT_TTS_VOICE", "OORT_DEVICE", "OORT_BEEP",
		"GROQ_API_KEY", "OPENAI_API_KEY",
	} {
		// Setenv registers the restore; the key must then be absent so
		// godotenv is allowed to set it.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Language != assistant.English {
		t.Errorf("language = %q, want english", cfg.Language)
	}
	if cfg.KBFile != DefaultKBFile || cfg.DBPath != DefaultDBPath {
		t.Errorf("kb = %q db = %q", cfg.KBFile, cfg.DBPath)
	}
	if !cfg.TTS || !cfg.Beep {
		t.Error("tts and beep should default on")
	}
	if cfg.TTSModel != DefaultTTSModel || cfg.TTSVoice != DefaultTTSVoice {
		t.Errorf("tts model/voice = %q/%q", cfg.TTSModel, cfg.TTSVoice)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OORT_LANGUAGE", "french")
	t.Setenv("OORT_BEEP", "false")

	cfg, err := Load([]string{"-lang", "sw", "-kb", "faq.md", "-provider", "openai", "-doctor"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Language != assistant.Swahili {
		t.Errorf("language = %q, want swahili", cfg.Language)
	}
	if cfg.KBFile != "faq.md" {
		t.Errorf("kb = %q", cfg.KBFile)
	}
	if cfg.Provider != "openai" || !cfg.Doctor {
		t.Errorf("provider = %q doctor = %v", cfg.Provider, cfg.Doctor)
	}
	if cfg.Beep {
		t.Error("OORT_BEEP=false should disable beeps")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "GROQ_API_KEY=gsk_test\nOORT_LANGUAGE=ar\nOORT_TTS=0\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GroqKey != "gsk_test" {
		t.Errorf("groq key = %q", cfg.GroqKey)
	}
	if cfg.Language != assistant.Arabic {
		t.Errorf("language = %q, want arabic", cfg.Language)
	}
	if cfg.TTS {
		t.Error("OORT_TTS=0 should disable speech")
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(nil, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad language", []string{"-lang", "klingon"}},
		{"bad provider", []string{"-provider", "deepgram"}},
		{"empty kb", []string{"-kb", " "}},
		{"unknown flag", []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(tt.args, ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("OORT_TEST_BOOL", "garbage")
	if !getEnvBool("OORT_TEST_BOOL", true) {
		t.Error("unparseable value should fall back to default")
	}
	t.Setenv("OORT_TEST_BOOL", "true")
	if !getEnvBool("OORT_TEST_BOOL", false) {
		t.Error("true should parse")
	}
}
