package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"oort/assistant"
	"oort/audio"
	"oort/beep"
	"oort/clipboard"
	"oort/config"
	"oort/doctor"
	"oort/kb"
	"oort/log"
	"oort/shutdown"
	"oort/transcriber"
	"oort/tts"
	"oort/voice"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// collaborators holds everything built at start-up that has to be closed
// on the way out.
type collaborators struct {
	assistant.Collaborators
	audio  audio.Context
	player audio.Player
	kb     *kb.KnowledgeBase
	input  *voice.Input
	speech *tts.Synthesizer
}

func (c *collaborators) Close() {
	if c.player != nil {
		c.player.Close()
	}
	if c.audio != nil {
		c.audio.Close()
	}
	if c.kb != nil {
		c.kb.Close()
	}
}

func run(args []string) int {
	cfg, err := config.Load(args, ".env")
	if errors.Is(err, flag.ErrHelp) {
		fmt.Println("Usage: oort [-lang english|french|arabic|swahili] [-kb faq.md] [-db path] [-setup] [-device name] [-doctor]")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if cfg.Version {
		fmt.Printf("oort %s\n", version)
		return 0
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	c, err := build(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer c.Close()

	if cfg.Doctor {
		probe := assistant.NewProbe(c.Input, c.Output, c.KnowledgeBase)
		return doctor.Run(os.Stdout, probe.Check(), doctorChecks(c))
	}

	var cues *beep.Cues
	if cfg.Beep {
		cues = beep.New(c.player)
	}

	coord := assistant.NewCoordinator(ctx, cfg.Language, c.Collaborators)
	log.SessionStart(cfg.Language.Code(), c.input.Provider(), c.kb.Entries())

	var level levelSource
	if c.input != nil {
		level = c.input
	}
	p := NewTUIProgram(newTUIModel(coord, cues, level), tea.WithContext(ctx))
	_, err = p.Run()

	log.SessionEnd(len(coord.Session().Messages()))
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// build wires the collaborators. A missing piece (no audio, no API key, no
// FAQ file) is logged and left unready rather than failing start-up; the
// status panel reports it.
func build(ctx context.Context, cfg config.Config) (*collaborators, error) {
	c := &collaborators{}

	if knowledge, err := kb.Open(cfg.DBPath); err != nil {
		log.Errorf("knowledge base open failed: %v", err)
	} else {
		c.kb = knowledge
		if n, err := knowledge.Load(ctx, cfg.KBFile); err != nil {
			log.Warnf("knowledge base load failed: %v", err)
		} else {
			log.Info(fmt.Sprintf("kb_loaded entries=%d file=%s", n, cfg.KBFile))
		}
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
	} else {
		c.audio = audioCtx
	}

	var device *audio.DeviceInfo
	if c.audio != nil {
		device, err = selectDevice(c.audio, cfg)
		if errors.Is(err, audio.ErrPickerCancelled) {
			c.Close()
			return nil, err
		}
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			device = nil
		}
		if device != nil {
			log.Info("recording_device: " + device.Name)
		}

		if player, err := c.audio.NewPlayer(); err != nil {
			log.Errorf("audio output init error: %v", err)
		} else {
			c.player = player
		}
	}

	tr, err := transcriber.New(cfg.Provider, cfg.GroqKey, cfg.OpenAIKey)
	if err != nil {
		log.Warnf("voice input disabled: %v", err)
	}
	if c.audio != nil && tr != nil {
		c.input = voice.NewInput(c.audio, device, tr)
	}

	ttsKey := ""
	if cfg.TTS {
		ttsKey = cfg.OpenAIKey
	}
	c.speech = tts.New(ttsKey, c.player, tts.Options{Model: cfg.TTSModel, Voice: cfg.TTSVoice})

	c.Collaborators = assistant.Collaborators{Output: c.speech}
	// Leave the interfaces nil rather than holding nil pointers.
	if c.kb != nil {
		c.KnowledgeBase = c.kb
	}
	if c.input != nil {
		c.Input = c.input
	}
	return c, nil
}

func selectDevice(ctx audio.Context, cfg config.Config) (*audio.DeviceInfo, error) {
	if cfg.Setup && cfg.Device == "" {
		return audio.SelectDevice(ctx)
	}
	return audio.FindDevice(ctx, cfg.Device)
}

func doctorChecks(c *collaborators) []doctor.Check {
	return []doctor.Check{
		{
			Name: "Audio devices",
			Run: func(context.Context) (string, error) {
				if c.audio == nil {
					return "", errors.New("cannot connect to audio")
				}
				devices, err := c.audio.Devices()
				if err != nil {
					return "", fmt.Errorf("cannot list devices: %w", err)
				}
				if len(devices) == 0 {
					return "", errors.New("no capture devices found")
				}
				names := make([]string, len(devices))
				for i, d := range devices {
					names[i] = d.Name
				}
				return strings.Join(names, ", "), nil
			},
		},
		{
			Name: "Knowledge base query",
			Run: func(context.Context) (string, error) {
				if !c.kb.Ready() {
					return "", errors.New("index is empty")
				}
				answer := c.kb.Query("When does the program start?", assistant.English)
				return fmt.Sprintf("%d entries, sample answer: %.60q", c.kb.Entries(), answer), nil
			},
		},
		{
			Name: "Clipboard",
			Run: func(context.Context) (string, error) {
				if !clipboard.Available() {
					return "", clipboard.ErrUnsupported
				}
				return "available", nil
			},
		},
	}
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}
