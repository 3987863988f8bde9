package speech

import (
	"fmt"
	"strings"
)

// Config selects the speech backend. Mode is one of "auto" (use the CLI
// tools when installed, otherwise fall back to mocks), "cli" (require
// whisper.cpp and piper, fail if either is missing) or "mock" (canned
// transcripts and silent audio for offline development).
type Config struct {
	Mode    string
	Whisper WhisperConfig
	Piper   PiperConfig
}

// New builds the transcriber/synthesizer pair for cfg.Mode and reports
// which backend ended up selected.
func New(cfg Config) (Transcriber, Synthesizer, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "mock":
		return NewMockTranscriber(""), NewMockSynthesizer(), "mock", nil
	case "cli":
		t, s, err := newCLIPair(cfg)
		if err != nil {
			return nil, nil, "", err
		}
		return t, s, "cli", nil
	case "auto":
		t, s, err := newCLIPair(cfg)
		if err != nil {
			return NewMockTranscriber(""), NewMockSynthesizer(), "mock", nil
		}
		return t, s, "cli", nil
	default:
		return nil, nil, "", fmt.Errorf("unknown speech provider %q (want auto, cli or mock)", cfg.Mode)
	}
}

func newCLIPair(cfg Config) (Transcriber, Synthesizer, error) {
	t, err := NewWhisperCLI(cfg.Whisper)
	if err != nil {
		return nil, nil, err
	}
	s, err := NewPiperCLI(cfg.Piper)
	if err != nil {
		return nil, nil, err
	}
	return t, s, nil
}
