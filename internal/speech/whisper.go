package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// WhisperConfig configures the whisper.cpp CLI transcriber.
type WhisperConfig struct {
	CLI       string
	ModelPath string
	Language  string
	Threads   int
	BeamSize  int
	BestOf    int
}

// WhisperCLI shells out to whisper.cpp for each utterance.
type WhisperCLI struct {
	cliPath   string
	modelPath string
	language  string
	threads   int
	beamSize  int
	bestOf    int
}

func NewWhisperCLI(cfg WhisperConfig) (*WhisperCLI, error) {
	cli := strings.TrimSpace(cfg.CLI)
	if cli == "" {
		cli = "whisper-cli"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp CLI not found (%s)", cli)
	}

	modelPath := strings.TrimSpace(cfg.ModelPath)
	if modelPath == "" {
		return nil, fmt.Errorf("WHISPER_MODEL_PATH is required")
	}
	if !filepath.IsAbs(modelPath) {
		if wd, err := os.Getwd(); err == nil {
			modelPath = filepath.Join(wd, modelPath)
		}
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper.cpp model not found: %s", modelPath)
	}

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}

	threads := cfg.Threads
	if threads < 0 {
		return nil, fmt.Errorf("WHISPER_THREADS must be >= 0")
	}
	if threads == 0 {
		// Auto-pick: cap the thread count so transcription stays realtime.
		threads = 4
		if n := runtime.NumCPU(); n > 0 {
			threads = n
		}
		if threads > 8 {
			threads = 8
		}
		if threads < 2 {
			threads = 2
		}
	}

	beamSize := cfg.BeamSize
	if beamSize <= 0 {
		beamSize = 1
	}
	bestOf := cfg.BestOf
	if bestOf <= 0 {
		bestOf = 1
	}

	return &WhisperCLI{
		cliPath:   cliPath,
		modelPath: modelPath,
		language:  language,
		threads:   threads,
		beamSize:  beamSize,
		bestOf:    bestOf,
	}, nil
}

func (w *WhisperCLI) args(wavPath, outPrefix string) []string {
	// whisper.cpp CLI flag set varies slightly across builds; keep this conservative.
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-l", w.language,
		"-otxt",
		"-of", outPrefix,
		"-nt",
	}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}
	if w.beamSize > 0 {
		args = append(args, "-bs", strconv.Itoa(w.beamSize))
	}
	if w.bestOf > 0 {
		args = append(args, "-bo", strconv.Itoa(w.bestOf))
	}
	return args
}

func (w *WhisperCLI) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", nil
	}
	tmpDir, err := os.MkdirTemp("", "aegis-whisper-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "audio.wav")
	if err := os.WriteFile(wavPath, wav, 0o644); err != nil {
		return "", err
	}
	outPrefix := filepath.Join(tmpDir, "out")

	cmd := exec.CommandContext(ctx, w.cliPath, w.args(wavPath, outPrefix)...)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", context.Canceled
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("whisper.cpp timed out; use a smaller model (e.g. ggml-tiny.en.bin) or reduce utterance length")
		}
		detail := strings.TrimSpace(stderr.String())
		// whisper.cpp can be extremely chatty; keep errors readable.
		if len(detail) > 8<<10 {
			detail = strings.TrimSpace(detail[len(detail)-(8<<10):])
		}
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("whisper.cpp failed: %s", detail)
	}

	b, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
