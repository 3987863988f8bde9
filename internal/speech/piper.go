package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PiperConfig configures the piper CLI synthesizer.
type PiperConfig struct {
	CLI       string
	ModelPath string
}

// PiperCLI shells out to piper for each sentence, reading raw PCM16LE
// mono frames from stdout via --output-raw.
type PiperCLI struct {
	cliPath   string
	modelPath string
}

func NewPiperCLI(cfg PiperConfig) (*PiperCLI, error) {
	cli := strings.TrimSpace(cfg.CLI)
	if cli == "" {
		cli = "piper"
	}
	cliPath, err := exec.LookPath(cli)
	if err != nil {
		return nil, fmt.Errorf("piper CLI not found (%s)", cli)
	}

	modelPath := strings.TrimSpace(cfg.ModelPath)
	if modelPath == "" {
		return nil, fmt.Errorf("PIPER_MODEL_PATH is required")
	}
	if !filepath.IsAbs(modelPath) {
		if wd, err := os.Getwd(); err == nil {
			modelPath = filepath.Join(wd, modelPath)
		}
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("piper voice model not found: %s", modelPath)
	}

	return &PiperCLI{cliPath: cliPath, modelPath: modelPath}, nil
}

func (p *PiperCLI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, p.cliPath,
		"--model", p.modelPath,
		"--output-raw",
	)
	cmd.Stdin = strings.NewReader(text + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, context.Canceled
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 4<<10 {
			detail = strings.TrimSpace(detail[len(detail)-(4<<10):])
		}
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("piper failed: %s", detail)
	}

	pcm := stdout.Bytes()
	// Raw PCM16LE: drop a trailing odd byte rather than emitting a torn sample.
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}
	return pcm, nil
}
