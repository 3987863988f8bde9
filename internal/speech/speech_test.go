package speech

import (
	"context"
	"strings"
	"testing"
)

func TestMockTranscriberReturnsCannedText(t *testing.T) {
	m := NewMockTranscriber("hello there")
	got, err := m.Transcribe(context.Background(), []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "hello there" {
		t.Fatalf("Transcribe() = %q, want %q", got, "hello there")
	}
	if m.Calls() != 1 {
		t.Fatalf("Calls() = %d, want 1", m.Calls())
	}
}

func TestMockTranscriberEmptyAudio(t *testing.T) {
	m := NewMockTranscriber("")
	got, err := m.Transcribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "" {
		t.Fatalf("Transcribe(nil) = %q, want empty", got)
	}
}

func TestMockSynthesizerSizesOutput(t *testing.T) {
	m := NewMockSynthesizer()
	m.BytesPerRune = 10
	pcm, err := m.Synthesize(context.Background(), "abcde")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(pcm) != 50 {
		t.Fatalf("len(pcm) = %d, want 50", len(pcm))
	}
	if len(pcm)%2 != 0 {
		t.Fatalf("len(pcm) = %d, want even", len(pcm))
	}
}

func TestMockSynthesizerSkipsBlankText(t *testing.T) {
	m := NewMockSynthesizer()
	pcm, err := m.Synthesize(context.Background(), "   \n")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if pcm != nil {
		t.Fatalf("Synthesize(blank) = %d bytes, want nil", len(pcm))
	}
	if m.Calls() != 0 {
		t.Fatalf("Calls() = %d, want 0", m.Calls())
	}
}

func TestNewMockMode(t *testing.T) {
	tr, sy, backend, err := New(Config{Mode: "mock"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if backend != "mock" {
		t.Fatalf("backend = %q, want %q", backend, "mock")
	}
	if _, ok := tr.(*MockTranscriber); !ok {
		t.Fatalf("transcriber type = %T, want *MockTranscriber", tr)
	}
	if _, ok := sy.(*MockSynthesizer); !ok {
		t.Fatalf("synthesizer type = %T, want *MockSynthesizer", sy)
	}
}

func TestNewAutoFallsBackToMock(t *testing.T) {
	// No whisper model configured, so the CLI pair cannot come up.
	_, _, backend, err := New(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if backend != "mock" {
		t.Fatalf("backend = %q, want %q", backend, "mock")
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, _, _, err := New(Config{Mode: "cloud"})
	if err == nil {
		t.Fatal("New() error = nil, want unknown provider error")
	}
	if !strings.Contains(err.Error(), "cloud") {
		t.Fatalf("error %q does not name the bad mode", err)
	}
}

func TestWhisperArgsIncludeDecodeFlags(t *testing.T) {
	w := &WhisperCLI{
		cliPath:   "/usr/bin/whisper-cli",
		modelPath: "/models/ggml-tiny.en.bin",
		language:  "en",
		threads:   4,
		beamSize:  2,
		bestOf:    3,
	}
	args := w.args("/tmp/audio.wav", "/tmp/out")
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-m /models/ggml-tiny.en.bin",
		"-f /tmp/audio.wav",
		"-l en",
		"-otxt",
		"-of /tmp/out",
		"-nt",
		"-t 4",
		"-bs 2",
		"-bo 3",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}
