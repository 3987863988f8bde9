package speech

import (
	"context"
	"strings"
	"sync"
)

// MockTranscriber is a fallback transcriber used when no whisper.cpp
// install is available. It returns a fixed text for any non-empty audio.
type MockTranscriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls int
}

func NewMockTranscriber(text string) *MockTranscriber {
	if strings.TrimSpace(text) == "" {
		text = "simulated voice input"
	}
	return &MockTranscriber{Text: text}
}

func (m *MockTranscriber) Transcribe(_ context.Context, wav []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if len(wav) == 0 {
		return "", nil
	}
	return m.Text, nil
}

func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSynthesizer renders a fixed amount of silence per rune of input so
// downstream framing and pacing stay exercised without a real voice model.
type MockSynthesizer struct {
	BytesPerRune int
	Err          error

	mu    sync.Mutex
	calls int
	texts []string
}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{BytesPerRune: 640}
}

func (m *MockSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	m.mu.Lock()
	m.calls++
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	per := m.BytesPerRune
	if per <= 0 {
		per = 640
	}
	n := len([]rune(text)) * per
	if n%2 != 0 {
		n++
	}
	return make([]byte, n), nil
}

func (m *MockSynthesizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}
