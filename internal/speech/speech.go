// Package speech wraps the speech recognition and synthesis collaborators.
package speech

import "context"

// Transcriber converts a WAV utterance to text. Unintelligible audio
// yields an empty string and a nil error; errors are reserved for the
// recognizer itself failing.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Synthesizer renders text to raw PCM16LE mono audio. Empty or
// whitespace-only text yields (nil, nil).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
