package bridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Aegis-ai-labs/Aegis/internal/audio"
	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/speech"
)

// coordinator turns assistant sentences into paced outbound audio frames.
// One coordinator serves one turn; Speak is called once per sentence in
// reply order.
type coordinator struct {
	synth      speech.Synthesizer
	outbound   chan<- Outbound
	chunkBytes int
	frameDelay time.Duration
	gain       float64
	metrics    *observability.Metrics

	// onFirstAudio runs once, just before the first frame of the turn is
	// sent.
	onFirstAudio func()

	mu           sync.Mutex
	spoke        bool
	synthTotal   time.Duration
	firstAudioAt time.Time
}

func newCoordinator(svc *Service, outbound chan<- Outbound, onFirstAudio func()) *coordinator {
	return &coordinator{
		synth:        svc.synthesizer,
		outbound:     outbound,
		chunkBytes:   svc.cfg.ChunkBytes,
		frameDelay:   svc.cfg.FrameDelay,
		gain:         svc.cfg.Gain,
		metrics:      svc.metrics,
		onFirstAudio: onFirstAudio,
	}
}

// Speak synthesizes one sentence and streams it as fixed-size frames, the
// last one zero-padded. Synthesis failures skip the sentence so the rest of
// the reply still plays.
func (c *coordinator) Speak(ctx context.Context, sentence string) error {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil
	}

	start := time.Now()
	pcm, err := c.synth.Synthesize(ctx, sentence)
	c.mu.Lock()
	c.synthTotal += time.Since(start)
	c.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.metrics != nil {
			c.metrics.SynthesisFailures.Inc()
		}
		return nil
	}
	if len(pcm) == 0 {
		if c.metrics != nil {
			c.metrics.SynthesisFailures.Inc()
		}
		return nil
	}

	pcm = audio.ApplyGain(pcm, c.gain)

	c.mu.Lock()
	first := !c.spoke
	if first {
		c.spoke = true
		c.firstAudioAt = time.Now()
	}
	c.mu.Unlock()
	if first && c.onFirstAudio != nil {
		c.onFirstAudio()
	}

	for off := 0; off < len(pcm); off += c.chunkBytes {
		end := off + c.chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		frame := make([]byte, c.chunkBytes)
		copy(frame, pcm[off:end])

		select {
		case c.outbound <- Outbound{Audio: frame}:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-time.After(c.frameDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// FirstAudioAt reports when the first frame went out, if any did.
func (c *coordinator) FirstAudioAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.firstAudioAt, c.spoke
}

// SynthTotal is the cumulative time spent inside the synthesizer this turn.
func (c *coordinator) SynthTotal() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synthTotal
}
