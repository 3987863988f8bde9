// Package bridge runs the per-connection voice pipeline: it segments inbound
// PCM into utterances, transcribes them, drives the assistant conversation
// and streams synthesized audio back out in paced fixed-size frames.
package bridge

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aegis-ai-labs/Aegis/internal/brain"
	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/protocol"
	"github.com/Aegis-ai-labs/Aegis/internal/segment"
	"github.com/Aegis-ai-labs/Aegis/internal/speech"
)

// Inbound is one websocket frame from the client: either binary audio or a
// parsed JSON control message, never both.
type Inbound struct {
	Audio   []byte
	Control *protocol.Control
}

// Outbound is one frame for the client: either a binary audio frame or a
// JSON payload.
type Outbound struct {
	Audio []byte
	JSON  any
}

type Config struct {
	// SampleRate of inbound and outbound PCM16LE mono audio.
	SampleRate int
	// ChunkSizeMS is the client capture chunk size, reported on connect.
	ChunkSizeMS int
	// Segment tunes utterance detection.
	Segment segment.Config
	// ChunkBytes is the outbound audio frame size; the last frame of a
	// sentence is zero-padded up to it.
	ChunkBytes int
	// FrameDelay paces outbound frames so the client buffer is not flooded.
	FrameDelay time.Duration
	// Gain scales synthesized audio before framing.
	Gain float64
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ChunkSizeMS <= 0 {
		c.ChunkSizeMS = 200
	}
	if c.ChunkBytes <= 0 {
		c.ChunkBytes = 6400
	}
	if c.FrameDelay <= 0 {
		c.FrameDelay = 10 * time.Millisecond
	}
	if c.Gain <= 0 {
		c.Gain = 1.0
	}
	return c
}

// Service holds the collaborators shared by every connection.
type Service struct {
	cfg         Config
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	provider    brain.Provider
	tools       brain.Dispatcher
	convoCfg    brain.Config
	metrics     *observability.Metrics
	latency     *observability.LatencyWindow
	registry    *Registry
}

func NewService(
	cfg Config,
	transcriber speech.Transcriber,
	synthesizer speech.Synthesizer,
	provider brain.Provider,
	tools brain.Dispatcher,
	convoCfg brain.Config,
	metrics *observability.Metrics,
	latency *observability.LatencyWindow,
	registry *Registry,
) *Service {
	if latency == nil {
		latency = observability.NewLatencyWindow(0)
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		cfg:         cfg.withDefaults(),
		transcriber: transcriber,
		synthesizer: synthesizer,
		provider:    provider,
		tools:       tools,
		convoCfg:    convoCfg,
		metrics:     metrics,
		latency:     latency,
		registry:    registry,
	}
}

func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) Latency() *observability.LatencyWindow { return s.latency }

// NewSession creates the per-connection state. Each session owns its own
// detector and conversation; nothing here is shared between connections.
func (s *Service) NewSession(id string) *Session {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	return &Session{
		id:       id,
		svc:      s,
		detector: segment.NewDetector(s.cfg.Segment),
		convo:    brain.NewConversation(s.provider, s.tools, s.convoCfg),
	}
}
