package bridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aegis-ai-labs/Aegis/internal/audio"
	"github.com/Aegis-ai-labs/Aegis/internal/brain"
	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/protocol"
	"github.com/Aegis-ai-labs/Aegis/internal/segment"
)

// Session drives the pipeline for one websocket connection. Run owns the
// inbound loop; a processing turn runs in its own goroutine and can be
// aborted by reset or disconnect.
type Session struct {
	id       string
	svc      *Service
	detector *segment.Detector
	convo    *brain.Conversation

	mu          sync.Mutex
	state       string
	turnCancel  context.CancelFunc
	turnDone    chan struct{}
	recordStart time.Time
}

func (s *Session) ID() string { return s.id }

// Run consumes inbound frames until the context ends or the channel closes.
// The caller owns both channels; outbound stays open after Run returns.
func (s *Session) Run(ctx context.Context, inbound <-chan Inbound, outbound chan<- Outbound) error {
	s.svc.registry.AddSession(s.id)
	defer s.svc.registry.RemoveSession(s.id)
	s.countSession("connected")
	defer s.countSession("disconnected")
	defer s.abortTurn()

	s.send(ctx, outbound, Outbound{JSON: protocol.NewConnected("Aegis bridge ready", protocol.ClientConfig{
		SampleRate:  s.svc.cfg.SampleRate,
		ChunkSizeMS: s.svc.cfg.ChunkSizeMS,
	})})
	s.setState(ctx, outbound, protocol.StateIdle)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			if msg.Control != nil {
				s.handleControl(ctx, *msg.Control, outbound)
				continue
			}
			s.handleAudio(ctx, msg.Audio, outbound)
		}
	}
}

func (s *Session) handleControl(ctx context.Context, ctl protocol.Control, outbound chan<- Outbound) {
	switch ctl.Type {
	case protocol.TypePing:
		s.send(ctx, outbound, Outbound{JSON: protocol.NewPong()})
	case protocol.TypeReset:
		s.abortTurn()
		s.detector.Reset()
		s.convo.Reset()
		s.countSession("reset")
		s.setState(ctx, outbound, protocol.StateIdle)
	case protocol.TypeEndOfSpeech:
		if s.turnActive() {
			return
		}
		pcm, ev := s.detector.Flush()
		s.handleSegmentEvent(ctx, pcm, ev, outbound)
	}
}

func (s *Session) handleAudio(ctx context.Context, frame []byte, outbound chan<- Outbound) {
	if len(frame) == 0 {
		return
	}
	// Half-duplex: audio arriving while a turn is in flight is dropped so
	// the assistant's own playback cannot become the next utterance.
	if s.turnActive() {
		if s.svc.metrics != nil {
			s.svc.metrics.Utterances.WithLabelValues("dropped_busy").Inc()
		}
		return
	}

	pcm, ev := s.detector.Feed(frame)
	s.handleSegmentEvent(ctx, pcm, ev, outbound)
}

func (s *Session) handleSegmentEvent(ctx context.Context, pcm []byte, ev segment.Event, outbound chan<- Outbound) {
	switch ev {
	case segment.EventStarted:
		s.mu.Lock()
		s.recordStart = time.Now()
		s.mu.Unlock()
		s.setState(ctx, outbound, protocol.StateRecording)
		s.send(ctx, outbound, Outbound{Audio: audio.ListeningChime()})
	case segment.EventCompleted:
		if s.svc.metrics != nil {
			s.svc.metrics.Utterances.WithLabelValues("completed").Inc()
		}
		s.startTurn(ctx, pcm, outbound)
	case segment.EventDiscardedShort, segment.EventDiscardedQuiet:
		if s.svc.metrics != nil {
			s.svc.metrics.Utterances.WithLabelValues(ev.String()).Inc()
		}
		s.setState(ctx, outbound, protocol.StateIdle)
	}
}

func (s *Session) startTurn(ctx context.Context, pcm []byte, outbound chan<- Outbound) {
	s.mu.Lock()
	segmentation := time.Duration(0)
	if !s.recordStart.IsZero() {
		segmentation = time.Since(s.recordStart)
	}
	turnCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.turnCancel = cancel
	s.turnDone = done
	s.mu.Unlock()

	s.setState(ctx, outbound, protocol.StateProcessing)
	s.send(ctx, outbound, Outbound{Audio: audio.ThinkingTone()})

	go func() {
		defer close(done)
		defer cancel()
		defer func() {
			s.mu.Lock()
			s.turnCancel = nil
			s.turnDone = nil
			s.mu.Unlock()
		}()
		s.runTurn(turnCtx, pcm, segmentation, outbound)
		if ctx.Err() == nil {
			s.setState(ctx, outbound, protocol.StateIdle)
		}
	}()
}

func (s *Session) runTurn(ctx context.Context, pcm []byte, segmentation time.Duration, outbound chan<- Outbound) {
	turnStart := time.Now()

	wav, err := audio.EncodeWAVPCM16LE(pcm, s.svc.cfg.SampleRate)
	if err != nil {
		s.sendError(ctx, outbound, "audio encoding failed")
		return
	}

	recStart := time.Now()
	text, err := s.svc.transcriber.Transcribe(ctx, wav)
	recognition := time.Since(recStart)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if s.svc.metrics != nil {
			s.svc.metrics.ProviderErrors.WithLabelValues("recognition").Inc()
		}
		s.sendError(ctx, outbound, "speech recognition failed")
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		if s.svc.metrics != nil {
			s.svc.metrics.Utterances.WithLabelValues("unintelligible").Inc()
		}
		return
	}

	s.svc.registry.Broadcast(protocol.NewUserMessage(text))

	var perceived time.Duration
	coord := newCoordinator(s.svc, outbound, func() {
		perceived = time.Since(turnStart)
		if s.svc.metrics != nil {
			s.svc.metrics.ObserveFirstAudioLatency(perceived)
		}
		s.setState(ctx, outbound, protocol.StateSpeaking)
	})

	// Synthesis runs concurrently with model streaming so the first
	// sentence starts playing while the rest is still generating.
	sentences := make(chan string, 16)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for sentence := range sentences {
			if err := coord.Speak(gctx, sentence); err != nil {
				return err
			}
		}
		return nil
	})

	modelStart := time.Now()
	reply, model, replyErr := s.convo.Reply(gctx, text, func(sentence string) error {
		select {
		case sentences <- sentence:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	modelLatency := time.Since(modelStart)
	close(sentences)
	speakErr := g.Wait()

	if ctx.Err() != nil {
		return
	}
	if replyErr != nil {
		if s.svc.metrics != nil {
			s.svc.metrics.ProviderErrors.WithLabelValues("model").Inc()
		}
		s.sendError(ctx, outbound, "assistant unavailable, try again")
		return
	}
	if speakErr != nil {
		return
	}

	total := time.Since(turnStart)
	latency := map[string]float64{
		observability.StageSegmentation: roundMS(segmentation),
		observability.StageRecognition:  roundMS(recognition),
		observability.StageModel:        roundMS(modelLatency),
		observability.StageSynthesis:    roundMS(coord.SynthTotal()),
		observability.StagePerceived:    roundMS(perceived),
		observability.StageTotal:        roundMS(total),
	}
	for stage, ms := range latency {
		s.svc.latency.Record(stage, ms)
	}

	s.send(ctx, outbound, Outbound{Audio: audio.SuccessChime()})
	s.send(ctx, outbound, Outbound{JSON: protocol.NewDone(latency)})
	s.svc.registry.Broadcast(protocol.NewAssistantMessage(reply, model, roundMS(total)))
}

func (s *Session) turnActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnDone != nil
}

// abortTurn cancels any in-flight turn and waits for its goroutine to exit,
// so detector and conversation state can be touched safely afterwards.
func (s *Session) abortTurn() {
	s.mu.Lock()
	cancel := s.turnCancel
	done := s.turnDone
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Session) setState(ctx context.Context, outbound chan<- Outbound, state string) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.send(ctx, outbound, Outbound{JSON: protocol.NewStatus(state)})
}

func (s *Session) sendError(ctx context.Context, outbound chan<- Outbound, message string) {
	s.send(ctx, outbound, Outbound{JSON: protocol.NewError(message)})
}

func (s *Session) send(ctx context.Context, outbound chan<- Outbound, msg Outbound) {
	select {
	case outbound <- msg:
	case <-ctx.Done():
	}
}

func (s *Session) countSession(event string) {
	if s.svc.metrics != nil {
		s.svc.metrics.SessionEvents.WithLabelValues(event).Inc()
	}
}

func roundMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
