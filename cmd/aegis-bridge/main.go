package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Aegis-ai-labs/Aegis/internal/brain"
	"github.com/Aegis-ai-labs/Aegis/internal/bridge"
	"github.com/Aegis-ai-labs/Aegis/internal/config"
	"github.com/Aegis-ai-labs/Aegis/internal/httpapi"
	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/records"
	"github.com/Aegis-ai-labs/Aegis/internal/segment"
	"github.com/Aegis-ai-labs/Aegis/internal/speech"
	"github.com/Aegis-ai-labs/Aegis/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := records.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("records store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("records store: in-memory (set DATABASE_URL for persistence)")
	} else {
		log.Printf("records store: postgres")
	}

	registry := tools.NewRegistry(store, metrics)

	var provider brain.Provider
	backend := strings.ToLower(strings.TrimSpace(cfg.LLMBackend))
	if backend == "stub" {
		provider = brain.EchoStub()
		log.Printf("model backend: stub")
	} else {
		p, err := brain.NewAnyLLMProvider(backend)
		if err != nil {
			// Keep the bridge usable for audio plumbing work without model
			// credentials.
			log.Printf("model backend %q unavailable (%v), falling back to stub", backend, err)
			provider = brain.EchoStub()
		} else {
			provider = p
			log.Printf("model backend: %s (fast=%s deep=%s)", backend, cfg.FastModel, cfg.DeepModel)
		}
	}

	transcriber, synthesizer, speechBackend, err := speech.New(speech.Config{
		Mode: cfg.SpeechProvider,
		Whisper: speech.WhisperConfig{
			CLI:       cfg.WhisperCLI,
			ModelPath: cfg.WhisperModelPath,
			Language:  cfg.WhisperLanguage,
			Threads:   cfg.WhisperThreads,
			BeamSize:  cfg.WhisperBeamSize,
			BestOf:    cfg.WhisperBestOf,
		},
		Piper: speech.PiperConfig{
			CLI:       cfg.PiperCLI,
			ModelPath: cfg.PiperModelPath,
		},
	})
	if err != nil {
		log.Fatalf("speech provider init failed: %v", err)
	}
	log.Printf("speech backend: %s", speechBackend)

	latency := observability.NewLatencyWindow(100)
	svc := bridge.NewService(
		bridge.Config{
			SampleRate:  cfg.SampleRate,
			ChunkSizeMS: cfg.ChunkSizeMS,
			Segment: segment.Config{
				SilenceThreshold:    cfg.SilenceThreshold,
				SilenceFramesToStop: cfg.SilenceChunksToStop,
				MinUtteranceBytes:   cfg.MinUtteranceBytes,
				MinUtteranceRMS:     cfg.MinUtteranceRMS,
				MaxRecording:        cfg.MaxRecording,
			},
			ChunkBytes: cfg.OutputChunkBytes,
			FrameDelay: cfg.OutputFrameDelay,
			Gain:       cfg.OutputGain,
		},
		transcriber,
		synthesizer,
		provider,
		registry,
		brain.Config{
			FastModel:     cfg.FastModel,
			DeepModel:     cfg.DeepModel,
			MaxTokens:     cfg.MaxTokens,
			DeepMaxTokens: cfg.DeepMaxTokens,
			MaxToolRounds: cfg.MaxToolRounds,
			HistoryCap:    cfg.HistoryCap,
			HistoryKeep:   cfg.HistoryKeep,
			ContextFunc: func(ctx context.Context) string {
				return brain.HealthContext(ctx, store, cfg.HealthContextDays)
			},
		},
		metrics,
		latency,
		bridge.NewRegistry(),
	)

	api := httpapi.New(cfg, svc, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("bridge listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
