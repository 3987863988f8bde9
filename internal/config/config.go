package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice bridge.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	SampleRate          int
	ChunkSizeMS         int
	SilenceThreshold    int
	SilenceChunksToStop int
	MinUtteranceBytes   int
	MinUtteranceRMS     float64
	MaxRecording        time.Duration
	OutputChunkBytes    int
	OutputFrameDelay    time.Duration
	OutputGain          float64

	LLMBackend    string
	FastModel     string
	DeepModel     string
	MaxTokens     int
	DeepMaxTokens int
	MaxToolRounds int
	HistoryCap    int
	HistoryKeep   int

	SpeechProvider   string
	WhisperCLI       string
	WhisperModelPath string
	WhisperLanguage  string
	WhisperThreads   int
	WhisperBeamSize  int
	WhisperBestOf    int
	PiperCLI         string
	PiperModelPath   string

	DatabaseURL       string
	HealthContextDays int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("AEGIS_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("AEGIS_METRICS_NAMESPACE", "aegis"),
		AllowAnyOrigin:   false,
		ShutdownTimeout:  15 * time.Second,

		SampleRate:          16000,
		ChunkSizeMS:         200,
		SilenceThreshold:    500,
		SilenceChunksToStop: 8,
		MinUtteranceBytes:   3200,
		MinUtteranceRMS:     0,
		MaxRecording:        10 * time.Second,
		OutputChunkBytes:    6400,
		OutputFrameDelay:    10 * time.Millisecond,
		OutputGain:          1.0,

		LLMBackend: envOrDefault("LLM_BACKEND", "anthropic"),
		// Fast model answers most turns; the deep model handles analytical
		// queries that tolerate more latency.
		FastModel:     envOrDefault("LLM_FAST_MODEL", "claude-haiku-4-5"),
		DeepModel:     envOrDefault("LLM_DEEP_MODEL", "claude-sonnet-4-5"),
		MaxTokens:     300,
		DeepMaxTokens: 1024,
		MaxToolRounds: 5,
		HistoryCap:    40,
		HistoryKeep:   20,

		SpeechProvider: envOrDefault("SPEECH_PROVIDER", "auto"),
		WhisperCLI:     envOrDefault("WHISPER_CLI", "whisper-cli"),
		// Default to a fast English Whisper model for realtime use.
		WhisperModelPath: envOrDefault("WHISPER_MODEL_PATH", ".models/whisper/ggml-base.en.bin"),
		WhisperLanguage:  envOrDefault("WHISPER_LANGUAGE", "en"),
		// 0 means "auto" (picked based on CPU count).
		WhisperThreads:  0,
		WhisperBeamSize: 1,
		WhisperBestOf:   1,
		PiperCLI:        envOrDefault("PIPER_CLI", "piper"),
		PiperModelPath:  envOrDefault("PIPER_MODEL_PATH", ".models/piper/en_US-lessac-medium.onnx"),

		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		HealthContextDays: 7,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("AEGIS_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("AEGIS_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	cfg.SampleRate, err = intFromEnv("AUDIO_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.ChunkSizeMS, err = intFromEnv("AUDIO_CHUNK_SIZE_MS", cfg.ChunkSizeMS)
	if err != nil {
		return Config{}, err
	}
	cfg.SilenceThreshold, err = intFromEnv("AUDIO_SILENCE_THRESHOLD", cfg.SilenceThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.SilenceChunksToStop, err = intFromEnv("AUDIO_SILENCE_CHUNKS", cfg.SilenceChunksToStop)
	if err != nil {
		return Config{}, err
	}
	cfg.MinUtteranceBytes, err = intFromEnv("AUDIO_MIN_UTTERANCE_BYTES", cfg.MinUtteranceBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.MinUtteranceRMS, err = floatFromEnv("AUDIO_MIN_UTTERANCE_RMS", cfg.MinUtteranceRMS)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxRecording, err = durationFromEnv("AUDIO_MAX_RECORDING", cfg.MaxRecording)
	if err != nil {
		return Config{}, err
	}
	cfg.OutputChunkBytes, err = intFromEnv("AUDIO_OUTPUT_CHUNK_BYTES", cfg.OutputChunkBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.OutputFrameDelay, err = durationFromEnv("AUDIO_FRAME_DELAY", cfg.OutputFrameDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.OutputGain, err = floatFromEnv("AUDIO_OUTPUT_GAIN", cfg.OutputGain)
	if err != nil {
		return Config{}, err
	}

	cfg.MaxTokens, err = intFromEnv("LLM_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.DeepMaxTokens, err = intFromEnv("LLM_DEEP_MAX_TOKENS", cfg.DeepMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxToolRounds, err = intFromEnv("LLM_MAX_TOOL_ROUNDS", cfg.MaxToolRounds)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryCap, err = intFromEnv("LLM_HISTORY_CAP", cfg.HistoryCap)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryKeep, err = intFromEnv("LLM_HISTORY_KEEP", cfg.HistoryKeep)
	if err != nil {
		return Config{}, err
	}

	cfg.WhisperThreads, err = intFromEnv("WHISPER_THREADS", cfg.WhisperThreads)
	if err != nil {
		return Config{}, err
	}
	cfg.WhisperBeamSize, err = intFromEnv("WHISPER_BEAM_SIZE", cfg.WhisperBeamSize)
	if err != nil {
		return Config{}, err
	}
	cfg.WhisperBestOf, err = intFromEnv("WHISPER_BEST_OF", cfg.WhisperBestOf)
	if err != nil {
		return Config{}, err
	}

	cfg.HealthContextDays, err = intFromEnv("HEALTH_CONTEXT_DAYS", cfg.HealthContextDays)
	if err != nil {
		return Config{}, err
	}

	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if cfg.ChunkSizeMS <= 0 {
		return Config{}, fmt.Errorf("AUDIO_CHUNK_SIZE_MS must be positive")
	}
	if cfg.SilenceThreshold <= 0 {
		return Config{}, fmt.Errorf("AUDIO_SILENCE_THRESHOLD must be positive")
	}
	if cfg.SilenceChunksToStop <= 0 {
		return Config{}, fmt.Errorf("AUDIO_SILENCE_CHUNKS must be positive")
	}
	if cfg.OutputChunkBytes <= 0 || cfg.OutputChunkBytes%2 != 0 {
		return Config{}, fmt.Errorf("AUDIO_OUTPUT_CHUNK_BYTES must be positive and even")
	}
	if cfg.OutputGain <= 0 {
		return Config{}, fmt.Errorf("AUDIO_OUTPUT_GAIN must be positive")
	}
	if cfg.MaxToolRounds <= 0 {
		return Config{}, fmt.Errorf("LLM_MAX_TOOL_ROUNDS must be positive")
	}
	if cfg.HistoryKeep <= 0 || cfg.HistoryKeep > cfg.HistoryCap {
		return Config{}, fmt.Errorf("LLM_HISTORY_KEEP must be positive and at most LLM_HISTORY_CAP")
	}
	if cfg.WhisperThreads < 0 {
		return Config{}, fmt.Errorf("WHISPER_THREADS must be >= 0")
	}
	if cfg.WhisperBeamSize <= 0 {
		return Config{}, fmt.Errorf("WHISPER_BEAM_SIZE must be positive")
	}
	if cfg.WhisperBestOf <= 0 {
		return Config{}, fmt.Errorf("WHISPER_BEST_OF must be positive")
	}
	if cfg.HealthContextDays <= 0 {
		return Config{}, fmt.Errorf("HEALTH_CONTEXT_DAYS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
