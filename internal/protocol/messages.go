// Package protocol defines the JSON control messages exchanged over the
// audio websocket and the events pushed to dashboard clients. Audio itself
// travels as raw binary PCM frames and never appears here.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket JSON payload variants.
type MessageType string

const (
	// Client to bridge.
	TypeReset       MessageType = "reset"
	TypePing        MessageType = "ping"
	TypeEndOfSpeech MessageType = "end_of_speech"

	// Bridge to client.
	TypeConnected MessageType = "connected"
	TypeStatus    MessageType = "status"
	TypeDone      MessageType = "done"
	TypeError     MessageType = "error"
	TypePong      MessageType = "pong"

	// Bridge to dashboard.
	TypeUserMessage      MessageType = "user_message"
	TypeAssistantMessage MessageType = "assistant_message"
)

// Session states reported through Status messages.
const (
	StateIdle       = "idle"
	StateRecording  = "recording"
	StateProcessing = "processing"
	StateSpeaking   = "speaking"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Control is a client-to-bridge message. The current protocol carries no
// payload beyond the type itself.
type Control struct {
	Type MessageType `json:"type"`
}

// ParseControl decodes and validates a client JSON text frame.
func ParseControl(raw []byte) (Control, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Control{}, fmt.Errorf("invalid envelope: %w", err)
	}
	switch env.Type {
	case TypeReset, TypePing, TypeEndOfSpeech:
		return Control{Type: env.Type}, nil
	default:
		return Control{}, ErrUnsupportedType
	}
}

// ClientConfig is sent once on connect so the client can match the bridge's
// audio expectations.
type ClientConfig struct {
	SampleRate  int `json:"sample_rate"`
	ChunkSizeMS int `json:"chunk_size_ms"`
}

type Connected struct {
	Type    MessageType  `json:"type"`
	Message string       `json:"message"`
	Config  ClientConfig `json:"config"`
}

func NewConnected(message string, cfg ClientConfig) Connected {
	return Connected{Type: TypeConnected, Message: message, Config: cfg}
}

type Status struct {
	Type  MessageType `json:"type"`
	State string      `json:"state"`
}

func NewStatus(state string) Status {
	return Status{Type: TypeStatus, State: state}
}

// Done closes out a successful turn with per-stage timings in milliseconds.
type Done struct {
	Type    MessageType        `json:"type"`
	Latency map[string]float64 `json:"latency"`
}

func NewDone(latency map[string]float64) Done {
	return Done{Type: TypeDone, Latency: latency}
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

type Pong struct {
	Type MessageType `json:"type"`
}

func NewPong() Pong {
	return Pong{Type: TypePong}
}

// UserMessage mirrors a transcribed utterance to dashboard clients.
type UserMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

func NewUserMessage(text string) UserMessage {
	return UserMessage{Type: TypeUserMessage, Text: text}
}

// AssistantMessage mirrors a completed assistant reply to dashboard clients.
type AssistantMessage struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	Model     string      `json:"model"`
	LatencyMS float64     `json:"latency_ms"`
}

func NewAssistantMessage(text, model string, latencyMS float64) AssistantMessage {
	return AssistantMessage{Type: TypeAssistantMessage, Text: text, Model: model, LatencyMS: latencyMS}
}
