package brain

import (
	"context"
	"fmt"
	"strings"

	anyllm "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

// AnyLLMProvider implements Provider on top of github.com/mozilla-ai/any-llm-go,
// so the bridge can talk to Anthropic, OpenAI, Gemini, or a local Ollama with
// the same streaming shape.
type AnyLLMProvider struct {
	backend anyllm.Provider
}

// NewAnyLLMProvider creates a provider for the given backend name:
// "anthropic", "openai", "gemini", or "ollama". Without an explicit API key
// option the backend falls back to its usual environment variable.
func NewAnyLLMProvider(backendName string, opts ...anyllm.Option) (*AnyLLMProvider, error) {
	backend, err := createBackend(backendName, opts...)
	if err != nil {
		return nil, fmt.Errorf("create %q backend: %w", backendName, err)
	}
	return &AnyLLMProvider{backend: backend}, nil
}

func createBackend(name string, opts ...anyllm.Option) (anyllm.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic":
		return anthropic.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: anthropic, openai, gemini, ollama", name)
	}
}

// Respond implements Provider.
func (p *AnyLLMProvider) Respond(ctx context.Context, req Request) (<-chan Event, error) {
	params := buildParams(req)

	backendChunks, backendErrs := p.backend.CompletionStream(ctx, params)

	ch := make(chan Event, 32)
	go func() {
		defer close(ch)

		send := func(ev Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// Tool call fragments accumulate by index until the final chunk.
		accum := map[int]*ToolCall{}
		started := map[int]bool{}
		failed := false

		for chunk := range backendChunks {
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			delta := choice.Delta

			if delta.Content != "" {
				if !send(Event{Type: EventTextDelta, Text: delta.Content}) {
					return
				}
			}

			for i, tc := range delta.ToolCalls {
				existing, ok := accum[i]
				if !ok {
					existing = &ToolCall{ID: tc.ID, Name: tc.Function.Name}
					accum[i] = existing
				}
				if tc.ID != "" {
					existing.ID = tc.ID
				}
				if tc.Function.Name != "" {
					existing.Name = tc.Function.Name
				}
				if !started[i] && existing.Name != "" {
					started[i] = true
					if !send(Event{Type: EventToolStart, ToolCall: ToolCall{ID: existing.ID, Name: existing.Name}}) {
						return
					}
				}
				if tc.Function.Arguments != "" {
					existing.Arguments += tc.Function.Arguments
					if !send(Event{Type: EventToolDelta, ToolCall: ToolCall{ID: existing.ID, Name: existing.Name, Arguments: tc.Function.Arguments}}) {
						return
					}
				}
			}

			if choice.FinishReason == anyllm.FinishReasonToolCalls ||
				(choice.FinishReason != "" && len(accum) > 0) {
				for i := 0; i < len(accum); i++ {
					tc, ok := accum[i]
					if !ok {
						continue
					}
					if !send(Event{Type: EventToolStop, ToolCall: *tc}) {
						return
					}
				}
				accum = map[int]*ToolCall{}
				started = map[int]bool{}
			}
		}

		if err := <-backendErrs; err != nil {
			failed = true
			send(Event{Type: EventError, Err: err})
		}
		if !failed {
			send(Event{Type: EventDone})
		}
	}()

	return ch, nil
}

func buildParams(req Request) anyllm.CompletionParams {
	var messages []anyllm.Message

	if req.System != "" {
		messages = append(messages, anyllm.Message{
			Role:    anyllm.RoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, convertMessage(m))
	}

	params := anyllm.CompletionParams{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		params.MaxTokens = &mt
	}

	for _, td := range req.Tools {
		params.Tools = append(params.Tools, anyllm.Tool{
			Type: "function",
			Function: anyllm.Function{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.Parameters,
			},
		})
	}

	return params
}

func convertMessage(m Message) anyllm.Message {
	msg := anyllm.Message{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, anyllm.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: anyllm.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return msg
}
