package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrProvider marks model-provider failures so callers can distinguish them
// from tool or transport problems.
var ErrProvider = errors.New("model provider failed")

type Config struct {
	FastModel     string
	DeepModel     string
	MaxTokens     int
	DeepMaxTokens int
	// MaxToolRounds bounds the stream/execute loop within one turn so a
	// model that keeps requesting tools cannot spin forever.
	MaxToolRounds int
	// HistoryCap and HistoryKeep implement FIFO trimming: when the dialogue
	// exceeds HistoryCap messages only the newest HistoryKeep survive.
	HistoryCap  int
	HistoryKeep int
	// ContextFunc supplies the dynamic part of the system prompt per turn.
	// Optional.
	ContextFunc func(ctx context.Context) string
}

func (c Config) withDefaults() Config {
	if c.FastModel == "" {
		c.FastModel = "claude-haiku-4-5"
	}
	if c.DeepModel == "" {
		c.DeepModel = c.FastModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 300
	}
	if c.DeepMaxTokens <= 0 {
		c.DeepMaxTokens = 1024
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 5
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = 40
	}
	if c.HistoryKeep <= 0 || c.HistoryKeep > c.HistoryCap {
		c.HistoryKeep = c.HistoryCap / 2
	}
	return c
}

// Conversation holds one client's dialogue with the assistant. It is owned
// by a single session goroutine and is not safe for concurrent use.
type Conversation struct {
	provider Provider
	tools    Dispatcher
	cfg      Config
	history  []Message
}

func NewConversation(provider Provider, tools Dispatcher, cfg Config) *Conversation {
	return &Conversation{
		provider: provider,
		tools:    tools,
		cfg:      cfg.withDefaults(),
	}
}

// Reset drops the dialogue history.
func (c *Conversation) Reset() {
	c.history = nil
}

// History returns a copy of the dialogue, tool traffic included.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// Reply runs one turn: it streams the model's answer, dispatches requested
// tools for up to MaxToolRounds rounds, and calls emit once per complete
// sentence as soon as its boundary is seen. Sentences are emitted in order
// from the turn goroutine itself. The full reply text and the model that
// produced it are returned; on a mid-stream provider failure the partial
// text comes back along with an ErrProvider-wrapped error.
func (c *Conversation) Reply(ctx context.Context, userText string, emit func(sentence string) error) (string, string, error) {
	model := SelectModel(userText, c.cfg.FastModel, c.cfg.DeepModel)
	maxTokens := c.cfg.MaxTokens
	if model == c.cfg.DeepModel && c.cfg.DeepModel != c.cfg.FastModel {
		maxTokens = c.cfg.DeepMaxTokens
	}

	system := BuildSystemPrompt("")
	if c.cfg.ContextFunc != nil {
		system = BuildSystemPrompt(c.cfg.ContextFunc(ctx))
	}

	var defs []ToolDefinition
	if c.tools != nil {
		defs = c.tools.Definitions()
	}

	msgs := append(c.History(), Message{Role: RoleUser, Content: userText})

	var (
		full      strings.Builder
		tail      string
		streamErr error
	)

	emitSentence := func(s string) error {
		if emit == nil {
			return nil
		}
		return emit(s)
	}

	for round := 0; round < c.cfg.MaxToolRounds; round++ {
		events, err := c.provider.Respond(ctx, Request{
			Model:     model,
			System:    system,
			Messages:  msgs,
			Tools:     defs,
			MaxTokens: maxTokens,
		})
		if err != nil {
			if full.Len() == 0 {
				return "", model, fmt.Errorf("%w: %v", ErrProvider, err)
			}
			streamErr = err
			break
		}

		var (
			roundText strings.Builder
			calls     []ToolCall
		)

		for ev := range events {
			switch ev.Type {
			case EventTextDelta:
				full.WriteString(ev.Text)
				roundText.WriteString(ev.Text)
				tail += ev.Text
				complete, rest := SplitSentences(tail)
				tail = rest
				for _, s := range complete {
					if err := emitSentence(s); err != nil {
						return full.String(), model, err
					}
				}
			case EventToolStop:
				calls = append(calls, ev.ToolCall)
			case EventError:
				streamErr = ev.Err
			}
		}

		if streamErr != nil || len(calls) == 0 {
			msgs = append(msgs, Message{Role: RoleAssistant, Content: roundText.String()})
			break
		}

		msgs = append(msgs, Message{
			Role:      RoleAssistant,
			Content:   roundText.String(),
			ToolCalls: calls,
		})
		for _, call := range calls {
			result := `{"error":"no tools available"}`
			if c.tools != nil {
				result = c.tools.Execute(ctx, call.Name, call.Arguments)
			}
			msgs = append(msgs, Message{
				Role:       RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	if strings.TrimSpace(tail) != "" {
		if err := emitSentence(tail); err != nil {
			return full.String(), model, err
		}
	}

	// A turn that spends every round on tool calls ends on tool results;
	// close it with an assistant entry so the dialogue stays alternating.
	if n := len(msgs); n > 0 && msgs[n-1].Role == RoleTool {
		msgs = append(msgs, Message{Role: RoleAssistant, Content: full.String()})
	}

	reply := full.String()
	c.history = msgs
	if len(c.history) > c.cfg.HistoryCap {
		trimmed := c.history[len(c.history)-c.cfg.HistoryKeep:]
		c.history = append([]Message(nil), trimmed...)
	}

	if streamErr != nil {
		return reply, model, fmt.Errorf("%w: %v", ErrProvider, streamErr)
	}
	return reply, model, nil
}
