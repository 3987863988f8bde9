package brain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeDispatcher struct {
	defs     []ToolDefinition
	executed []ToolCall
	result   string
}

func (d *fakeDispatcher) Definitions() []ToolDefinition { return d.defs }

func (d *fakeDispatcher) Execute(_ context.Context, name, arguments string) string {
	d.executed = append(d.executed, ToolCall{Name: name, Arguments: arguments})
	if d.result == "" {
		return `{"status":"ok"}`
	}
	return d.result
}

func textStream(chunks ...string) []Event {
	var evs []Event
	for _, c := range chunks {
		evs = append(evs, Event{Type: EventTextDelta, Text: c})
	}
	return append(evs, Event{Type: EventDone})
}

func collectEmit(out *[]string) func(string) error {
	return func(s string) error {
		*out = append(*out, s)
		return nil
	}
}

func TestReplyStreamsSentences(t *testing.T) {
	provider := NewStubProvider(func(Request) []Event {
		return textStream("Your heart rate", " is 72 bpm. That", " looks healthy.")
	})
	c := NewConversation(provider, nil, Config{FastModel: "fast"})

	var emitted []string
	reply, model, err := c.Reply(context.Background(), "What is my heart rate?", collectEmit(&emitted))
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply != "Your heart rate is 72 bpm. That looks healthy." {
		t.Fatalf("reply = %q", reply)
	}
	if model != "fast" {
		t.Fatalf("model = %q, want fast", model)
	}
	if len(emitted) != 2 {
		t.Fatalf("emitted = %q, want 2 sentences", emitted)
	}
	if emitted[0] != "Your heart rate is 72 bpm." {
		t.Fatalf("emitted[0] = %q", emitted[0])
	}

	hist := c.History()
	if len(hist) != 2 {
		t.Fatalf("history = %d messages, want 2", len(hist))
	}
	if hist[0].Role != RoleUser || hist[1].Role != RoleAssistant {
		t.Fatalf("history roles = %q/%q", hist[0].Role, hist[1].Role)
	}
}

func TestReplyFlushesUnterminatedTail(t *testing.T) {
	provider := NewStubProvider(func(Request) []Event {
		return textStream("Done")
	})
	c := NewConversation(provider, nil, Config{})

	var emitted []string
	if _, _, err := c.Reply(context.Background(), "log it", collectEmit(&emitted)); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if len(emitted) != 1 || emitted[0] != "Done" {
		t.Fatalf("emitted = %q, want [Done]", emitted)
	}
}

func TestReplyExecutesToolThenFinishes(t *testing.T) {
	dispatcher := &fakeDispatcher{
		defs:   []ToolDefinition{{Name: "get_health_context"}},
		result: `{"days":7,"data":{}}`,
	}

	provider := NewStubProvider(func(req Request) []Event {
		// First round requests the tool; after the tool result arrives the
		// model answers with text.
		if req.Messages[len(req.Messages)-1].Role == RoleTool {
			return textStream("Done.", " ")
		}
		return []Event{
			{Type: EventToolStart, ToolCall: ToolCall{ID: "t1", Name: "get_health_context"}},
			{Type: EventToolDelta, ToolCall: ToolCall{ID: "t1", Name: "get_health_context", Arguments: `{"days":7}`}},
			{Type: EventToolStop, ToolCall: ToolCall{ID: "t1", Name: "get_health_context", Arguments: `{"days":7}`}},
			{Type: EventDone},
		}
	})

	c := NewConversation(provider, dispatcher, Config{})
	var emitted []string
	reply, _, err := c.Reply(context.Background(), "How did I sleep?", collectEmit(&emitted))
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply != "Done. " {
		t.Fatalf("reply = %q", reply)
	}
	if len(emitted) != 1 || emitted[0] != "Done." {
		t.Fatalf("emitted = %q, want [Done.]", emitted)
	}

	if len(dispatcher.executed) != 1 {
		t.Fatalf("executed %d tools, want 1", len(dispatcher.executed))
	}
	if dispatcher.executed[0].Name != "get_health_context" {
		t.Fatalf("tool = %q", dispatcher.executed[0].Name)
	}
	if dispatcher.executed[0].Arguments != `{"days":7}` {
		t.Fatalf("arguments = %q", dispatcher.executed[0].Arguments)
	}

	// Second request must carry the tool result back to the model.
	reqs := provider.Requests()
	if len(reqs) != 2 {
		t.Fatalf("provider requests = %d, want 2", len(reqs))
	}
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	if last.Role != RoleTool || last.ToolCallID != "t1" {
		t.Fatalf("last message = %+v, want tool result for t1", last)
	}

	// History keeps the tool traffic.
	var sawToolMsg bool
	for _, m := range c.History() {
		if m.Role == RoleTool {
			sawToolMsg = true
		}
	}
	if !sawToolMsg {
		t.Fatal("history is missing the tool result message")
	}
}

func TestReplyBoundsToolRounds(t *testing.T) {
	dispatcher := &fakeDispatcher{defs: []ToolDefinition{{Name: "loop_tool"}}}
	calls := 0
	provider := NewStubProvider(func(req Request) []Event {
		calls++
		return []Event{
			{Type: EventToolStop, ToolCall: ToolCall{ID: fmt.Sprintf("t%d", calls), Name: "loop_tool", Arguments: "{}"}},
			{Type: EventDone},
		}
	})

	c := NewConversation(provider, dispatcher, Config{MaxToolRounds: 5})
	if _, _, err := c.Reply(context.Background(), "loop forever", nil); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if calls != 5 {
		t.Fatalf("provider called %d times, want 5", calls)
	}
	if len(dispatcher.executed) != 5 {
		t.Fatalf("executed %d tools, want 5", len(dispatcher.executed))
	}

	// Even an exhausted turn must not leave the dialogue dangling on a
	// tool result.
	hist := c.History()
	if len(hist) == 0 {
		t.Fatal("history is empty")
	}
	if last := hist[len(hist)-1]; last.Role != RoleAssistant {
		t.Fatalf("last history role = %q, want %q", last.Role, RoleAssistant)
	}
}

func TestReplyTrimsHistoryFIFO(t *testing.T) {
	turn := 0
	provider := NewStubProvider(func(Request) []Event {
		return textStream(fmt.Sprintf("Reply %d.", turn))
	})
	c := NewConversation(provider, nil, Config{HistoryCap: 6, HistoryKeep: 3})

	for turn = 0; turn < 6; turn++ {
		if _, _, err := c.Reply(context.Background(), fmt.Sprintf("turn %d", turn), nil); err != nil {
			t.Fatalf("Reply(%d) error = %v", turn, err)
		}
	}

	hist := c.History()
	if len(hist) > 6 {
		t.Fatalf("history = %d messages, want <= 6", len(hist))
	}
	// Oldest turns must be gone, the newest kept.
	for _, m := range hist {
		if m.Content == "turn 0" || m.Content == "Reply 0." {
			t.Fatal("history still contains the oldest turn")
		}
	}
	last := hist[len(hist)-1]
	if last.Content != "Reply 5." {
		t.Fatalf("newest message = %q, want Reply 5.", last.Content)
	}
}

func TestReplySurfacesProviderError(t *testing.T) {
	provider := NewStubProvider(func(Request) []Event {
		return []Event{
			{Type: EventTextDelta, Text: "Partial answer"},
			{Type: EventError, Err: errors.New("upstream 500")},
		}
	})
	c := NewConversation(provider, nil, Config{})

	var emitted []string
	reply, _, err := c.Reply(context.Background(), "hi", collectEmit(&emitted))
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("error = %v, want ErrProvider", err)
	}
	if reply != "Partial answer" {
		t.Fatalf("reply = %q, want partial text preserved", reply)
	}
	if len(emitted) != 1 || emitted[0] != "Partial answer" {
		t.Fatalf("emitted = %q, want the partial tail flushed", emitted)
	}
}

func TestReplyStopsWhenEmitFails(t *testing.T) {
	provider := NewStubProvider(func(Request) []Event {
		return textStream("One. Two. Three.", " ")
	})
	c := NewConversation(provider, nil, Config{})

	sent := 0
	_, _, err := c.Reply(context.Background(), "hi", func(string) error {
		sent++
		if sent == 2 {
			return errors.New("client gone")
		}
		return nil
	})
	if err == nil {
		t.Fatal("Reply() error = nil, want emit failure")
	}
	if sent != 2 {
		t.Fatalf("emit called %d times, want 2", sent)
	}
}

func TestResetClearsHistory(t *testing.T) {
	provider := NewStubProvider(func(Request) []Event { return textStream("Hi.", " ") })
	c := NewConversation(provider, nil, Config{})
	if _, _, err := c.Reply(context.Background(), "hello", nil); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	c.Reset()
	if len(c.History()) != 0 {
		t.Fatal("Reset() left history behind")
	}
}
