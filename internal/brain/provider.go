// Package brain drives the assistant conversation: streaming model output,
// tool dispatch, sentence extraction for early synthesis, and dialogue
// history.
package brain

import "context"

// Role tags a dialogue message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the dialogue. Assistant messages may carry tool
// calls; tool messages carry a result for the call named by ToolCallID.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a model-requested tool invocation. Arguments is the raw JSON
// argument payload as streamed by the provider.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a callable tool to the model. Parameters is a
// JSON Schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Dispatcher executes tool calls on behalf of the conversation. Execute
// always returns a JSON document; execution failures are encoded as
// {"error": ...} payloads rather than Go errors, so a bad tool call never
// aborts a turn.
type Dispatcher interface {
	Definitions() []ToolDefinition
	Execute(ctx context.Context, name, arguments string) string
}

// EventType discriminates the streamed Event union.
type EventType string

const (
	// EventTextDelta carries an incremental chunk of assistant text.
	EventTextDelta EventType = "text_delta"
	// EventToolStart announces a tool call; ID and Name are set.
	EventToolStart EventType = "tool_start"
	// EventToolDelta carries a fragment of a tool call's JSON arguments.
	EventToolDelta EventType = "tool_delta"
	// EventToolStop carries the completed tool call with full arguments.
	EventToolStop EventType = "tool_stop"
	// EventDone marks a clean end of stream.
	EventDone EventType = "done"
	// EventError reports a mid-stream provider failure; the stream ends
	// after it.
	EventError EventType = "error"
)

// Event is one element of a provider response stream.
type Event struct {
	Type     EventType
	Text     string
	ToolCall ToolCall
	Err      error
}

// Request is a single streamed completion call.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolDefinition
	MaxTokens int
}

// Provider streams model responses. The returned channel is closed when the
// stream ends; cancellation of ctx must terminate the stream.
type Provider interface {
	Respond(ctx context.Context, req Request) (<-chan Event, error)
}
