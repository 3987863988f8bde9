package brain

import "testing"

func TestNewAnyLLMProviderRejectsUnknownBackend(t *testing.T) {
	if _, err := NewAnyLLMProvider("fakecloud"); err == nil {
		t.Fatal("NewAnyLLMProvider(fakecloud) error = nil, want error")
	}
}

func TestBuildParamsIncludesSystemAndTools(t *testing.T) {
	params := buildParams(Request{
		Model:     "claude-haiku-4-5",
		System:    "persona",
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Tools:     []ToolDefinition{{Name: "log_health", Description: "log it"}},
		MaxTokens: 300,
	})

	if params.Model != "claude-haiku-4-5" {
		t.Fatalf("Model = %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(params.Messages))
	}
	if params.Messages[0].Content != "persona" {
		t.Fatalf("system message = %q", params.Messages[0].Content)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 300 {
		t.Fatalf("MaxTokens = %v, want 300", params.MaxTokens)
	}
	if len(params.Tools) != 1 || params.Tools[0].Function.Name != "log_health" {
		t.Fatalf("tools = %+v", params.Tools)
	}
}

func TestConvertMessageToolResult(t *testing.T) {
	msg := convertMessage(Message{Role: RoleTool, ToolCallID: "t1", Content: `{"ok":true}`})
	if msg.Role != RoleTool || msg.ToolCallID != "t1" {
		t.Fatalf("converted = %+v", msg)
	}
}

func TestConvertMessageCarriesToolCalls(t *testing.T) {
	msg := convertMessage(Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "t1", Name: "track_expense", Arguments: `{"amount":5}`}},
	})
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(msg.ToolCalls))
	}
	tc := msg.ToolCalls[0]
	if tc.ID != "t1" || tc.Function.Name != "track_expense" || tc.Function.Arguments != `{"amount":5}` {
		t.Fatalf("tool call = %+v", tc)
	}
}
