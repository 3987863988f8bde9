package brain

import (
	"context"
	"strings"
	"sync"
)

// StubProvider replays scripted events. It backs the "stub" backend for
// offline development and the conversation tests.
type StubProvider struct {
	mu sync.Mutex
	// Script produces the event stream for one request. When nil, the
	// provider echoes a canned reply.
	Script   func(req Request) []Event
	requests []Request
}

func NewStubProvider(script func(req Request) []Event) *StubProvider {
	return &StubProvider{Script: script}
}

// EchoStub answers every request with a short fixed reply. Useful when the
// bridge runs without any model credentials.
func EchoStub() *StubProvider {
	return NewStubProvider(func(req Request) []Event {
		text := "I heard you."
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == RoleUser {
				if t := strings.TrimSpace(req.Messages[i].Content); t != "" {
					text = "You said: " + t
				}
				break
			}
		}
		return []Event{
			{Type: EventTextDelta, Text: text},
			{Type: EventDone},
		}
	})
}

func (p *StubProvider) Respond(ctx context.Context, req Request) (<-chan Event, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	script := p.Script
	p.mu.Unlock()

	var events []Event
	if script != nil {
		events = script(req)
	}

	ch := make(chan Event, len(events))
	go func() {
		defer close(ch)
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Requests returns a copy of every request seen so far.
func (p *StubProvider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}
