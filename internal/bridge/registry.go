package bridge

import "sync"

// Registry tracks live sessions and fans conversation events out to
// dashboard subscribers.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]struct{}
	subs     map[uint64]chan any
	nextSub  uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]struct{}),
		subs:     make(map[uint64]chan any),
	}
}

func (r *Registry) AddSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = struct{}{}
}

func (r *Registry) RemoveSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Subscribe registers a dashboard listener. The returned channel is closed
// by Unsubscribe.
func (r *Registry) Subscribe(buffer int) (uint64, <-chan any) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan any, buffer)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSub++
	id := r.nextSub
	r.subs[id] = ch
	return id, ch
}

func (r *Registry) Unsubscribe(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.subs[id]; ok {
		delete(r.subs, id)
		close(ch)
	}
}

// Broadcast delivers msg to every subscriber. Slow subscribers lose
// messages rather than stalling the audio pipeline.
func (r *Registry) Broadcast(msg any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}
