package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use.
type InMemoryStore struct {
	mu       sync.RWMutex
	health   []HealthEntry
	expenses []Expense
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) LogHealth(_ context.Context, entry HealthEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	s.health = append(s.health, entry)
	return nil
}

func (s *InMemoryStore) HealthSince(_ context.Context, since time.Time, metrics []string) ([]HealthEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		wanted[m] = true
	}

	var out []HealthEntry
	for _, e := range s.health {
		if e.RecordedAt.Before(since) {
			continue
		}
		if len(wanted) > 0 && !wanted[e.Metric] {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (s *InMemoryStore) TrackExpense(_ context.Context, expense Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.RecordedAt.IsZero() {
		expense.RecordedAt = time.Now().UTC()
	}
	s.expenses = append(s.expenses, expense)
	return nil
}

func (s *InMemoryStore) ExpensesSince(_ context.Context, since time.Time, category string) ([]Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Expense
	for _, e := range s.expenses {
		if e.RecordedAt.Before(since) {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
