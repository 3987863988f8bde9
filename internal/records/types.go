// Package records persists the health and expense data points the assistant
// logs on the user's behalf.
package records

import (
	"context"
	"time"
)

// Health metrics accepted by the log_health tool.
var KnownMetrics = []string{
	"sleep_hours", "steps", "heart_rate", "mood", "weight", "water", "exercise_minutes",
}

// HealthEntry is one logged health data point.
type HealthEntry struct {
	ID         string    `json:"id"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Expense is one tracked spending item.
type Expense struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Store persists and retrieves health and expense records.
type Store interface {
	LogHealth(ctx context.Context, entry HealthEntry) error
	// HealthSince returns entries recorded at or after since, newest first.
	// An empty metrics slice matches all metrics.
	HealthSince(ctx context.Context, since time.Time, metrics []string) ([]HealthEntry, error)
	TrackExpense(ctx context.Context, expense Expense) error
	// ExpensesSince returns expenses recorded at or after since, newest
	// first. An empty category matches all categories.
	ExpensesSince(ctx context.Context, since time.Time, category string) ([]Expense, error)
	Close() error
}
