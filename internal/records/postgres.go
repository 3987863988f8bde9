package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists health and expense records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS health_logs (
			id TEXT PRIMARY KEY,
			metric TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_health_logs_metric_recorded ON health_logs (metric, recorded_at);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			amount DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_category_recorded ON expenses (category, recorded_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) LogHealth(ctx context.Context, entry HealthEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO health_logs (id, metric, value, notes, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Metric, entry.Value, entry.Notes, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("log health: %w", err)
	}
	return nil
}

func (s *PostgresStore) HealthSince(ctx context.Context, since time.Time, metrics []string) ([]HealthEntry, error) {
	query := `SELECT id, metric, value, notes, recorded_at FROM health_logs
		 WHERE recorded_at >= $1 ORDER BY recorded_at DESC`
	args := []any{since}
	if len(metrics) > 0 {
		query = `SELECT id, metric, value, notes, recorded_at FROM health_logs
		 WHERE recorded_at >= $1 AND metric = ANY($2) ORDER BY recorded_at DESC`
		args = append(args, metrics)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query health logs: %w", err)
	}
	defer rows.Close()

	var out []HealthEntry
	for rows.Next() {
		var e HealthEntry
		if err := rows.Scan(&e.ID, &e.Metric, &e.Value, &e.Notes, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan health row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate health rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) TrackExpense(ctx context.Context, expense Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.RecordedAt.IsZero() {
		expense.RecordedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO expenses (id, amount, category, description, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		expense.ID, expense.Amount, expense.Category, expense.Description, expense.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("track expense: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExpensesSince(ctx context.Context, since time.Time, category string) ([]Expense, error) {
	query := `SELECT id, amount, category, description, recorded_at FROM expenses
		 WHERE recorded_at >= $1 ORDER BY recorded_at DESC`
	args := []any{since}
	if category != "" {
		query = `SELECT id, amount, category, description, recorded_at FROM expenses
		 WHERE recorded_at >= $1 AND category = $2 ORDER BY recorded_at DESC`
		args = append(args, category)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
