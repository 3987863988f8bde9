package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/records"
)

// panickingStore fails the way a broken driver does: by panicking inside a
// store call rather than returning an error.
type panickingStore struct {
	records.Store
}

func (panickingStore) LogHealth(context.Context, records.HealthEntry) error {
	panic("driver blew up")
}

func decodeResult(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("Execute() returned invalid JSON %q: %v", raw, err)
	}
	return out
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(records.NewInMemoryStore(), nil)
	out := decodeResult(t, r.Execute(context.Background(), "summon_dragon", "{}"))
	if !strings.Contains(out["error"].(string), "unknown tool") {
		t.Fatalf("error = %v, want unknown tool", out["error"])
	}
}

func TestExecuteMalformedArguments(t *testing.T) {
	r := NewRegistry(records.NewInMemoryStore(), nil)
	out := decodeResult(t, r.Execute(context.Background(), "log_health", "{not json"))
	if _, ok := out["error"]; !ok {
		t.Fatalf("expected error payload, got %v", out)
	}
}

func TestExecuteRecoversHandlerPanic(t *testing.T) {
	r := NewRegistry(panickingStore{records.NewInMemoryStore()}, nil)
	out := decodeResult(t, r.Execute(context.Background(),
		"log_health", `{"metric":"steps","value":9000}`))
	msg, ok := out["error"].(string)
	if !ok {
		t.Fatalf("expected error payload, got %v", out)
	}
	if !strings.Contains(msg, "panicked") || !strings.Contains(msg, "driver blew up") {
		t.Fatalf("error = %q, want panic details", msg)
	}
}

func TestExecuteCountsToolCalls(t *testing.T) {
	metrics := observability.NewMetrics("toolstest")
	r := NewRegistry(records.NewInMemoryStore(), metrics)
	ctx := context.Background()

	r.Execute(ctx, "get_spending_summary", "")
	r.Execute(ctx, "get_spending_summary", "")
	r.Execute(ctx, "log_health", `{"metric":"mood","value":8}`)

	if got := testutil.ToFloat64(metrics.ToolCalls.WithLabelValues("get_spending_summary")); got != 2 {
		t.Fatalf("get_spending_summary count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ToolCalls.WithLabelValues("log_health")); got != 1 {
		t.Fatalf("log_health count = %v, want 1", got)
	}
}

func TestLogHealthThenContext(t *testing.T) {
	store := records.NewInMemoryStore()
	r := NewRegistry(store, nil)
	ctx := context.Background()

	out := decodeResult(t, r.Execute(ctx, "log_health", `{"metric":"sleep_hours","value":7.5,"notes":"slept well"}`))
	if out["status"] != "logged" {
		t.Fatalf("status = %v, want logged", out["status"])
	}
	if out["metric"] != "sleep_hours" || out["value"] != 7.5 {
		t.Fatalf("unexpected result: %v", out)
	}

	out = decodeResult(t, r.Execute(ctx, "get_health_context", `{"days":7,"metrics":["sleep_hours"]}`))
	data, ok := out["data"].(map[string]any)
	if !ok {
		t.Fatalf("data missing: %v", out)
	}
	sleep, ok := data["sleep_hours"].(map[string]any)
	if !ok {
		t.Fatalf("sleep_hours missing: %v", data)
	}
	if sleep["count"] != float64(1) || sleep["avg"] != 7.5 {
		t.Fatalf("summary = %v", sleep)
	}
}

func TestLogHealthRequiresMetric(t *testing.T) {
	r := NewRegistry(records.NewInMemoryStore(), nil)
	out := decodeResult(t, r.Execute(context.Background(), "log_health", `{"value":7}`))
	if _, ok := out["error"]; !ok {
		t.Fatalf("expected error for missing metric, got %v", out)
	}
}

func TestTrackExpenseReportsWeekTotal(t *testing.T) {
	store := records.NewInMemoryStore()
	r := NewRegistry(store, nil)
	ctx := context.Background()

	r.Execute(ctx, "track_expense", `{"amount":10,"category":"food"}`)
	out := decodeResult(t, r.Execute(ctx, "track_expense", `{"amount":5.5,"category":"food","description":"coffee"}`))
	if out["status"] != "recorded" {
		t.Fatalf("status = %v, want recorded", out["status"])
	}
	if out["week_total_in_category"] != 15.5 {
		t.Fatalf("week_total_in_category = %v, want 15.5", out["week_total_in_category"])
	}
}

func TestGetSpendingSummaryAggregates(t *testing.T) {
	store := records.NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	store.TrackExpense(ctx, records.Expense{Amount: 30, Category: "food", RecordedAt: now.Add(-time.Hour)})
	store.TrackExpense(ctx, records.Expense{Amount: 20, Category: "transport", RecordedAt: now.Add(-2 * time.Hour)})
	store.TrackExpense(ctx, records.Expense{Amount: 10, Category: "food", RecordedAt: now.Add(-3 * time.Hour)})

	r := NewRegistry(store, nil)
	out := decodeResult(t, r.Execute(ctx, "get_spending_summary", `{"days":30}`))
	if out["total_spent"] != float64(60) {
		t.Fatalf("total_spent = %v, want 60", out["total_spent"])
	}
	if out["transaction_count"] != float64(3) {
		t.Fatalf("transaction_count = %v, want 3", out["transaction_count"])
	}
	byCategory := out["by_category"].(map[string]any)
	if byCategory["food"] != float64(40) {
		t.Fatalf("by_category[food] = %v, want 40", byCategory["food"])
	}
	if out["daily_average"] != float64(2) {
		t.Fatalf("daily_average = %v, want 2", out["daily_average"])
	}
}

func TestCalculateSavingsGoalWithIncome(t *testing.T) {
	store := records.NewInMemoryStore()
	ctx := context.Background()
	store.TrackExpense(ctx, records.Expense{Amount: 1000, Category: "housing"})

	r := NewRegistry(store, nil)
	out := decodeResult(t, r.Execute(ctx, "calculate_savings_goal",
		`{"target_amount":6000,"target_months":6,"monthly_income":3000}`))

	if out["monthly_savings_needed"] != float64(1000) {
		t.Fatalf("monthly_savings_needed = %v, want 1000", out["monthly_savings_needed"])
	}
	if out["current_monthly_savings"] != float64(2000) {
		t.Fatalf("current_monthly_savings = %v, want 2000", out["current_monthly_savings"])
	}
	if out["feasible"] != true {
		t.Fatalf("feasible = %v, want true", out["feasible"])
	}
}

func TestExecuteEmptyArgumentsAllowed(t *testing.T) {
	r := NewRegistry(records.NewInMemoryStore(), nil)
	out := decodeResult(t, r.Execute(context.Background(), "get_spending_summary", ""))
	if _, ok := out["error"]; ok {
		t.Fatalf("empty arguments should use defaults, got %v", out)
	}
	if out["days"] != float64(30) {
		t.Fatalf("days = %v, want default 30", out["days"])
	}
}

func TestDefinitionsCoverEveryTool(t *testing.T) {
	r := NewRegistry(records.NewInMemoryStore(), nil)
	defs := r.Definitions()
	if len(defs) != 6 {
		t.Fatalf("definitions = %d, want 6", len(defs))
	}
	ctx := context.Background()
	for _, def := range defs {
		out := decodeResult(t, r.Execute(ctx, def.Name, "{}"))
		// Missing required fields may produce an error payload, but every
		// defined tool must dispatch to a handler.
		if msg, ok := out["error"].(string); ok && strings.Contains(msg, "unknown tool") {
			t.Fatalf("defined tool %q is not dispatchable", def.Name)
		}
	}
}
