// Package tools exposes the health and wealth tracking tools the model can
// call during a turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Aegis-ai-labs/Aegis/internal/brain"
	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/records"
)

// Registry implements brain.Dispatcher over a records.Store.
type Registry struct {
	store   records.Store
	metrics *observability.Metrics
}

func NewRegistry(store records.Store, metrics *observability.Metrics) *Registry {
	return &Registry{store: store, metrics: metrics}
}

func (r *Registry) Definitions() []brain.ToolDefinition {
	return []brain.ToolDefinition{
		{
			Name:        "get_health_context",
			Description: "Get user's recent health data (sleep, steps, heart rate, mood, weight). Call this when user asks about their health.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"days": map[string]any{"type": "integer", "description": "Number of days to look back", "default": 7},
					"metrics": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Which metrics: sleep_hours, steps, heart_rate, mood, weight, water, exercise_minutes",
					},
				},
			},
		},
		{
			Name:        "log_health",
			Description: "Log a health data point the user reports.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"metric": map[string]any{"type": "string", "enum": records.KnownMetrics},
					"value":  map[string]any{"type": "number"},
					"notes":  map[string]any{"type": "string"},
				},
				"required": []string{"metric", "value"},
			},
		},
		{
			Name:        "analyze_health_patterns",
			Description: "Deep analysis of health trends and correlations. Use for complex questions about health patterns over time.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "What pattern to analyze"},
					"days":  map[string]any{"type": "integer", "default": 30},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "track_expense",
			Description: "Record an expense the user mentions.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"amount": map[string]any{"type": "number"},
					"category": map[string]any{
						"type": "string",
						"enum": []string{"food", "transport", "housing", "health", "entertainment", "shopping", "utilities", "other"},
					},
					"description": map[string]any{"type": "string"},
				},
				"required": []string{"amount", "category"},
			},
		},
		{
			Name:        "get_spending_summary",
			Description: "Get spending summary for a time period.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"days":     map[string]any{"type": "integer", "default": 30},
					"category": map[string]any{"type": "string", "description": "Optional: filter by category"},
				},
			},
		},
		{
			Name:        "calculate_savings_goal",
			Description: "Calculate how to reach a savings target based on current spending patterns.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"target_amount":  map[string]any{"type": "number"},
					"target_months":  map[string]any{"type": "integer"},
					"monthly_income": map[string]any{"type": "number"},
				},
				"required": []string{"target_amount", "target_months"},
			},
		},
	}
}

// Execute routes a tool call to its handler. It always returns a JSON
// document; failures, including a panicking handler or store, come back as
// {"error": ...} so the conversation can hand them to the model instead of
// aborting the turn.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (out string) {
	defer func() {
		if p := recover(); p != nil {
			out = errorJSON(fmt.Sprintf("tool %s panicked: %v", name, p))
		}
	}()
	if r.metrics != nil {
		r.metrics.ToolCalls.WithLabelValues(name).Inc()
	}
	result, err := r.dispatch(ctx, name, arguments)
	if err != nil {
		return errorJSON(err.Error())
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return errorJSON(fmt.Sprintf("encode %s result: %v", name, err))
	}
	return string(raw)
}

func (r *Registry) dispatch(ctx context.Context, name, arguments string) (any, error) {
	switch name {
	case "get_health_context":
		var args struct {
			Days    int      `json:"days"`
			Metrics []string `json:"metrics"`
		}
		if err := parseArgs(arguments, &args); err != nil {
			return nil, err
		}
		return r.getHealthContext(ctx, args.Days, args.Metrics)
	case "log_health":
		var args struct {
			Metric string  `json:"metric"`
			Value  float64 `json:"value"`
			Notes  string  `json:"notes"`
		}
		if err := parseArgs(arguments, &args); err != nil {
			return nil, err
		}
		return r.logHealth(ctx, args.Metric, args.Value, args.Notes)
	case "analyze_health_patterns":
		var args struct {
			Query string `json:"query"`
			Days  int    `json:"days"`
		}
		if err := parseArgs(arguments, &args); err != nil {
			return nil, err
		}
		return r.analyzeHealthPatterns(ctx, args.Query, args.Days)
	case "track_expense":
		var args struct {
			Amount      float64 `json:"amount"`
			Category    string  `json:"category"`
			Description string  `json:"description"`
		}
		if err := parseArgs(arguments, &args); err != nil {
			return nil, err
		}
		return r.trackExpense(ctx, args.Amount, args.Category, args.Description)
	case "get_spending_summary":
		var args struct {
			Days     int    `json:"days"`
			Category string `json:"category"`
		}
		if err := parseArgs(arguments, &args); err != nil {
			return nil, err
		}
		return r.getSpendingSummary(ctx, args.Days, args.Category)
	case "calculate_savings_goal":
		var args struct {
			TargetAmount  float64  `json:"target_amount"`
			TargetMonths  int      `json:"target_months"`
			MonthlyIncome *float64 `json:"monthly_income"`
		}
		if err := parseArgs(arguments, &args); err != nil {
			return nil, err
		}
		return r.calculateSavingsGoal(ctx, args.TargetAmount, args.TargetMonths, args.MonthlyIncome)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// parseArgs tolerates an empty argument payload; models sometimes send
// nothing for all-optional schemas.
func parseArgs(arguments string, out any) error {
	if arguments == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(arguments), out); err != nil {
		return fmt.Errorf("invalid tool arguments: %v", err)
	}
	return nil
}

func errorJSON(msg string) string {
	raw, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal"}`
	}
	return string(raw)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
