package tools

import (
	"context"
	"sort"
	"time"

	"github.com/Aegis-ai-labs/Aegis/internal/records"
)

func (r *Registry) trackExpense(ctx context.Context, amount float64, category, description string) (any, error) {
	if category == "" {
		return map[string]any{"error": "category is required"}, nil
	}
	err := r.store.TrackExpense(ctx, records.Expense{
		Amount:      amount,
		Category:    category,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	weekExpenses, err := r.store.ExpensesSince(ctx, weekAgo, category)
	if err != nil {
		return nil, err
	}
	weekTotal := 0.0
	for _, e := range weekExpenses {
		weekTotal += e.Amount
	}

	return map[string]any{
		"status":                 "recorded",
		"amount":                 amount,
		"category":               category,
		"description":            description,
		"week_total_in_category": round2(weekTotal),
	}, nil
}

func (r *Registry) getSpendingSummary(ctx context.Context, days int, category string) (any, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	expenses, err := r.store.ExpensesSince(ctx, since, category)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]float64{}
	for _, e := range expenses {
		byCategory[e.Category] += e.Amount
	}
	total := 0.0
	for _, v := range byCategory {
		total += v
	}
	rounded := map[string]float64{}
	for k, v := range byCategory {
		rounded[k] = round2(v)
	}

	type recentView struct {
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description,omitempty"`
		Date        string  `json:"date"`
	}
	recent := make([]recentView, 0, 5)
	for _, e := range expenses {
		if len(recent) == 5 {
			break
		}
		recent = append(recent, recentView{
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			Date:        e.RecordedAt.Format(dateLayout),
		})
	}

	return map[string]any{
		"days":              days,
		"total_spent":       round2(total),
		"daily_average":     round2(total / float64(days)),
		"by_category":       rounded,
		"transaction_count": len(expenses),
		"recent":            recent,
	}, nil
}

func (r *Registry) calculateSavingsGoal(ctx context.Context, targetAmount float64, targetMonths int, monthlyIncome *float64) (any, error) {
	if targetMonths <= 0 {
		targetMonths = 1
	}

	monthAgo := time.Now().AddDate(0, 0, -30)
	expenses, err := r.store.ExpensesSince(ctx, monthAgo, "")
	if err != nil {
		return nil, err
	}

	monthlySpending := 0.0
	byCategory := map[string]float64{}
	for _, e := range expenses {
		monthlySpending += e.Amount
		byCategory[e.Category] += e.Amount
	}

	// Largest categories first, mirroring how the summary reads aloud.
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return byCategory[categories[i]] > byCategory[categories[j]]
	})
	spendingByCategory := map[string]float64{}
	for _, c := range categories {
		spendingByCategory[c] = round2(byCategory[c])
	}

	monthlyNeeded := targetAmount / float64(targetMonths)

	result := map[string]any{
		"target_amount":            targetAmount,
		"target_months":            targetMonths,
		"monthly_savings_needed":   round2(monthlyNeeded),
		"current_monthly_spending": round2(monthlySpending),
		"spending_by_category":     spendingByCategory,
	}

	if monthlyIncome != nil {
		currentSavings := *monthlyIncome - monthlySpending
		result["monthly_income"] = *monthlyIncome
		result["current_monthly_savings"] = round2(currentSavings)
		result["gap"] = round2(monthlyNeeded - currentSavings)
		result["feasible"] = currentSavings >= monthlyNeeded
	}

	return result, nil
}
