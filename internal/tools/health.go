package tools

import (
	"context"
	"sort"
	"time"

	"github.com/Aegis-ai-labs/Aegis/internal/records"
)

const dateLayout = "2006-01-02"

func (r *Registry) getHealthContext(ctx context.Context, days int, metrics []string) (any, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	entries, err := r.store.HealthSince(ctx, since, metrics)
	if err != nil {
		return nil, err
	}

	type entryView struct {
		Value float64 `json:"value"`
		Notes string  `json:"notes,omitempty"`
		Date  string  `json:"date"`
	}
	grouped := map[string][]entryView{}
	values := map[string][]float64{}
	for _, e := range entries {
		grouped[e.Metric] = append(grouped[e.Metric], entryView{
			Value: e.Value,
			Notes: e.Notes,
			Date:  e.RecordedAt.Format(dateLayout),
		})
		values[e.Metric] = append(values[e.Metric], e.Value)
	}

	summary := map[string]any{}
	for metric, vs := range values {
		sum, min, max := 0.0, vs[0], vs[0]
		for _, v := range vs {
			sum += v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		shown := grouped[metric]
		if len(shown) > 10 {
			shown = shown[:10]
		}
		summary[metric] = map[string]any{
			"entries": shown,
			"count":   len(vs),
			"avg":     round2(sum / float64(len(vs))),
			"min":     round2(min),
			"max":     round2(max),
		}
	}

	return map[string]any{"days": days, "data": summary}, nil
}

func (r *Registry) logHealth(ctx context.Context, metric string, value float64, notes string) (any, error) {
	if metric == "" {
		return map[string]any{"error": "metric is required"}, nil
	}
	err := r.store.LogHealth(ctx, records.HealthEntry{
		Metric: metric,
		Value:  value,
		Notes:  notes,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "logged", "metric": metric, "value": value}, nil
}

func (r *Registry) analyzeHealthPatterns(ctx context.Context, query string, days int) (any, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	entries, err := r.store.HealthSince(ctx, since, nil)
	if err != nil {
		return nil, err
	}

	// Group by date so the model can look for day-to-day correlations.
	byDate := map[string]map[string]float64{}
	for _, e := range entries {
		date := e.RecordedAt.Format(dateLayout)
		if byDate[date] == nil {
			byDate[date] = map[string]float64{}
		}
		byDate[date][e.Metric] = e.Value
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	daily := make([]map[string]any, 0, len(dates))
	for _, d := range dates {
		row := map[string]any{"date": d}
		for metric, v := range byDate[d] {
			row[metric] = v
		}
		daily = append(daily, row)
	}

	return map[string]any{
		"query":         query,
		"days_analyzed": days,
		"total_records": len(entries),
		"daily_data":    daily,
	}, nil
}
