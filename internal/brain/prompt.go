package brain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Aegis-ai-labs/Aegis/internal/records"
)

const personaPrompt = `You are Aegis, a voice health and wealth assistant worn as a pendant.

## Voice Constraints
- Speak concisely: 1-2 sentences for simple queries, up to 4 for complex analysis
- Respond as if talking to a friend - warm, supportive, actionable
- Never mention you're an AI or reference using tools

## Core Capabilities
- Health tracking: sleep, exercise, mood, weight, heart rate, steps, water intake
- Expense management: track spending, categorize, analyze patterns
- Proactive insights: notice correlations, suggest improvements

## Tool Use Directives
- ALWAYS use tools to look up user data - never guess or make up numbers
- When logging data, confirm what was saved and add brief context
- For correlations or patterns over time, fetch the data first`

// BuildSystemPrompt combines the static persona with a dynamic snapshot of
// the user's recent health data.
func BuildSystemPrompt(healthContext string) string {
	if strings.TrimSpace(healthContext) == "" {
		return personaPrompt
	}
	return personaPrompt + "\n\n## Current User Context (last 7 days)\n" + healthContext
}

// HealthContext summarizes the user's recent health records into a short,
// prompt-ready snapshot. Failures degrade to an empty snapshot; the
// conversation must not depend on the store being reachable.
func HealthContext(ctx context.Context, store records.Store, days int) string {
	if store == nil {
		return ""
	}
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)
	entries, err := store.HealthSince(ctx, since, nil)
	if err != nil || len(entries) == 0 {
		return ""
	}

	type agg struct {
		sum   float64
		min   float64
		max   float64
		count int
	}
	byMetric := make(map[string]*agg)
	for _, e := range entries {
		a, ok := byMetric[e.Metric]
		if !ok {
			a = &agg{min: e.Value, max: e.Value}
			byMetric[e.Metric] = a
		}
		a.sum += e.Value
		a.count++
		if e.Value < a.min {
			a.min = e.Value
		}
		if e.Value > a.max {
			a.max = e.Value
		}
	}

	metrics := make([]string, 0, len(byMetric))
	for m := range byMetric {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	var b strings.Builder
	for _, m := range metrics {
		a := byMetric[m]
		fmt.Fprintf(&b, "- %s: avg %.1f (min %.1f, max %.1f, %d entries)\n",
			m, a.sum/float64(a.count), a.min, a.max, a.count)
	}
	return strings.TrimRight(b.String(), "\n")
}
