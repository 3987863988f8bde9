package brain

import "strings"

// deepTriggers route a turn to the deep model for analysis-heavy questions.
// Everything else takes the fast path.
var deepTriggers = []string{
	"analyze", "pattern", "trend", "plan", "correlat", "compare",
	"why am i", "why do i", "what's causing", "relationship between",
	"over time", "savings goal", "financial plan", "budget plan",
}

// SelectModel picks the deep model when the user's text contains an
// analysis trigger, the fast model otherwise.
func SelectModel(userText, fastModel, deepModel string) string {
	lower := strings.ToLower(userText)
	for _, trigger := range deepTriggers {
		if strings.Contains(lower, trigger) {
			return deepModel
		}
	}
	return fastModel
}
