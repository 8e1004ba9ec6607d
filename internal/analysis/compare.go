package analysis

import (
	"sort"

	"pv-battery-sizing/internal/model"
)

// ScenarioResult pairs a named parameter variation with its solved outcome.
type ScenarioResult struct {
	Name    string
	Result  *model.SizingResult
	Metrics Metrics
}

// RankBySavings sorts scenario results descending by savings over the
// grid-only baseline, ties broken by name for stable output.
func RankBySavings(scenarios []ScenarioResult) []ScenarioResult {
	out := make([]ScenarioResult, len(scenarios))
	copy(out, scenarios)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Metrics.Savings != out[j].Metrics.Savings {
			return out[i].Metrics.Savings > out[j].Metrics.Savings
		}
		return out[i].Name < out[j].Name
	})
	return out
}
