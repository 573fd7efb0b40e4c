package analysis

import (
	"sort"

	"winrec/internal/types"
)

// Summarize totals resolved seconds per category
func Summarize(intervals []types.ResolvedInterval) map[string]float64 {
	totals := make(map[string]float64)
	for _, iv := range intervals {
		totals[iv.Category] += iv.Duration
	}
	return totals
}

// SortedTotals orders a summary by descending total, then by category
func SortedTotals(totals map[string]float64) []types.CategoryTotal {
	out := make([]types.CategoryTotal, 0, len(totals))
	for category, seconds := range totals {
		out = append(out, types.CategoryTotal{Category: category, TotalDuration: seconds})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDuration != out[j].TotalDuration {
			return out[i].TotalDuration > out[j].TotalDuration
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BuildReport resolves one day's records and attaches the category totals
func (r *Resolver) BuildReport(day, origin string, records []types.ActivityRecord) types.DayReport {
	intervals := r.Resolve(records)
	totals := Summarize(intervals)

	var total float64
	for _, seconds := range totals {
		total += seconds
	}
	return types.DayReport{
		Day:       day,
		Origin:    origin,
		TotalTime: total,
		Intervals: intervals,
		Totals:    SortedTotals(totals),
	}
}
