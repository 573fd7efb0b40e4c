package analysis

import (
	"sort"
	"time"

	"winrec/internal/types"
)

// MinIntervalSeconds is the shortest interval kept after a multi-source merge
const MinIntervalSeconds = 1.0

// Resolver turns one day's records from any number of sources into a
// single non-overlapping timeline.
type Resolver struct {
	Priorities PriorityTable
	Location   *time.Location
}

// NewResolver creates a resolver. A nil table uses DefaultPriorityTable.
func NewResolver(priorities PriorityTable, loc *time.Location) *Resolver {
	if priorities == nil {
		priorities = DefaultPriorityTable()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Priorities: priorities, Location: loc}
}

func (r *Resolver) toInterval(rec types.ActivityRecord) types.ResolvedInterval {
	return types.ResolvedInterval{
		Start:    rec.Start().In(r.Location),
		End:      rec.End().In(r.Location),
		Category: rec.Category,
		Source:   types.NormalizeSource(rec.Source),
		Duration: float64(rec.Duration),
		Priority: r.Priorities.Rank(rec.Category),
	}
}

// Resolve runs the priority sweep.
//
// With a single source the records are returned as intervals sorted by
// start and otherwise untouched. With several sources, records are sorted
// by (start, priority); an overlapping record of strictly higher priority
// truncates the current interval, any other overlapping record is dropped
// whole, including the part past the current interval's end. Intervals of
// one second or less are then removed.
func (r *Resolver) Resolve(records []types.ActivityRecord) []types.ResolvedInterval {
	if len(records) == 0 {
		return []types.ResolvedInterval{}
	}

	intervals := make([]types.ResolvedInterval, len(records))
	sources := make(map[string]struct{})
	for i, rec := range records {
		intervals[i] = r.toInterval(rec)
		sources[intervals[i].Source] = struct{}{}
	}

	if len(sources) == 1 {
		sort.SliceStable(intervals, func(i, j int) bool {
			return intervals[i].Start.Before(intervals[j].Start)
		})
		return intervals
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Priority < b.Priority
	})

	emitted := make([]types.ResolvedInterval, 0, len(intervals))
	current := intervals[0]
	for _, next := range intervals[1:] {
		if !next.Start.Before(current.End) {
			emitted = append(emitted, current)
			current = next
			continue
		}
		if next.Priority < current.Priority {
			current.End = next.Start
			if current.End.After(current.Start) {
				emitted = append(emitted, current)
			}
			current = next
		}
		// equal or lower priority: next is discarded
	}
	emitted = append(emitted, current)

	resolved := emitted[:0]
	for _, iv := range emitted {
		iv.Duration = iv.Seconds()
		if iv.Duration > MinIntervalSeconds {
			resolved = append(resolved, iv)
		}
	}
	return resolved
}
