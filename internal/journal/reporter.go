package journal

import (
	"context"

	"winrec/internal/analysis"
	"winrec/internal/types"
)

// Reporter builds resolved day reports from the tiered journal
type Reporter struct {
	source   *Tiered
	resolver *analysis.Resolver
	cache    *analysis.DayCache
}

// NewReporter creates a reporter. cache may be nil to always rebuild.
func NewReporter(source *Tiered, resolver *analysis.Resolver, cache *analysis.DayCache) *Reporter {
	return &Reporter{source: source, resolver: resolver, cache: cache}
}

// Day returns the resolved timeline and category totals of day
func (r *Reporter) Day(ctx context.Context, day string) (types.DayReport, error) {
	if r.cache == nil {
		return r.build(ctx, day)
	}
	return r.cache.Get(ctx, day, r.build)
}

func (r *Reporter) build(ctx context.Context, day string) (types.DayReport, error) {
	records, origin, err := r.source.ReadDay(ctx, day)
	if err != nil {
		return types.DayReport{}, err
	}
	return r.resolver.BuildReport(day, origin, records), nil
}

// Days lists the days a report can be built for
func (r *Reporter) Days(ctx context.Context) ([]string, error) {
	days, _, err := r.source.Days(ctx)
	return days, err
}

// Invalidate drops cached reports
func (r *Reporter) Invalidate() {
	if r.cache != nil {
		r.cache.Invalidate()
	}
}
