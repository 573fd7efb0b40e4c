package analysis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"winrec/internal/types"
)

// Revisioner reports a counter that changes whenever the underlying data does
type Revisioner interface {
	Revision() uint64
}

// DayLoader builds the report of one day
type DayLoader func(ctx context.Context, day string) (types.DayReport, error)

type cacheEntry struct {
	report   types.DayReport
	revision uint64
	expires  time.Time
}

// DayCache keeps resolved day reports for a TTL. An entry is stale once the
// journal revision moves past the one it was built at, or after Invalidate.
type DayCache struct {
	ttl      time.Duration
	revision Revisioner
	now      func() time.Time
	flight   singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewDayCache creates a cache. revision may be nil.
func NewDayCache(ttl time.Duration, revision Revisioner) *DayCache {
	return &DayCache{
		ttl:      ttl,
		revision: revision,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
}

func (c *DayCache) currentRevision() uint64 {
	if c.revision == nil {
		return 0
	}
	return c.revision.Revision()
}

// Get returns the cached report for day or builds it with loader. Concurrent
// misses for the same day and revision share one load. Loader errors are
// returned and not cached.
func (c *DayCache) Get(ctx context.Context, day string, loader DayLoader) (types.DayReport, error) {
	rev := c.currentRevision()

	c.mu.Lock()
	entry, ok := c.entries[day]
	c.mu.Unlock()
	if ok && entry.revision == rev && c.now().Before(entry.expires) {
		return entry.report, nil
	}

	v, err, _ := c.flight.Do(day+"@"+strconv.FormatUint(rev, 10), func() (interface{}, error) {
		return loader(ctx, day)
	})
	if err != nil {
		return types.DayReport{}, err
	}
	report := v.(types.DayReport)
	if c.ttl <= 0 {
		return report, nil
	}

	c.mu.Lock()
	c.entries[day] = cacheEntry{report: report, revision: rev, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return report, nil
}

// Invalidate drops every cached day
func (c *DayCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached days
func (c *DayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
