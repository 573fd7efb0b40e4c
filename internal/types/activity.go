package types

import (
	"math"
	"strings"
	"time"
)

// UnknownSource is recorded when a capture agent does not identify itself
const UnknownSource = "unknown"

// LocalDateLayout is the calendar day key format
const LocalDateLayout = "2006-01-02"

// ActivityRecord is one captured interval. Timestamp is the end of the interval
// in epoch seconds; the interval started Duration seconds earlier.
type ActivityRecord struct {
	ID          int64   `json:"id,omitempty"`
	Timestamp   float64 `json:"timestamp"`
	Duration    int64   `json:"duration"`
	Category    string  `json:"category"`
	WindowTitle string  `json:"window_title"`
	Source      string  `json:"source,omitempty"`
	Synced      bool    `json:"synced"`
	LocalDate   string  `json:"local_date,omitempty"`
}

// End returns the capture-end instant
func (r ActivityRecord) End() time.Time {
	return EpochToTime(r.Timestamp)
}

// Start returns End minus Duration
func (r ActivityRecord) Start() time.Time {
	return r.End().Add(-time.Duration(r.Duration) * time.Second)
}

// Key returns the dedup identity of the record
func (r ActivityRecord) Key() DedupKey {
	return NewDedupKey(r.Timestamp, r.WindowTitle, r.Source)
}

// DedupKey identifies a record across the local and remote stores.
// Timestamps compare at microsecond resolution.
type DedupKey struct {
	Micros      int64
	WindowTitle string
	Source      string
}

func NewDedupKey(timestamp float64, windowTitle, source string) DedupKey {
	return DedupKey{
		Micros:      int64(math.Round(timestamp * 1e6)),
		WindowTitle: windowTitle,
		Source:      NormalizeSource(source),
	}
}

// NormalizeSource maps an empty source to UnknownSource
func NormalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return UnknownSource
	}
	return source
}

// EpochToTime converts fractional epoch seconds to a UTC time with microsecond precision
func EpochToTime(ts float64) time.Time {
	return time.UnixMicro(int64(math.Round(ts * 1e6))).UTC()
}

// TimeToEpoch converts t to fractional epoch seconds
func TimeToEpoch(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// LocalDateFor derives the day key of an epoch timestamp in loc
func LocalDateFor(ts float64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return EpochToTime(ts).In(loc).Format(LocalDateLayout)
}

// ValidDay reports whether s is a YYYY-MM-DD day key
func ValidDay(s string) bool {
	_, err := time.Parse(LocalDateLayout, s)
	return err == nil && len(s) == len(LocalDateLayout)
}

// CaptureEvent is what the capture loop observes when the focused window changes
type CaptureEvent struct {
	End         time.Time
	WindowTitle string
	Source      string
	Idle        bool
}
