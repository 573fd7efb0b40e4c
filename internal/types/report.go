package types

import (
	"fmt"
	"time"
)

// ResolvedInterval is one segment of a day's non-overlapping timeline
type ResolvedInterval struct {
	Start    time.Time `json:"start_time"`
	End      time.Time `json:"end_time"`
	Category string    `json:"category"`
	Source   string    `json:"source"`
	Duration float64   `json:"duration"` // seconds, End - Start
	Priority int       `json:"-"`
}

// Seconds returns the length of the interval
func (r ResolvedInterval) Seconds() float64 {
	return r.End.Sub(r.Start).Seconds()
}

// CategoryTotal is one row of a daily summary
type CategoryTotal struct {
	Category      string  `json:"category"`
	TotalDuration float64 `json:"total_duration"`
}

// DayReport is the resolved timeline of one day and its category totals
type DayReport struct {
	Day       string             `json:"day"`
	Origin    string             `json:"origin"` // remote or local
	TotalTime float64            `json:"total_time"`
	Intervals []ResolvedInterval `json:"intervals"`
	Totals    []CategoryTotal    `json:"totals"`
}

// FormatSeconds renders a duration as hh:mm:ss
func FormatSeconds(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
