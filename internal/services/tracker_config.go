package services

import (
	"fmt"
	"time"
)

// TrackerConfig holds the capture loop's timing rules
type TrackerConfig struct {
	Source        string        // capture agent id written into every record
	PollInterval  time.Duration // time between two observations
	IdleThreshold time.Duration // input idle time at which the user counts as away
	MinActive     time.Duration // active intervals are recorded only when longer
	MaxIdleRecord time.Duration // idle intervals are recorded only when shorter

	WastedCategory   string        // categories containing this text start a streak
	WastedAlertAfter time.Duration // streak length that raises an alert
	NotifyCooldown   time.Duration // minimum gap between two alerts
}

// DefaultTrackerConfig returns the capture rules of a fresh install
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		PollInterval:     500 * time.Millisecond,
		IdleThreshold:    3 * time.Minute,
		MinActive:        2 * time.Second,
		MaxIdleRecord:    18 * time.Second,
		WastedCategory:   "wasted",
		WastedAlertAfter: 6 * time.Minute,
		NotifyCooldown:   60 * time.Second,
	}
}

// Validate checks the timing rules
func (c TrackerConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.IdleThreshold <= 0 {
		return fmt.Errorf("idle threshold must be positive, got %v", c.IdleThreshold)
	}
	if c.MinActive < 0 || c.MaxIdleRecord < 0 {
		return fmt.Errorf("record thresholds must not be negative")
	}
	if c.WastedAlertAfter < 0 || c.NotifyCooldown < 0 {
		return fmt.Errorf("alert timings must not be negative")
	}
	return nil
}
