package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"winrec/internal/classify"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/platform"
	"winrec/internal/repository"
	"winrec/internal/types"
)

// IdleCategory is recorded for intervals without user input
const IdleCategory = "idle"

// Classifier maps a window title to a category
type Classifier interface {
	Categorize(title string) string
}

// ActivityTracker polls the focused window and the idle time and journals one
// record each time the observed event changes. It never touches the network.
type ActivityTracker struct {
	journal    repository.JournalRepository
	windowAPI  platform.WindowAPI
	classifier Classifier
	notifier   platform.Notifier
	config     TrackerConfig
	logger     logging.Logger
	now        func() time.Time

	mutex       sync.RWMutex
	started     bool
	lastEvent   types.CaptureEvent
	lastWindow  string
	eventStart  time.Time
	wastedStart time.Time
	wastedAlert bool
	lastAlert   time.Time
	recorded    int
	totals      map[string]int64
}

// NewActivityTracker creates a tracker. notifier may be nil.
func NewActivityTracker(journal repository.JournalRepository, windowAPI platform.WindowAPI, classifier Classifier, notifier platform.Notifier, config TrackerConfig, logger logging.Logger) *ActivityTracker {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if classifier == nil {
		classifier = classify.Default()
	}
	return &ActivityTracker{
		journal:    journal,
		windowAPI:  windowAPI,
		classifier: classifier,
		notifier:   notifier,
		config:     config,
		logger:     logging.With(logger, "component", "tracker"),
		now:        time.Now,
		totals:     make(map[string]int64),
	}
}

// Run polls until ctx is done. A journal write failure stops the loop and is
// returned; the in-progress interval is journaled on a clean stop.
func (t *ActivityTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	t.logger.Info("Capture started", "source", t.config.Source, "poll_interval", t.config.PollInterval.String())
	for {
		if err := t.Poll(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := t.Flush(flushCtx); err != nil {
				return err
			}
			t.logger.Info("Capture stopped", "recorded", t.Recorded())
			return nil
		case <-ticker.C:
		}
	}
}

// observe reads the platform state into an event
func (t *ActivityTracker) observe(now time.Time) types.CaptureEvent {
	title := ""
	info, err := t.windowAPI.GetForegroundWindow()
	if err != nil {
		t.logger.Debug("Failed to read foreground window", "error", err)
	} else {
		title = classify.NormalizeTitle(info.Label())
	}

	idleFor, err := t.windowAPI.GetIdleDuration()
	if err != nil {
		t.logger.Debug("Failed to read idle time", "error", err)
		idleFor = 0
	}

	return types.CaptureEvent{
		End:         now,
		WindowTitle: title,
		Source:      t.config.Source,
		Idle:        idleFor >= t.config.IdleThreshold,
	}
}

func sameEvent(a, b types.CaptureEvent) bool {
	if a.Idle || b.Idle {
		return a.Idle == b.Idle
	}
	return a.WindowTitle == b.WindowTitle
}

func (t *ActivityTracker) categoryOf(event types.CaptureEvent) string {
	if event.Idle {
		return IdleCategory
	}
	return t.classifier.Categorize(event.WindowTitle)
}

// Poll takes one observation. When the event differs from the previous one,
// the finished interval is journaled if it passes the record rules.
func (t *ActivityTracker) Poll(ctx context.Context) error {
	now := t.now()
	event := t.observe(now)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.started || !sameEvent(event, t.lastEvent) {
		if t.started {
			if err := t.finishLocked(ctx, now); err != nil {
				return err
			}
		}
		t.started = true
		t.lastEvent = event
		t.lastWindow = event.WindowTitle
		t.eventStart = now
		t.logger.Debug("Event started", "category", t.categoryOf(event), "window_title", truncate(event.WindowTitle, 120))
	}

	t.checkWastedLocked(t.categoryOf(event), now)
	return nil
}

// Flush journals the in-progress interval if it passes the record rules
func (t *ActivityTracker) Flush(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.started {
		return nil
	}
	now := t.now()
	if err := t.finishLocked(ctx, now); err != nil {
		return err
	}
	t.eventStart = now
	return nil
}

func (t *ActivityTracker) shouldRecord(idle bool, elapsed time.Duration) bool {
	if idle {
		return elapsed < t.config.MaxIdleRecord
	}
	return elapsed > t.config.MinActive
}

func (t *ActivityTracker) finishLocked(ctx context.Context, now time.Time) error {
	elapsed := now.Sub(t.eventStart)
	if !t.shouldRecord(t.lastEvent.Idle, elapsed) {
		return nil
	}

	category := t.categoryOf(t.lastEvent)
	rec := types.ActivityRecord{
		Timestamp:   types.TimeToEpoch(now),
		Duration:    int64(elapsed / time.Second),
		Category:    category,
		WindowTitle: t.lastWindow,
		Source:      t.config.Source,
	}
	if _, err := t.journal.Append(ctx, rec); err != nil {
		logging.LogError(t.logger, err, "RecordInterval", map[string]interface{}{"category": category})
		return fmt.Errorf("journal interval: %w", err)
	}

	t.recorded++
	t.totals[category] += rec.Duration
	t.logger.Info("Interval recorded",
		"start", t.eventStart.Format("15:04:05"),
		"duration", types.FormatSeconds(float64(rec.Duration)),
		"category", category,
		"window_title", truncate(t.lastWindow, 120),
	)
	return nil
}

// checkWastedLocked raises one alert per streak of wasted-time windows
func (t *ActivityTracker) checkWastedLocked(category string, now time.Time) {
	marker := strings.ToLower(t.config.WastedCategory)
	if marker == "" || !strings.Contains(strings.ToLower(category), marker) {
		t.wastedStart = time.Time{}
		t.wastedAlert = false
		return
	}
	if t.wastedStart.IsZero() {
		t.wastedStart = now
		t.wastedAlert = false
	}

	streak := now.Sub(t.wastedStart)
	if t.wastedAlert || streak <= t.config.WastedAlertAfter {
		return
	}
	if !t.lastAlert.IsZero() && now.Sub(t.lastAlert) < t.config.NotifyCooldown {
		return
	}

	t.wastedAlert = true
	t.lastAlert = now
	message := fmt.Sprintf("You have been looking at a '%s' window for %.0f minutes.", category, streak.Minutes())
	if t.notifier == nil {
		t.logger.Warn(message)
		return
	}
	if err := t.notifier.Notify("Wasted Time Warning", message); err != nil {
		t.logger.Warn("Failed to deliver notification", "error", err)
	}
}

// Recorded returns how many intervals this tracker has journaled
func (t *ActivityTracker) Recorded() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.recorded
}

// SessionTotals returns the seconds journaled per category since start, largest first
func (t *ActivityTracker) SessionTotals(limit int) []types.CategoryTotal {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	totals := make([]types.CategoryTotal, 0, len(t.totals))
	for category, seconds := range t.totals {
		totals = append(totals, types.CategoryTotal{Category: category, TotalDuration: float64(seconds)})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalDuration != totals[j].TotalDuration {
			return totals[i].TotalDuration > totals[j].TotalDuration
		}
		return totals[i].Category < totals[j].Category
	})
	if limit > 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
