package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"winrec/internal/classify"
	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/platform"
	"winrec/internal/repository"
)

var _ repository.JournalRepository = (*MockJournal)(nil)

// scriptedWindow is a WindowAPI whose state the test sets directly
type scriptedWindow struct {
	mu    sync.Mutex
	title string
	idle  time.Duration
	err   error
}

func (s *scriptedWindow) set(title string, idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title, s.idle = title, idle
}

func (s *scriptedWindow) GetForegroundWindow() (*platform.WindowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &platform.WindowInfo{Title: s.title}, nil
}

func (s *scriptedWindow) GetIdleDuration() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle, nil
}

type countingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (c *countingNotifier) Notify(title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	return nil
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

type trackerFixture struct {
	tracker  *ActivityTracker
	journal  *MockJournal
	window   *scriptedWindow
	notifier *countingNotifier
	clock    time.Time
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	fx := &trackerFixture{
		journal:  NewMockJournal(),
		window:   &scriptedWindow{},
		notifier: &countingNotifier{},
		clock:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	config := DefaultTrackerConfig()
	config.Source = "laptop"
	fx.tracker = NewActivityTracker(fx.journal, fx.window, classify.Default(), fx.notifier, config, logging.NewLogger(io.Discard, logging.LevelError))
	fx.tracker.now = func() time.Time { return fx.clock }
	return fx
}

// step advances the clock by d, sets the window state and polls once
func (fx *trackerFixture) step(t *testing.T, d time.Duration, title string, idle time.Duration) {
	t.Helper()
	fx.clock = fx.clock.Add(d)
	fx.window.set(title, idle)
	if err := fx.tracker.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() unexpected error = %v", err)
	}
}

func TestActivityTracker_RecordsActiveInterval(t *testing.T) {
	fx := newTrackerFixture(t)

	fx.step(t, 0, "Pull Requests, GitHub - Chrome", 0)
	fx.step(t, 30*time.Second, "Pull Requests, GitHub - Chrome", 0)
	fx.step(t, 30*time.Second, "Inbox - Thunderbird", 0)

	records := fx.journal.Records()
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Category != "programming" {
		t.Errorf("Category = %q, want programming", rec.Category)
	}
	if rec.WindowTitle != "pull requests github - chrome" {
		t.Errorf("WindowTitle = %q, want normalized title", rec.WindowTitle)
	}
	if rec.Duration != 60 {
		t.Errorf("Duration = %d, want 60", rec.Duration)
	}
	if rec.Source != "laptop" {
		t.Errorf("Source = %q, want laptop", rec.Source)
	}
	if !rec.End().Equal(fx.clock) {
		t.Errorf("Timestamp should be the end of the interval, got %v", rec.End())
	}
}

func TestActivityTracker_SkipsShortActiveInterval(t *testing.T) {
	fx := newTrackerFixture(t)

	fx.step(t, 0, "editor", 0)
	fx.step(t, 2*time.Second, "terminal", 0)

	if n := len(fx.journal.Records()); n != 0 {
		t.Errorf("Expected intervals of 2s or less to be skipped, got %d records", n)
	}
}

func TestActivityTracker_IdleIntervals(t *testing.T) {
	fx := newTrackerFixture(t)

	fx.step(t, 0, "editor", 0)
	fx.step(t, time.Minute, "editor", 3*time.Minute) // goes idle: editor recorded
	fx.step(t, 10*time.Second, "editor", 0)          // short idle: recorded
	fx.step(t, time.Minute, "editor", 4*time.Minute) // editor recorded
	fx.step(t, 30*time.Second, "editor", 0)          // long idle: dropped

	records := fx.journal.Records()
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d: %+v", len(records), records)
	}
	if records[1].Category != IdleCategory || records[1].Duration != 10 {
		t.Errorf("Expected a 10s idle record, got %+v", records[1])
	}
	if records[1].WindowTitle != "editor" {
		t.Errorf("Idle record should keep the window it started on, got %q", records[1].WindowTitle)
	}
	for _, rec := range []int{0, 2} {
		if records[rec].Category == IdleCategory {
			t.Errorf("Record %d should be active, got idle", rec)
		}
	}
}

func TestActivityTracker_WindowErrorsAreNotFatal(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.window.err = errors.New("no display")

	fx.step(t, 0, "", 0)
	fx.step(t, 10*time.Second, "", 0)

	if fx.tracker.Recorded() != 0 {
		t.Errorf("Expected no records, got %d", fx.tracker.Recorded())
	}
}

func TestActivityTracker_StorageFailureIsReturned(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.journal.SetFailWrites(true)

	fx.step(t, 0, "editor", 0)
	fx.clock = fx.clock.Add(time.Minute)
	fx.window.set("terminal", 0)

	err := fx.tracker.Poll(context.Background())
	if err == nil {
		t.Fatal("Expected a storage error")
	}
	if !repoerrors.IsStorage(err) {
		t.Errorf("Expected a storage error, got %v", err)
	}
}

func TestActivityTracker_WastedTimeAlertOncePerStreak(t *testing.T) {
	fx := newTrackerFixture(t)

	fx.step(t, 0, "youtube - google chrome", 0)
	for i := 0; i < 7; i++ {
		fx.step(t, time.Minute, "youtube - google chrome", 0)
	}
	if fx.notifier.count() != 1 {
		t.Fatalf("Expected 1 alert after 7 minutes, got %d", fx.notifier.count())
	}
	if !strings.Contains(fx.notifier.messages[0], "wasted time") {
		t.Errorf("Unexpected alert message %q", fx.notifier.messages[0])
	}

	fx.step(t, time.Minute, "youtube - google chrome", 0)
	if fx.notifier.count() != 1 {
		t.Errorf("Expected no repeat alert within a streak, got %d", fx.notifier.count())
	}

	fx.step(t, time.Minute, "editor - spyder", 0)
	fx.step(t, time.Second, "whatsapp", 0)
	for i := 0; i < 7; i++ {
		fx.step(t, time.Minute, "whatsapp", 0)
	}
	if fx.notifier.count() != 2 {
		t.Errorf("Expected a second alert for a new streak, got %d", fx.notifier.count())
	}
}

func TestActivityTracker_FlushRecordsCurrentInterval(t *testing.T) {
	fx := newTrackerFixture(t)

	fx.step(t, 0, "editor", 0)
	fx.clock = fx.clock.Add(5 * time.Minute)
	if err := fx.tracker.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() unexpected error = %v", err)
	}

	if fx.tracker.Recorded() != 1 {
		t.Fatalf("Expected the open interval to be recorded, got %d", fx.tracker.Recorded())
	}
	totals := fx.tracker.SessionTotals(5)
	if len(totals) != 1 || totals[0].TotalDuration != 300 {
		t.Errorf("Unexpected session totals %+v", totals)
	}
}

func TestActivityTracker_RunStopsOnCancel(t *testing.T) {
	journal := NewMockJournal()
	window := &scriptedWindow{title: "editor"}
	config := DefaultTrackerConfig()
	config.PollInterval = 5 * time.Millisecond
	tracker := NewActivityTracker(journal, window, nil, nil, config, logging.NewLogger(io.Discard, logging.LevelError))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := tracker.Run(ctx); err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}
	if journal.AppendCallCount() != 0 {
		t.Errorf("Expected no records for a sub-second session, got %d", journal.AppendCallCount())
	}
}

func TestActivityTracker_SessionTotalsLimit(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.step(t, 0, "spyder", 0)
	fx.step(t, time.Minute, "thunderbird", 0)
	fx.step(t, 2*time.Minute, "word", 0)
	fx.step(t, 3*time.Minute, "chrome", 0)

	totals := fx.tracker.SessionTotals(2)
	if len(totals) != 2 {
		t.Fatalf("Expected 2 totals, got %d", len(totals))
	}
	if totals[0].Category != "documents" || totals[1].Category != "mail" {
		t.Errorf("Unexpected order %+v", totals)
	}
}

func TestTrackerConfig_Validate(t *testing.T) {
	if err := DefaultTrackerConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	bad := DefaultTrackerConfig()
	bad.PollInterval = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected an error for a zero poll interval")
	}
}
