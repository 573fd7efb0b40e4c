package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"winrec/internal/infrastructure/errors"
	"winrec/internal/types"
)

// MockJournal implements repository.JournalRepository in memory for testing
type MockJournal struct {
	mu              sync.RWMutex
	records         []types.ActivityRecord
	appendCallCount int
	shouldFailWrite bool
	revision        uint64
}

// NewMockJournal creates a new mock journal for testing
func NewMockJournal() *MockJournal {
	return &MockJournal{}
}

// SetFailWrites makes every write fail with a storage error
func (m *MockJournal) SetFailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailWrite = fail
}

// AppendCallCount returns how many times Append was called
func (m *MockJournal) AppendCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.appendCallCount
}

// Records returns a copy of everything appended
func (m *MockJournal) Records() []types.ActivityRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ActivityRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *MockJournal) Append(ctx context.Context, rec types.ActivityRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCallCount++
	if m.shouldFailWrite {
		return 0, errors.NewRepositoryError("Append", fmt.Errorf("mock disk failure"), errors.ErrCodeDiskSpace)
	}
	rec.ID = int64(len(m.records) + 1)
	rec.Source = types.NormalizeSource(rec.Source)
	rec.LocalDate = types.LocalDateFor(rec.Timestamp, time.UTC)
	m.records = append(m.records, rec)
	m.revision++
	return rec.ID, nil
}

func (m *MockJournal) QueryByDay(ctx context.Context, localDate string) ([]types.ActivityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.ActivityRecord
	for _, rec := range m.records {
		if rec.LocalDate == localDate {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MockJournal) QueryUnsynced(ctx context.Context) ([]types.ActivityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.ActivityRecord
	for _, rec := range m.records {
		if !rec.Synced {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MockJournal) MarkSynced(ctx context.Context, ids ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if id > 0 && int(id) <= len(m.records) {
			m.records[id-1].Synced = true
		}
	}
	m.revision++
	return nil
}

func (m *MockJournal) DistinctDays(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *MockJournal) DedupKeys(ctx context.Context) (map[types.DedupKey]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make(map[types.DedupKey]struct{}, len(m.records))
	for _, rec := range m.records {
		keys[rec.Key()] = struct{}{}
	}
	return keys, nil
}

func (m *MockJournal) InsertPulled(ctx context.Context, recs []types.ActivityRecord) (int, error) {
	return 0, nil
}

func (m *MockJournal) BackfillLocalDates(ctx context.Context, loc *time.Location) (int, error) {
	return 0, nil
}

func (m *MockJournal) CountByState(ctx context.Context) (synced, unsynced int64, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.Synced {
			synced++
		} else {
			unsynced++
		}
	}
	return synced, unsynced, nil
}

func (m *MockJournal) DeleteUnsynced(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *MockJournal) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}
