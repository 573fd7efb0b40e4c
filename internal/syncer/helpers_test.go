package syncer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"winrec/internal/database"
	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/repository"
	"winrec/internal/types"
)

func quietLogger() logging.Logger {
	return logging.NewLogger(io.Discard, logging.LevelError)
}

func transientErr() error {
	return repoerrors.NewRemoteError("PostLog", errors.New("connection refused"), repoerrors.ErrCodeConnection, nil)
}

func statusErr(status int) error {
	return repoerrors.HTTPStatusError("PostLog", status, "")
}

// fakeRemote is an in-memory remote store with scriptable failures
type fakeRemote struct {
	mu         sync.Mutex
	credential bool
	pingErrs   []error // returned in order, then nil
	pingCalls  int
	postErr    func(call int, sub types.LogSubmission) error
	postCalls  int
	stored     []types.RemoteRecord
	listErr    error
	listLimit  int
	listCalls  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{credential: true}
}

func (f *fakeRemote) HasCredential() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credential
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	if len(f.pingErrs) == 0 {
		return nil
	}
	err := f.pingErrs[0]
	f.pingErrs = f.pingErrs[1:]
	return err
}

func (f *fakeRemote) PostLog(ctx context.Context, sub types.LogSubmission) (types.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCalls++
	if f.postErr != nil {
		if err := f.postErr(f.postCalls, sub); err != nil {
			return types.RemoteRecord{}, err
		}
	}
	source := sub.Source
	rec := types.RemoteRecord{
		ID:          int64(len(f.stored) + 1),
		Timestamp:   types.WireTime(sub.Timestamp),
		Category:    sub.Category,
		Duration:    sub.Duration,
		WindowTitle: sub.WindowTitle,
		Source:      &source,
	}
	f.stored = append(f.stored, rec)
	return rec, nil
}

func (f *fakeRemote) ListLogs(ctx context.Context, skip, limit int) ([]types.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]types.RemoteRecord(nil), f.stored...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRemote) storedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type journalFixture struct {
	journal *repository.SQLiteJournal
	db      *database.SQLiteService
}

func newJournal(t *testing.T) journalFixture {
	t.Helper()
	ctx := context.Background()

	dbService, err := database.Open(ctx, database.TestConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { dbService.Close() })

	journal, err := repository.NewSQLiteJournal(ctx, dbService, time.UTC, quietLogger())
	require.NoError(t, err)
	return journalFixture{journal: journal, db: dbService}
}

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func appendRecords(t *testing.T, journal repository.JournalRepository, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := journal.Append(context.Background(), types.ActivityRecord{
			Timestamp:   types.TimeToEpoch(base.Add(time.Duration(i) * time.Minute)),
			Duration:    60,
			Category:    "programming",
			WindowTitle: "editor",
			Source:      "laptop",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func unsyncedCount(t *testing.T, journal repository.JournalRepository) int64 {
	t.Helper()
	_, unsynced, err := journal.CountByState(context.Background())
	require.NoError(t, err)
	return unsynced
}
