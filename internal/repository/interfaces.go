package repository

import (
	"context"
	"time"

	"winrec/internal/types"
)

// JournalRepository is the local, append-only activity journal.
// A failed write is a storage error and must not be swallowed by callers.
type JournalRepository interface {
	// Append stores rec and returns its id. local_date is derived from the
	// record's timestamp in the journal's timezone.
	Append(ctx context.Context, rec types.ActivityRecord) (int64, error)
	QueryByDay(ctx context.Context, localDate string) ([]types.ActivityRecord, error)
	QueryUnsynced(ctx context.Context) ([]types.ActivityRecord, error)
	// MarkSynced flips synced false to true. Already synced ids are ignored.
	MarkSynced(ctx context.Context, ids ...int64) error
	// DistinctDays returns every local_date present, newest first
	DistinctDays(ctx context.Context) ([]string, error)
	DedupKeys(ctx context.Context) (map[types.DedupKey]struct{}, error)
	// InsertPulled inserts the records whose identity is not yet present,
	// marked synced, in a single transaction. It returns how many it inserted.
	InsertPulled(ctx context.Context, recs []types.ActivityRecord) (int, error)
	// BackfillLocalDates sets local_date on rows that have none. Rows that
	// already have one are never recomputed.
	BackfillLocalDates(ctx context.Context, loc *time.Location) (int, error)
	CountByState(ctx context.Context) (synced, unsynced int64, err error)
	DeleteUnsynced(ctx context.Context) (int64, error)
	// Revision increases on every committed write
	Revision() uint64
}
