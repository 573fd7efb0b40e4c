package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	queries "winrec/internal/database/generated"
	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/types"
)

func validateRecord(op string, rec types.ActivityRecord) error {
	switch {
	case math.IsNaN(rec.Timestamp) || math.IsInf(rec.Timestamp, 0) || rec.Timestamp <= 0:
		return repoerrors.HandleValidationError(op, "timestamp", fmt.Sprintf("%v", rec.Timestamp), "must be a positive epoch time")
	case rec.Duration < 0:
		return repoerrors.HandleValidationError(op, "duration", strconv.FormatInt(rec.Duration, 10), "must not be negative")
	case strings.TrimSpace(rec.Category) == "":
		return repoerrors.HandleValidationError(op, "category", rec.Category, "must not be empty")
	}
	return nil
}

func (r *SQLiteJournal) insertParams(rec types.ActivityRecord, synced bool) queries.InsertActivityParams {
	return queries.InsertActivityParams{
		Timestamp:   rec.Timestamp,
		Category:    rec.Category,
		Duration:    rec.Duration,
		WindowTitle: rec.WindowTitle,
		Source:      types.NormalizeSource(rec.Source),
		Synced:      boolToInt(synced),
		LocalDate:   sql.NullString{String: types.LocalDateFor(rec.Timestamp, r.loc), Valid: true},
	}
}

func (r *SQLiteJournal) insert(ctx context.Context, q *queries.Queries, params queries.InsertActivityParams) (int64, error) {
	if r.hasLocalDate {
		return q.InsertActivity(ctx, params)
	}
	// journals that predate local_date
	return q.InsertActivityWithoutLocalDate(ctx, queries.InsertActivityWithoutLocalDateParams{
		Timestamp:   params.Timestamp,
		Category:    params.Category,
		Duration:    params.Duration,
		WindowTitle: params.WindowTitle,
		Source:      params.Source,
		Synced:      params.Synced,
	})
}

// Append stores one record. rec.Synced is honoured so a record already
// accepted by the remote can be journaled as synced.
func (r *SQLiteJournal) Append(ctx context.Context, rec types.ActivityRecord) (int64, error) {
	start := time.Now()
	if err := validateRecord("Append", rec); err != nil {
		logging.LogError(r.logger, err, "Append", nil)
		return 0, err
	}

	params := r.insertParams(rec, rec.Synced)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var id int64
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		id, err = r.insert(ctx, r.queries, params)
		if err != nil {
			return r.fail("Append", err, map[string]string{
				"window_title": params.WindowTitle,
				"category":     params.Category,
			})
		}
		return nil
	}, "Append")
	if err != nil {
		return 0, err
	}

	r.bump()
	logging.LogOperation(r.logger, "Append", time.Since(start), map[string]interface{}{
		"id":         id,
		"category":   params.Category,
		"local_date": params.LocalDate.String,
		"synced":     rec.Synced,
	})
	return id, nil
}

// MarkSynced flips each id to synced in one transaction
func (r *SQLiteJournal) MarkSynced(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var changed int64
	err := r.withTransaction(ctx, "MarkSynced", func(q *queries.Queries) error {
		changed = 0
		for _, id := range ids {
			n, err := q.MarkSynced(ctx, id)
			if err != nil {
				return r.fail("MarkSynced", err, map[string]string{"id": strconv.FormatInt(id, 10)})
			}
			changed += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	if changed > 0 {
		r.bump()
	}
	logging.LogOperation(r.logger, "MarkSynced", time.Since(start), map[string]interface{}{
		"requested": len(ids),
		"changed":   changed,
	})
	return nil
}

// InsertPulled merges remote records into the journal. Identities already
// present, locally or earlier in recs, are skipped; nothing is updated.
func (r *SQLiteJournal) InsertPulled(ctx context.Context, recs []types.ActivityRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	start := time.Now()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var inserted, invalid int
	err := r.withTransaction(ctx, "InsertPulled", func(q *queries.Queries) error {
		inserted, invalid = 0, 0

		rows, err := q.ListDedupKeys(ctx)
		if err != nil {
			return r.fail("InsertPulled", err, map[string]string{"phase": "dedup_keys"})
		}
		seen := make(map[types.DedupKey]struct{}, len(rows)+len(recs))
		for _, row := range rows {
			seen[types.NewDedupKey(row.Timestamp, row.WindowTitle, row.Source)] = struct{}{}
		}

		for _, rec := range recs {
			if validateRecord("InsertPulled", rec) != nil {
				invalid++
				continue
			}
			key := rec.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			if _, err := r.insert(ctx, q, r.insertParams(rec, true)); err != nil {
				return r.fail("InsertPulled", err, map[string]string{
					"window_title": rec.WindowTitle,
					"timestamp":    strconv.FormatFloat(rec.Timestamp, 'f', -1, 64),
				})
			}
			seen[key] = struct{}{}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		r.bump()
	}
	if invalid > 0 {
		r.logger.Warn("Skipped invalid pulled records", "count", invalid)
	}
	logging.LogOperation(r.logger, "InsertPulled", time.Since(start), map[string]interface{}{
		"received": len(recs),
		"inserted": inserted,
	})
	return inserted, nil
}

// BackfillLocalDates fills local_date for rows written before the column
// existed. loc overrides the journal timezone when not nil.
func (r *SQLiteJournal) BackfillLocalDates(ctx context.Context, loc *time.Location) (int, error) {
	if !r.hasLocalDate {
		return 0, nil
	}
	if loc == nil {
		loc = r.loc
	}
	start := time.Now()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var updated int
	err := r.withTransaction(ctx, "BackfillLocalDates", func(q *queries.Queries) error {
		updated = 0
		rows, err := q.ListMissingLocalDate(ctx)
		if err != nil {
			return r.fail("BackfillLocalDates", err, map[string]string{"phase": "list"})
		}
		for _, row := range rows {
			err := q.SetLocalDate(ctx, queries.SetLocalDateParams{
				LocalDate: sql.NullString{String: types.LocalDateFor(row.Timestamp, loc), Valid: true},
				ID:        row.ID,
			})
			if err != nil {
				return r.fail("BackfillLocalDates", err, map[string]string{"id": strconv.FormatInt(row.ID, 10)})
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		r.bump()
		r.logger.Info("Backfilled local_date", "rows", updated, "timezone", loc.String())
	}
	logging.LogOperation(r.logger, "BackfillLocalDates", time.Since(start), map[string]interface{}{"rows": updated})
	return updated, nil
}

// DeleteUnsynced removes every record that never reached the remote
func (r *SQLiteJournal) DeleteUnsynced(ctx context.Context) (int64, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var deleted int64
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		deleted, err = r.queries.DeleteUnsynced(ctx)
		if err != nil {
			return r.fail("DeleteUnsynced", err, nil)
		}
		return nil
	}, "DeleteUnsynced")
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		r.bump()
	}
	r.logger.Info("Deleted unsynced records", "count", deleted)
	return deleted, nil
}
