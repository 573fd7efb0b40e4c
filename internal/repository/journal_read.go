package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	queries "winrec/internal/database/generated"
	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/types"
)

// QueryByDay returns the records of one local_date ordered by timestamp
func (r *SQLiteJournal) QueryByDay(ctx context.Context, localDate string) ([]types.ActivityRecord, error) {
	start := time.Now()
	if !types.ValidDay(localDate) {
		return nil, repoerrors.HandleValidationError("QueryByDay", "local_date", localDate, "expected YYYY-MM-DD")
	}

	var rows []queries.ActivityLog
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		if r.hasLocalDate {
			rows, err = r.queries.ListActivityByLocalDate(ctx, sql.NullString{String: localDate, Valid: true})
		} else {
			rows, err = r.queryDayByTimestamp(ctx, localDate)
		}
		if err != nil {
			return r.fail("QueryByDay", err, map[string]string{"local_date": localDate})
		}
		return nil
	}, "QueryByDay")
	if err != nil {
		return nil, err
	}

	logging.LogOperation(r.logger, "QueryByDay", time.Since(start), map[string]interface{}{
		"local_date": localDate,
		"count":      len(rows),
	})
	return r.records(rows), nil
}

// queryDayByTimestamp selects the day's records from its bounds in the journal timezone
func (r *SQLiteJournal) queryDayByTimestamp(ctx context.Context, localDate string) ([]queries.ActivityLog, error) {
	day, err := time.ParseInLocation(types.LocalDateLayout, localDate, r.loc)
	if err != nil {
		return nil, err
	}
	return r.queries.ListActivityInRangeWithoutLocalDate(ctx, queries.ListActivityInRangeParams{
		FromTimestamp: types.TimeToEpoch(day),
		ToTimestamp:   types.TimeToEpoch(day.AddDate(0, 0, 1)),
	})
}

// QueryUnsynced returns records not yet accepted by the remote, oldest first
func (r *SQLiteJournal) QueryUnsynced(ctx context.Context) ([]types.ActivityRecord, error) {
	var rows []queries.ActivityLog
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		if r.hasLocalDate {
			rows, err = r.queries.ListUnsynced(ctx)
		} else {
			rows, err = r.queries.ListUnsyncedWithoutLocalDate(ctx)
		}
		if err != nil {
			return r.fail("QueryUnsynced", err, nil)
		}
		return nil
	}, "QueryUnsynced")
	if err != nil {
		return nil, err
	}
	return r.records(rows), nil
}

// records converts rows, deriving local_date for journals without the column
func (r *SQLiteJournal) records(rows []queries.ActivityLog) []types.ActivityRecord {
	out := toRecords(rows)
	if r.hasLocalDate {
		return out
	}
	for i := range out {
		out[i].LocalDate = types.LocalDateFor(out[i].Timestamp, r.loc)
	}
	return out
}

// DistinctDays returns every local_date present, newest first
func (r *SQLiteJournal) DistinctDays(ctx context.Context) ([]string, error) {
	if !r.hasLocalDate {
		return r.distinctDaysByTimestamp(ctx)
	}

	var rows []sql.NullString
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		rows, err = r.queries.ListDistinctDays(ctx)
		if err != nil {
			return r.fail("DistinctDays", err, nil)
		}
		return nil
	}, "DistinctDays")
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(rows))
	for _, d := range rows {
		if d.Valid {
			days = append(days, d.String)
		}
	}
	return days, nil
}

func (r *SQLiteJournal) distinctDaysByTimestamp(ctx context.Context) ([]string, error) {
	keys, err := r.queries.ListDedupKeys(ctx)
	if err != nil {
		return nil, r.fail("DistinctDays", err, nil)
	}
	set := make(map[string]struct{})
	for _, k := range keys {
		set[types.LocalDateFor(k.Timestamp, r.loc)] = struct{}{}
	}
	days := make([]string, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// DedupKeys returns the identity of every stored record
func (r *SQLiteJournal) DedupKeys(ctx context.Context) (map[types.DedupKey]struct{}, error) {
	var rows []queries.ListDedupKeysRow
	err := repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		rows, err = r.queries.ListDedupKeys(ctx)
		if err != nil {
			return r.fail("DedupKeys", err, nil)
		}
		return nil
	}, "DedupKeys")
	if err != nil {
		return nil, err
	}

	keys := make(map[types.DedupKey]struct{}, len(rows))
	for _, row := range rows {
		keys[types.NewDedupKey(row.Timestamp, row.WindowTitle, row.Source)] = struct{}{}
	}
	return keys, nil
}

// CountByState returns how many records are synced and unsynced
func (r *SQLiteJournal) CountByState(ctx context.Context) (synced, unsynced int64, err error) {
	var row queries.CountByStateRow
	err = repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		var err error
		row, err = r.queries.CountByState(ctx)
		if err != nil {
			return r.fail("CountByState", err, nil)
		}
		return nil
	}, "CountByState")
	if err != nil {
		return 0, 0, err
	}
	return row.Synced, row.Unsynced, nil
}
