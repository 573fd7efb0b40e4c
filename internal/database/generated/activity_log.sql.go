// Queries over the activity_log table. SQL mirrors queries/activity_log.sql.

package queries

import (
	"context"
	"database/sql"
)

const countByState = `-- name: CountByState :one
SELECT
    CAST(COALESCE(SUM(CASE WHEN synced = 1 THEN 1 ELSE 0 END), 0) AS INTEGER) AS synced,
    CAST(COALESCE(SUM(CASE WHEN synced = 0 THEN 1 ELSE 0 END), 0) AS INTEGER) AS unsynced
FROM activity_log
`

type CountByStateRow struct {
	Synced   int64 `json:"synced"`
	Unsynced int64 `json:"unsynced"`
}

func (q *Queries) CountByState(ctx context.Context) (CountByStateRow, error) {
	row := q.db.QueryRowContext(ctx, countByState)
	var i CountByStateRow
	err := row.Scan(&i.Synced, &i.Unsynced)
	return i, err
}

const deleteUnsynced = `-- name: DeleteUnsynced :execrows
DELETE FROM activity_log WHERE synced = 0
`

func (q *Queries) DeleteUnsynced(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUnsynced)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertActivity = `-- name: InsertActivity :one
INSERT INTO activity_log (timestamp, category, duration, window_title, source, synced, local_date)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type InsertActivityParams struct {
	Timestamp   float64        `json:"timestamp"`
	Category    string         `json:"category"`
	Duration    int64          `json:"duration"`
	WindowTitle string         `json:"window_title"`
	Source      string         `json:"source"`
	Synced      int64          `json:"synced"`
	LocalDate   sql.NullString `json:"local_date"`
}

func (q *Queries) InsertActivity(ctx context.Context, arg InsertActivityParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertActivity,
		arg.Timestamp,
		arg.Category,
		arg.Duration,
		arg.WindowTitle,
		arg.Source,
		arg.Synced,
		arg.LocalDate,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listActivityByLocalDate = `-- name: ListActivityByLocalDate :many
SELECT id, timestamp, category, duration, window_title, source, synced, local_date FROM activity_log
WHERE local_date = ?
ORDER BY timestamp ASC, id ASC
`

func (q *Queries) ListActivityByLocalDate(ctx context.Context, localDate sql.NullString) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx, listActivityByLocalDate, localDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ActivityLog
	for rows.Next() {
		var i ActivityLog
		if err := rows.Scan(
			&i.ID,
			&i.Timestamp,
			&i.Category,
			&i.Duration,
			&i.WindowTitle,
			&i.Source,
			&i.Synced,
			&i.LocalDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type ListActivityInRangeParams struct {
	FromTimestamp float64 `json:"from_timestamp"`
	ToTimestamp   float64 `json:"to_timestamp"`
}

const listDedupKeys = `-- name: ListDedupKeys :many
SELECT timestamp, window_title, source FROM activity_log
`

type ListDedupKeysRow struct {
	Timestamp   float64 `json:"timestamp"`
	WindowTitle string  `json:"window_title"`
	Source      string  `json:"source"`
}

func (q *Queries) ListDedupKeys(ctx context.Context) ([]ListDedupKeysRow, error) {
	rows, err := q.db.QueryContext(ctx, listDedupKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListDedupKeysRow
	for rows.Next() {
		var i ListDedupKeysRow
		if err := rows.Scan(&i.Timestamp, &i.WindowTitle, &i.Source); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listDistinctDays = `-- name: ListDistinctDays :many
SELECT DISTINCT local_date FROM activity_log
WHERE local_date IS NOT NULL
ORDER BY local_date DESC
`

func (q *Queries) ListDistinctDays(ctx context.Context) ([]sql.NullString, error) {
	rows, err := q.db.QueryContext(ctx, listDistinctDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []sql.NullString
	for rows.Next() {
		var local_date sql.NullString
		if err := rows.Scan(&local_date); err != nil {
			return nil, err
		}
		items = append(items, local_date)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMissingLocalDate = `-- name: ListMissingLocalDate :many
SELECT id, timestamp FROM activity_log
WHERE local_date IS NULL
ORDER BY id ASC
`

type ListMissingLocalDateRow struct {
	ID        int64   `json:"id"`
	Timestamp float64 `json:"timestamp"`
}

func (q *Queries) ListMissingLocalDate(ctx context.Context) ([]ListMissingLocalDateRow, error) {
	rows, err := q.db.QueryContext(ctx, listMissingLocalDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListMissingLocalDateRow
	for rows.Next() {
		var i ListMissingLocalDateRow
		if err := rows.Scan(&i.ID, &i.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUnsynced = `-- name: ListUnsynced :many
SELECT id, timestamp, category, duration, window_title, source, synced, local_date FROM activity_log
WHERE synced = 0
ORDER BY id ASC
`

func (q *Queries) ListUnsynced(ctx context.Context) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx, listUnsynced)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ActivityLog
	for rows.Next() {
		var i ActivityLog
		if err := rows.Scan(
			&i.ID,
			&i.Timestamp,
			&i.Category,
			&i.Duration,
			&i.WindowTitle,
			&i.Source,
			&i.Synced,
			&i.LocalDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markSynced = `-- name: MarkSynced :execrows
UPDATE activity_log SET synced = 1 WHERE id = ? AND synced = 0
`

func (q *Queries) MarkSynced(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSynced, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setLocalDate = `-- name: SetLocalDate :exec
UPDATE activity_log SET local_date = ? WHERE id = ? AND local_date IS NULL
`

type SetLocalDateParams struct {
	LocalDate sql.NullString `json:"local_date"`
	ID        int64          `json:"id"`
}

func (q *Queries) SetLocalDate(ctx context.Context, arg SetLocalDateParams) error {
	_, err := q.db.ExecContext(ctx, setLocalDate, arg.LocalDate, arg.ID)
	return err
}

const insertActivityWithoutLocalDate = `-- name: InsertActivityWithoutLocalDate :execlastid
INSERT INTO activity_log (timestamp, category, duration, window_title, source, synced)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertActivityWithoutLocalDateParams struct {
	Timestamp   float64 `json:"timestamp"`
	Category    string  `json:"category"`
	Duration    int64   `json:"duration"`
	WindowTitle string  `json:"window_title"`
	Source      string  `json:"source"`
	Synced      int64   `json:"synced"`
}

func (q *Queries) InsertActivityWithoutLocalDate(ctx context.Context, arg InsertActivityWithoutLocalDateParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertActivityWithoutLocalDate,
		arg.Timestamp,
		arg.Category,
		arg.Duration,
		arg.WindowTitle,
		arg.Source,
		arg.Synced,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const listUnsyncedWithoutLocalDate = `-- name: ListUnsyncedWithoutLocalDate :many
SELECT id, timestamp, category, duration, window_title, source, synced, NULL AS local_date FROM activity_log
WHERE synced = 0
ORDER BY id ASC
`

func (q *Queries) ListUnsyncedWithoutLocalDate(ctx context.Context) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx, listUnsyncedWithoutLocalDate)
	if err != nil {
		return nil, err
	}
	return scanActivityLogs(rows)
}

const listActivityInRangeWithoutLocalDate = `-- name: ListActivityInRangeWithoutLocalDate :many
SELECT id, timestamp, category, duration, window_title, source, synced, NULL AS local_date FROM activity_log
WHERE timestamp >= ? AND timestamp < ?
ORDER BY timestamp ASC, id ASC
`

func (q *Queries) ListActivityInRangeWithoutLocalDate(ctx context.Context, arg ListActivityInRangeParams) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx, listActivityInRangeWithoutLocalDate, arg.FromTimestamp, arg.ToTimestamp)
	if err != nil {
		return nil, err
	}
	return scanActivityLogs(rows)
}

// scanActivityLogs reads full activity_log rows, closing rows when done
func scanActivityLogs(rows *sql.Rows) ([]ActivityLog, error) {
	defer rows.Close()
	var items []ActivityLog
	for rows.Next() {
		var i ActivityLog
		if err := rows.Scan(
			&i.ID,
			&i.Timestamp,
			&i.Category,
			&i.Duration,
			&i.WindowTitle,
			&i.Source,
			&i.Synced,
			&i.LocalDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
