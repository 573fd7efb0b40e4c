package server

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"winrec/internal/database"
	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/types"
)

const logsTable = "logs"

// identityTolerance is half a microsecond; identities compare at microsecond resolution
const identityTolerance = 5e-7

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var logColumns = []string{"id", "timestamp", "category", "duration", "window_title", "source"}

// Store is the canonical record store behind the remote service
type Store struct {
	db  *sql.DB
	loc *time.Location

	// writes check identity before inserting and must not interleave
	writeMu sync.Mutex
}

// NewStore creates a store over a database migrated with the canonical set.
// Day keys are computed in loc.
func NewStore(dbService database.Service, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: dbService.DB(), loc: loc}
}

// Location returns the timezone day keys are computed in
func (s *Store) Location() *time.Location {
	return s.loc
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return repoerrors.WrapDatabaseError(op, err)
}

func scanRecord(row sq.RowScanner) (types.RemoteRecord, error) {
	var (
		rec    types.RemoteRecord
		ts     float64
		source sql.NullString
	)
	if err := row.Scan(&rec.ID, &ts, &rec.Category, &rec.Duration, &rec.WindowTitle, &source); err != nil {
		return types.RemoteRecord{}, err
	}
	rec.Timestamp = types.WireTime(ts)
	if source.Valid {
		value := source.String
		rec.Source = &value
	}
	return rec, nil
}

func (s *Store) queryRecords(ctx context.Context, op string, query sq.SelectBuilder) ([]types.RemoteRecord, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, storeError(op, err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	records := make([]types.RemoteRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		records = append(records, rec)
	}
	return records, storeError(op, rows.Err())
}

// findByIdentity returns the stored record with the same timestamp, window
// title and source. An empty source and "unknown" are the same source.
func (s *Store) findByIdentity(ctx context.Context, sub types.LogSubmission) (types.RemoteRecord, bool, error) {
	query := builder.Select(logColumns...).
		From(logsTable).
		Where(sq.Expr("ABS(timestamp - ?) < ?", sub.Timestamp, identityTolerance)).
		Where(sq.Eq{"window_title": sub.WindowTitle}).
		Where(sq.Expr("COALESCE(NULLIF(source, ''), 'unknown') = ?", types.NormalizeSource(sub.Source))).
		OrderBy("id").
		Limit(1)

	records, err := s.queryRecords(ctx, "FindByIdentity", query)
	if err != nil || len(records) == 0 {
		return types.RemoteRecord{}, false, err
	}
	return records[0], true, nil
}

// Insert stores sub unless a record with the same identity exists, in which
// case the existing record is returned and created is false.
func (s *Store) Insert(ctx context.Context, sub types.LogSubmission) (rec types.RemoteRecord, created bool, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if existing, found, err := s.findByIdentity(ctx, sub); err != nil || found {
		return existing, false, err
	}

	var source interface{}
	if strings.TrimSpace(sub.Source) != "" {
		source = sub.Source
	}
	stmt, args, err := builder.Insert(logsTable).
		Columns("timestamp", "category", "duration", "window_title", "source", "day").
		Values(sub.Timestamp, sub.Category, sub.Duration, sub.WindowTitle, source, types.LocalDateFor(sub.Timestamp, s.loc)).
		ToSql()
	if err != nil {
		return types.RemoteRecord{}, false, storeError("Insert", err)
	}
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return types.RemoteRecord{}, false, storeError("Insert", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return types.RemoteRecord{}, false, storeError("Insert", err)
	}

	rec = types.RemoteRecord{
		ID:          id,
		Timestamp:   types.WireTime(sub.Timestamp),
		Category:    sub.Category,
		Duration:    sub.Duration,
		WindowTitle: sub.WindowTitle,
	}
	if src, ok := source.(string); ok {
		rec.Source = &src
	}
	return rec, true, nil
}

// List returns records ordered by id
func (s *Store) List(ctx context.Context, skip, limit int) ([]types.RemoteRecord, error) {
	query := builder.Select(logColumns...).
		From(logsTable).
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(skip))
	return s.queryRecords(ctx, "List", query)
}

// Days returns every day key present, newest first
func (s *Store) Days(ctx context.Context) ([]string, error) {
	stmt, args, err := builder.Select("DISTINCT day").
		From(logsTable).
		OrderBy("day DESC").
		ToSql()
	if err != nil {
		return nil, storeError("Days", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeError("Days", err)
	}
	defer rows.Close()

	days := make([]string, 0)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, storeError("Days", err)
		}
		days = append(days, day)
	}
	return days, storeError("Days", rows.Err())
}

// Summary returns the summed durations per category for day, largest first
func (s *Store) Summary(ctx context.Context, day string) ([]types.CategoryTotal, error) {
	if !types.ValidDay(day) {
		return nil, repoerrors.HandleValidationError("Summary", "day", day, "expected YYYY-MM-DD")
	}
	stmt, args, err := builder.Select("category", "SUM(duration) AS total").
		From(logsTable).
		Where(sq.Eq{"day": day}).
		GroupBy("category").
		OrderBy("total DESC", "category").
		ToSql()
	if err != nil {
		return nil, storeError("Summary", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeError("Summary", err)
	}
	defer rows.Close()

	totals := make([]types.CategoryTotal, 0)
	for rows.Next() {
		var total types.CategoryTotal
		if err := rows.Scan(&total.Category, &total.TotalDuration); err != nil {
			return nil, storeError("Summary", err)
		}
		totals = append(totals, total)
	}
	return totals, storeError("Summary", rows.Err())
}

// Clear deletes every record and returns how many were removed
func (s *Store) Clear(ctx context.Context) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stmt, args, err := builder.Delete(logsTable).ToSql()
	if err != nil {
		return 0, storeError("Clear", err)
	}
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, storeError("Clear", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeError("Clear", err)
	}
	return n, nil
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int64, error) {
	stmt, args, err := builder.Select("COUNT(*)").From(logsTable).ToSql()
	if err != nil {
		return 0, storeError("Count", err)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, storeError("Count", err)
	}
	return n, nil
}
