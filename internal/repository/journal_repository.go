package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"winrec/internal/database"
	queries "winrec/internal/database/generated"
	repoerrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"
	"winrec/internal/types"
)

// SQLiteJournal implements JournalRepository on the journal migration set.
//
// Writers are serialized by writeMu so an append can never interleave with
// MarkSynced or a pull batch. Readers do not take the lock; SQLite gives
// them a consistent snapshot.
type SQLiteJournal struct {
	db          *sql.DB
	queries     *queries.Queries
	dbService   database.Service
	retryConfig *repoerrors.RetryConfig
	loc         *time.Location
	logger      logging.Logger

	writeMu      sync.Mutex
	revision     atomic.Uint64
	hasLocalDate bool
}

var _ JournalRepository = (*SQLiteJournal)(nil)

// NewSQLiteJournal creates a journal over a connected and migrated service.
// loc is the timezone local_date is derived in.
func NewSQLiteJournal(ctx context.Context, dbService database.Service, loc *time.Location, logger logging.Logger) (*SQLiteJournal, error) {
	return NewSQLiteJournalWithConfig(ctx, dbService, loc, repoerrors.DefaultRetryConfig(), logger)
}

// NewSQLiteJournalWithConfig is NewSQLiteJournal with a custom retry policy
func NewSQLiteJournalWithConfig(ctx context.Context, dbService database.Service, loc *time.Location, retryConfig *repoerrors.RetryConfig, logger logging.Logger) (*SQLiteJournal, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	if retryConfig.Logger == nil {
		withLogger := *retryConfig
		withLogger.Logger = repoerrors.NewLoggerBridge(logger)
		retryConfig = &withLogger
	}
	if dbService == nil || dbService.DB() == nil {
		return nil, repoerrors.NewRepositoryError("NewSQLiteJournal", errors.New("database not connected"), repoerrors.ErrCodeConnection)
	}

	hasLocalDate, err := database.HasColumn(ctx, dbService.DB(), "activity_log", "local_date")
	if err != nil {
		return nil, repoerrors.WrapDatabaseError("NewSQLiteJournal", err)
	}
	if !hasLocalDate {
		logger.Warn("Journal has no local_date column, day queries will scan by timestamp")
	}

	return &SQLiteJournal{
		db:           dbService.DB(),
		queries:      dbService.GetQueries(),
		dbService:    dbService,
		retryConfig:  retryConfig,
		loc:          loc,
		logger:       logger,
		hasLocalDate: hasLocalDate,
	}, nil
}

// Location returns the timezone local_date is derived in
func (r *SQLiteJournal) Location() *time.Location {
	return r.loc
}

// Revision increases on every committed write
func (r *SQLiteJournal) Revision() uint64 {
	return r.revision.Load()
}

func (r *SQLiteJournal) bump() {
	r.revision.Add(1)
}

// fail classifies err and logs it: debug when the retry loop will try again,
// error otherwise.
func (r *SQLiteJournal) fail(op string, err error, context map[string]string) *repoerrors.RepositoryError {
	repoErr := repoerrors.NewRepositoryErrorWithContext(op, err, repoerrors.ClassifyError(err), context)
	if repoErr.IsRetryable() {
		r.logger.Debug("Retryable error in "+op, "error", err)
	} else {
		fields := make(map[string]interface{}, len(context))
		for k, v := range context {
			fields[k] = v
		}
		logging.LogError(r.logger, repoErr, op, fields)
	}
	return repoErr
}

// withTransaction runs fn inside one transaction, retrying the whole
// transaction on busy or locked databases.
func (r *SQLiteJournal) withTransaction(ctx context.Context, op string, fn func(q *queries.Queries) error) error {
	return repoerrors.WithRetryContext(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.fail(op+".Begin", err, nil)
		}

		committed := false
		defer func() {
			if !committed {
				if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
					r.logger.Debug("Failed to rollback transaction", "operation", op, "rollback_error", rollbackErr)
				}
			}
		}()

		if err := fn(r.queries.WithTx(tx)); err != nil {
			var repoErr *repoerrors.RepositoryError
			if errors.As(err, &repoErr) {
				return err
			}
			return r.fail(op, err, nil)
		}

		if err := tx.Commit(); err != nil {
			return r.fail(op+".Commit", err, nil)
		}
		committed = true
		return nil
	}, op)
}

func toRecord(row queries.ActivityLog) types.ActivityRecord {
	return types.ActivityRecord{
		ID:          row.ID,
		Timestamp:   row.Timestamp,
		Duration:    row.Duration,
		Category:    row.Category,
		WindowTitle: row.WindowTitle,
		Source:      types.NormalizeSource(row.Source),
		Synced:      row.Synced != 0,
		LocalDate:   row.LocalDate.String,
	}
}

func toRecords(rows []queries.ActivityLog) []types.ActivityRecord {
	out := make([]types.ActivityRecord, len(rows))
	for i, row := range rows {
		out[i] = toRecord(row)
	}
	return out
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
