package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	queries "winrec/internal/database/generated"
	dberrors "winrec/internal/infrastructure/errors"
	"winrec/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

var errNotConnected = errors.New("database not connected")

// SQLiteService implements Service on top of mattn/go-sqlite3.
//
// Lifecycle: NewSQLiteService, Connect, Migrate, then hand DB()/GetQueries()
// to a repository. Close releases the pool.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	queries         *queries.Queries
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{logger: logger}
}

// Open validates config, connects and applies migrations when AutoMigrate is set
func Open(ctx context.Context, config *Config, logger logging.Logger) (*SQLiteService, error) {
	if err := config.Validate(); err != nil {
		return nil, dberrors.NewRepositoryError("Open", err, dberrors.ErrCodeValidation)
	}
	service := NewSQLiteService(logger)
	if err := service.Connect(ctx, config); err != nil {
		return nil, err
	}
	if config.AutoMigrate {
		if err := service.Migrate(ctx); err != nil {
			_ = service.Close()
			return nil, err
		}
	}
	return service, nil
}

// Connect opens the pool and pings the database
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db, s.queries, s.migrationRunner = nil, nil, nil
	}
	s.config = config

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Connect", err, map[string]string{"path": config.Path})
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return dberrors.NewRepositoryErrorWithContext("Connect", err, dberrors.ErrCodeConnection, map[string]string{"path": config.Path})
	}

	s.db = db
	s.queries = queries.New(db)
	s.migrationRunner = NewMigrationRunner(db, config.Migrations, s.logger)

	s.logger.Info("Connected to SQLite database", "path", config.Path, "migrations", string(config.Migrations))
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return dberrors.WrapDatabaseError("Close", err)
	}
	s.db, s.queries, s.migrationRunner = nil, nil, nil
	s.logger.Debug("Closed SQLite database connection")
	return nil
}

// Migrate validates and applies the configured migration set
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil || s.migrationRunner == nil {
		return dberrors.NewRepositoryError("Migrate", errNotConnected, dberrors.ErrCodeConnection)
	}
	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return dberrors.NewRepositoryErrorWithContext("Migrate", err, dberrors.ErrCodeSchema, map[string]string{"phase": "validation"})
	}
	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		code := dberrors.ClassifyError(err)
		if code == dberrors.ErrCodeUnknown {
			code = dberrors.ErrCodeSchema
		}
		return dberrors.NewRepositoryErrorWithContext("Migrate", err, code, map[string]string{"phase": "execution"})
	}
	return nil
}

// Health pings the database and runs a trivial query
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return dberrors.NewRepositoryError("Health", errNotConnected, dberrors.ErrCodeConnection)
	}
	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{"phase": "query"})
	}
	if result != 1 {
		return dberrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}
	return nil
}

// DB returns the underlying database connection for use by repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetQueries returns the queries instance for repository use
func (s *SQLiteService) GetQueries() *queries.Queries {
	return s.queries
}

// GetMigrationVersion returns the current migration version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.migrationRunner == nil {
		return 0, dberrors.NewRepositoryError("GetMigrationVersion", errNotConnected, dberrors.ErrCodeConnection)
	}
	version, err := s.migrationRunner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapDatabaseError("GetMigrationVersion", err)
	}
	return version, nil
}

// GetStats returns database connection pool statistics for monitoring
func (s *SQLiteService) GetStats() sql.DBStats {
	if s.db == nil {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// Optimize updates planner statistics, truncates the WAL and reclaims free pages
func (s *SQLiteService) Optimize(ctx context.Context) error {
	if s.db == nil {
		return dberrors.NewRepositoryError("Optimize", errNotConnected, dberrors.ErrCodeConnection)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Optimize", err, map[string]string{"phase": "analyze"})
	}
	// ignored outside WAL mode
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal_checkpoint failed", "error", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Optimize", err, map[string]string{"phase": "vacuum"})
	}
	s.logger.Info("Database optimization completed", "path", s.config.Path)
	return nil
}

// configureConnectionPool limits the pool: one connection unless WAL lets readers run alongside the writer
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.ForceSingleConnection || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode", "journalMode", config.JournalMode)
	} else {
		maxConns := min(max(config.MaxConnections, 1), 4)
		idleConns := max(min(config.MaxIdleConns, maxConns), 1)
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
		s.logger.Debug("Configured SQLite connection pool", "maxOpenConns", maxConns, "maxIdleConns", idleConns)
	}

	// an in-memory database disappears with its last connection
	if !config.IsInMemory() {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}
}
