package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"winrec/internal/infrastructure/logging"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/journal/*.sql migrations/canonical/*.sql
var embedMigrations embed.FS

// MigrationSet names one group of embedded migrations
type MigrationSet string

const (
	// MigrationsJournal is the local activity journal
	MigrationsJournal MigrationSet = "journal"
	// MigrationsCanonical is the remote service's record store
	MigrationsCanonical MigrationSet = "canonical"
)

func (m MigrationSet) dir() (string, error) {
	switch m {
	case MigrationsJournal, MigrationsCanonical:
		return "migrations/" + string(m), nil
	default:
		return "", fmt.Errorf("unknown migration set %q", string(m))
	}
}

// Column is a column added after a table's first release. Adding it is a
// no-op when the table already has it.
type Column struct {
	Table      string
	Name       string
	Definition string
	Index      string // optional index created once the column exists
}

// additiveColumns are reconciled after the goose migrations of each set.
// Databases written by older agents lack them; ALTER TABLE cannot be
// guarded in plain SQL on SQLite so this runs in Go.
var additiveColumns = map[MigrationSet][]Column{
	MigrationsJournal: {
		{Table: "activity_log", Name: "synced", Definition: "INTEGER NOT NULL DEFAULT 0",
			Index: "CREATE INDEX IF NOT EXISTS idx_activity_log_synced ON activity_log(synced)"},
		{Table: "activity_log", Name: "local_date", Definition: "TEXT",
			Index: "CREATE INDEX IF NOT EXISTS idx_activity_log_local_date ON activity_log(local_date)"},
	},
}

// MigrationRunner applies one migration set through a goose provider
type MigrationRunner struct {
	db     *sql.DB
	set    MigrationSet
	logger logging.Logger
}

var _ MigrationManager = (*MigrationRunner)(nil)

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *sql.DB, set MigrationSet, logger logging.Logger) *MigrationRunner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &MigrationRunner{db: db, set: set, logger: logger}
}

func (mr *MigrationRunner) provider() (*goose.Provider, error) {
	if mr.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	dir, err := mr.set.dir()
	if err != nil {
		return nil, err
	}
	fsys, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, mr.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	return p, nil
}

// RunMigrations applies pending migrations and then the additive columns
func (mr *MigrationRunner) RunMigrations(ctx context.Context) error {
	p, err := mr.provider()
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		mr.logger.Debug("Applied migration", "set", string(mr.set), "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}

	added, err := EnsureColumns(ctx, mr.db, additiveColumns[mr.set])
	if err != nil {
		return err
	}
	if len(added) > 0 {
		mr.logger.Info("Added columns to existing tables", "set", string(mr.set), "columns", strings.Join(added, ","))
	}

	if version, err := p.GetDBVersion(ctx); err == nil {
		mr.logger.Info("Database migrated to version", "set", string(mr.set), "version", version)
	}
	return nil
}

// GetCurrentVersion returns the current migration version
func (mr *MigrationRunner) GetCurrentVersion(ctx context.Context) (int64, error) {
	p, err := mr.provider()
	if err != nil {
		return 0, err
	}
	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// ValidateMigrations checks that the embedded set contains migrations
func (mr *MigrationRunner) ValidateMigrations() error {
	p, err := mr.provider()
	if err != nil {
		return err
	}
	sources := p.ListSources()
	if len(sources) == 0 {
		return fmt.Errorf("no migrations found for set %q", string(mr.set))
	}
	mr.logger.Debug("Found embedded migrations", "set", string(mr.set), "count", len(sources))
	return nil
}

// HasColumn reports whether table has a column called name
func HasColumn(ctx context.Context, db *sql.DB, table, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	return count > 0, nil
}

// EnsureColumns adds each missing column and its index. It returns the
// columns it added as table.column.
func EnsureColumns(ctx context.Context, db *sql.DB, columns []Column) ([]string, error) {
	var added []string
	for _, col := range columns {
		present, err := HasColumn(ctx, db, col.Table, col.Name)
		if err != nil {
			return added, err
		}
		if !present {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.Table, col.Name, col.Definition)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return added, fmt.Errorf("failed to add column %s.%s: %w", col.Table, col.Name, err)
			}
			added = append(added, col.Table+"."+col.Name)
		}
		if col.Index != "" {
			if _, err := db.ExecContext(ctx, col.Index); err != nil {
				return added, fmt.Errorf("failed to index %s.%s: %w", col.Table, col.Name, err)
			}
		}
	}
	return added, nil
}
