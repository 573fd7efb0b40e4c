package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dberrors "winrec/internal/infrastructure/errors"
)

func TestSQLiteService_ConnectFile(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "nested", "journal.db")

	config := DefaultConfig()
	config.Path = dbPath
	ctx := context.Background()

	service, err := Open(ctx, config, quietLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer service.Close()

	if err := service.Health(ctx); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("Database file was not created: %v", err)
	}
	if stats := service.GetStats(); stats.MaxOpenConnections != 4 {
		t.Errorf("Expected WAL pool of 4 connections, got %d", stats.MaxOpenConnections)
	}
}

func TestSQLiteService_MigrateJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	service, err := Open(ctx, TestConfig(), quietLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer service.Close()

	for _, column := range []string{"timestamp", "window_title", "source", "synced", "local_date"} {
		ok, err := HasColumn(ctx, service.DB(), "activity_log", column)
		if err != nil {
			t.Fatalf("HasColumn(%s) failed: %v", column, err)
		}
		if !ok {
			t.Errorf("Expected column %s to exist", column)
		}
	}

	version, err := service.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("GetMigrationVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected journal version 2, got %d", version)
	}

	// second run is a no-op
	if err := service.Migrate(ctx); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}
}

func TestSQLiteService_MigrateCanonical(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	config := TestConfig()
	config.Migrations = MigrationsCanonical
	service, err := Open(ctx, config, quietLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer service.Close()

	ok, err := HasColumn(ctx, service.DB(), "logs", "day")
	if err != nil || !ok {
		t.Fatalf("Expected logs.day to exist (err=%v)", err)
	}
	ok, _ = HasColumn(ctx, service.DB(), "activity_log", "synced")
	if ok {
		t.Error("Canonical store must not contain the journal table")
	}
}

func TestSQLiteService_UpgradesLegacyJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	config := DefaultConfig()
	config.Path = dbPath
	config.AutoMigrate = false

	// a table written before synced and local_date existed
	legacy, err := Open(ctx, config, quietLogger())
	if err != nil {
		t.Fatalf("Failed to open legacy database: %v", err)
	}
	_, err = legacy.DB().ExecContext(ctx, `CREATE TABLE activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp REAL NOT NULL,
		category TEXT NOT NULL,
		duration INTEGER NOT NULL,
		window_title TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'unknown')`)
	if err != nil {
		t.Fatalf("Failed to create legacy table: %v", err)
	}
	if _, err := legacy.DB().ExecContext(ctx, `INSERT INTO activity_log (timestamp, category, duration, window_title) VALUES (1709287800, 'mail', 60, 'inbox')`); err != nil {
		t.Fatalf("Failed to insert legacy row: %v", err)
	}
	legacy.Close()

	config.AutoMigrate = true
	service, err := Open(ctx, config, quietLogger())
	if err != nil {
		t.Fatalf("Failed to migrate legacy database: %v", err)
	}
	defer service.Close()

	var synced int
	var localDate *string
	if err := service.DB().QueryRowContext(ctx, "SELECT synced, local_date FROM activity_log").Scan(&synced, &localDate); err != nil {
		t.Fatalf("Failed to read upgraded row: %v", err)
	}
	if synced != 0 || localDate != nil {
		t.Errorf("Expected legacy row to be unsynced with NULL local_date, got synced=%d local_date=%v", synced, localDate)
	}
}

func TestSQLiteService_NotConnected(t *testing.T) {
	t.Parallel()
	service := NewSQLiteService(quietLogger())
	ctx := context.Background()

	if err := service.Health(ctx); !dberrors.HasCode(err, dberrors.ErrCodeConnection) {
		t.Errorf("Expected connection error from Health, got %v", err)
	}
	if err := service.Migrate(ctx); !dberrors.HasCode(err, dberrors.ErrCodeConnection) {
		t.Errorf("Expected connection error from Migrate, got %v", err)
	}
	if err := service.Optimize(ctx); err == nil {
		t.Error("Expected error from Optimize")
	}
	if err := service.Close(); err != nil {
		t.Errorf("Close on unconnected service should be a no-op, got %v", err)
	}
}

func TestSQLiteService_Optimize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service, err := Open(ctx, TestConfig(), quietLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer service.Close()

	if err := service.Optimize(ctx); err != nil {
		t.Errorf("Optimize failed: %v", err)
	}
}
