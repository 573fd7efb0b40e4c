package database

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"default", func(c *Config) {}, ""},
		{"canonical set", func(c *Config) { c.Migrations = MigrationsCanonical }, ""},
		{"empty path", func(c *Config) { c.Path = "" }, "path cannot be empty"},
		{"zero connections", func(c *Config) { c.MaxConnections = 0 }, "maxConnections"},
		{"idle above max", func(c *Config) { c.MaxIdleConns = 10 }, "maxIdleConns"},
		{"unknown migration set", func(c *Config) { c.Migrations = "other" }, "unknown migration set"},
		{"bad journal mode", func(c *Config) { c.JournalMode = "FAST" }, "invalid journalMode"},
		{"lowercase journal mode", func(c *Config) { c.JournalMode = "wal" }, ""},
		{"memory with wal", func(c *Config) { c.Path = ":memory:" }, "cannot be WAL"},
		{"bad sync mode", func(c *Config) { c.SynchronousMode = "SOMETIMES" }, "invalid synchronousMode"},
		{"zero cache", func(c *Config) { c.CacheSize = 0 }, "cacheSize"},
		{"negative busy timeout", func(c *Config) { c.BusyTimeout = -1 }, "busyTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Path = filepath.Join(t.TempDir(), "journal.db")
			tt.modify(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_TestConfigIsValid(t *testing.T) {
	config := TestConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("TestConfig should validate, got %v", err)
	}
	if !config.IsInMemory() || !config.ForceSingleConnection {
		t.Error("TestConfig should be an in-memory single connection database")
	}
}

func TestConfig_GetConnectionString(t *testing.T) {
	config := DefaultConfig()
	config.Path = "data/what?&.db"

	dsn := config.GetConnectionString()
	path, rawQuery, found := strings.Cut(dsn, "?")
	if !found {
		t.Fatalf("Expected query string in %q", dsn)
	}
	if path != "data/what%3F%26.db" {
		t.Errorf("Expected escaped path, got %q", path)
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("Failed to parse query: %v", err)
	}
	expected := map[string]string{
		"_foreign_keys": "on",
		"_journal_mode": "WAL",
		"_synchronous":  "FULL",
		"_cache_size":   "-2000",
		"_busy_timeout": "30000",
		"_txlock":       "immediate",
	}
	for key, want := range expected {
		if got := values.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestConfig_LoadFromEnvironment(t *testing.T) {
	t.Setenv("WINREC_DB_PATH", "/tmp/other.db")
	t.Setenv("WINREC_DB_JOURNAL_MODE", "delete")
	t.Setenv("WINREC_DB_BUSY_TIMEOUT", "500")
	t.Setenv("WINREC_DB_CACHE_SIZE", "not-a-number")
	t.Setenv("WINREC_DB_FORCE_SINGLE_CONNECTION", "yes")

	config := DefaultConfig()
	if err := config.LoadFromEnvironment("WINREC_DB"); err != nil {
		t.Fatalf("LoadFromEnvironment failed: %v", err)
	}

	if config.Path != "/tmp/other.db" {
		t.Errorf("Path = %q", config.Path)
	}
	if config.JournalMode != "DELETE" {
		t.Errorf("JournalMode = %q", config.JournalMode)
	}
	if config.BusyTimeout != 500 {
		t.Errorf("BusyTimeout = %d", config.BusyTimeout)
	}
	if config.CacheSize != 2000 {
		t.Errorf("CacheSize should keep its default on malformed input, got %d", config.CacheSize)
	}
	if !config.ForceSingleConnection {
		t.Error("ForceSingleConnection should be set")
	}
}

func TestConfig_Clone(t *testing.T) {
	original := CanonicalConfig("server.db")
	clone := original.Clone()
	clone.Path = "changed.db"

	if original.Path != "server.db" || clone.Migrations != MigrationsCanonical {
		t.Errorf("Clone should copy fields without aliasing: %+v %+v", original, clone)
	}
}
