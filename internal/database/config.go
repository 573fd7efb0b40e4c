package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// parseBoolEnv reads an environment variable and parses it as a boolean.
// The second return value reports whether the variable held a recognised value.
func parseBoolEnv(key string) (bool, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return false, false
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}
	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the SQLite connection options for one database file
type Config struct {
	Path                  string        `json:"path" yaml:"path"`
	MaxConnections        int           `json:"maxConnections" yaml:"maxConnections"`
	MaxIdleConns          int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime"`
	ForceSingleConnection bool          `json:"forceSingleConnection" yaml:"forceSingleConnection"`

	// Migrations names the embedded migration set applied by Migrate
	Migrations  MigrationSet `json:"migrations" yaml:"migrations"`
	AutoMigrate bool         `json:"autoMigrate" yaml:"autoMigrate"`

	JournalMode     string `json:"journalMode" yaml:"journalMode"`
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode"`
	CacheSize       int    `json:"cacheSize" yaml:"cacheSize"`     // KB
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout"` // ms
	ForeignKeys     bool   `json:"foreignKeys" yaml:"foreignKeys"`
}

// DefaultConfig returns the configuration of the local activity journal
func DefaultConfig() *Config {
	return &Config{
		Path:            "winrec.db",
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,

		Migrations:  MigrationsJournal,
		AutoMigrate: true,

		JournalMode:     "WAL",
		SynchronousMode: "FULL", // appends must survive a power cut
		CacheSize:       2000,
		BusyTimeout:     30000,
		ForeignKeys:     true,
	}
}

// CanonicalConfig returns the configuration of the remote service's store
func CanonicalConfig(path string) *Config {
	config := DefaultConfig()
	config.Path = path
	config.Migrations = MigrationsCanonical
	config.SynchronousMode = "NORMAL"
	return config
}

// TestConfig returns an in-memory configuration for tests
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSize = 1000
	config.BusyTimeout = 1000
	// every connection to :memory: is a separate database
	config.ForceSingleConnection = true
	return config
}

// LoadFromEnvironment overrides fields from <prefix>_PATH, <prefix>_JOURNAL_MODE and friends.
// Malformed values are ignored.
func (c *Config) LoadFromEnvironment(prefix string) error {
	env := func(name string) string { return strings.TrimSpace(os.Getenv(prefix + "_" + name)) }

	if path := env("PATH"); path != "" {
		c.Path = path
	}
	if v := env("MAX_CONNECTIONS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.MaxConnections = val
		}
	}
	if v := env("MAX_IDLE_CONNECTIONS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			c.MaxIdleConns = val
		}
	}
	if v := env("CONN_MAX_LIFETIME"); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			c.ConnMaxLifetime = val
		}
	}
	if v := env("JOURNAL_MODE"); v != "" {
		c.JournalMode = strings.ToUpper(v)
	}
	if v := env("SYNCHRONOUS_MODE"); v != "" {
		c.SynchronousMode = strings.ToUpper(v)
	}
	if v := env("CACHE_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.CacheSize = val
		}
	}
	if v := env("BUSY_TIMEOUT"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			c.BusyTimeout = val
		}
	}
	if v, ok := parseBoolEnv(prefix + "_FORCE_SINGLE_CONNECTION"); ok {
		c.ForceSingleConnection = v
	}
	if v, ok := parseBoolEnv(prefix + "_AUTO_MIGRATE"); ok {
		c.AutoMigrate = v
	}
	return nil
}

var (
	validJournalModes = []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	validSyncModes    = []string{"OFF", "NORMAL", "FULL", "EXTRA"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// Validate checks the configuration and creates the parent directory of a file database
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if !c.IsInMemory() {
		if dir := filepath.Dir(c.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns must be between 0 and %d, got %d", c.MaxConnections, c.MaxIdleConns)
	}
	if c.ConnMaxLifetime < 0 || c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connection lifetimes cannot be negative")
	}
	if _, err := c.Migrations.dir(); err != nil {
		return err
	}
	if !oneOf(c.JournalMode, validJournalModes) {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}
	if !oneOf(c.SynchronousMode, validSyncModes) {
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}
	return nil
}

// GetConnectionString builds the go-sqlite3 DSN with pragmas as query parameters
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// negative cache size is interpreted as KB
	values.Set("_cache_size", strconv.Itoa(-c.CacheSize))
	values.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))
	values.Set("_txlock", "immediate")

	path := strings.NewReplacer("?", "%3F", "&", "%26").Replace(c.Path)
	return path + "?" + values.Encode()
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}
