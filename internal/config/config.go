// Package config loads the agent and service configuration.
package config

import (
	"time"

	"winrec/internal/classify"
)

// Config is the root configuration
type Config struct {
	// Source identifies this capture agent in every record. Defaults to the host name.
	Source   string `yaml:"source"   env:"WINREC_SOURCE"`
	Timezone string `yaml:"timezone" env:"WINREC_TIMEZONE" env-default:"America/New_York"`

	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Remote   RemoteConfig   `yaml:"remote"`
	Sync     SyncConfig     `yaml:"sync"`
	Capture  CaptureConfig  `yaml:"capture"`
	Report   ReportConfig   `yaml:"report"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Server   ServerConfig   `yaml:"server"`

	// Categories are evaluated in order; the first matching pattern wins.
	// Empty means the built-in table.
	Categories []classify.Rule `yaml:"categories"`
	// Priorities ranks categories for overlap resolution, highest first
	Priorities []string `yaml:"priorities" env:"WINREC_PRIORITIES" env-default:"programming,documents,mail,wasted time,not categorized,idle"`

	location *time.Location
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" env:"WINREC_LOG_LEVEL" env-default:"info"`
}

// DatabaseConfig locates the local journal. Pool and pragma knobs are read
// from WINREC_DB_* by database.Config.LoadFromEnvironment.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"WINREC_DB_PATH" env-default:"winrec.db"`
}

// RemoteConfig points at the canonical remote service
type RemoteConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"WINDOW_RECORDER_API_URL" env-default:"http://127.0.0.1:8000"`
	APIKey         string        `yaml:"api_key"         env:"WINREC_API_KEY"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"WINREC_REMOTE_REQUEST_TIMEOUT" env-default:"5s"`
	PullTimeout    time.Duration `yaml:"pull_timeout"    env:"WINREC_REMOTE_PULL_TIMEOUT"    env-default:"30s"`
	PageLimit      int           `yaml:"page_limit"      env:"WINREC_REMOTE_PAGE_LIMIT"      env-default:"20000"`
}

// SyncConfig tunes the background sync scheduler
type SyncConfig struct {
	Interval      time.Duration `yaml:"interval"       env:"WINREC_SYNC_INTERVAL"       env-default:"5m"`
	ProbeAttempts int           `yaml:"probe_attempts" env:"WINREC_SYNC_PROBE_ATTEMPTS" env-default:"3"`
	ProbeDelay    time.Duration `yaml:"probe_delay"    env:"WINREC_SYNC_PROBE_DELAY"    env-default:"2s"`
	PushTimeout   time.Duration `yaml:"push_timeout"   env:"WINREC_SYNC_PUSH_TIMEOUT"   env-default:"5s"`
	// PushRate caps submissions per second; 0 is unlimited
	PushRate float64 `yaml:"push_rate" env:"WINREC_SYNC_PUSH_RATE" env-default:"10"`
}

// CaptureConfig holds the capture loop's timing rules
type CaptureConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"      env:"WINREC_CAPTURE_POLL_INTERVAL"   env-default:"500ms"`
	IdleThreshold    time.Duration `yaml:"idle_threshold"     env:"WINREC_CAPTURE_IDLE_THRESHOLD"  env-default:"3m"`
	MinActive        time.Duration `yaml:"min_active"         env:"WINREC_CAPTURE_MIN_ACTIVE"      env-default:"2s"`
	MaxIdleRecord    time.Duration `yaml:"max_idle_record"    env:"WINREC_CAPTURE_MAX_IDLE_RECORD" env-default:"18s"`
	WastedCategory   string        `yaml:"wasted_category"    env:"WINREC_CAPTURE_WASTED_CATEGORY" env-default:"wasted"`
	WastedAlertAfter time.Duration `yaml:"wasted_alert_after" env:"WINREC_CAPTURE_WASTED_ALERT"    env-default:"6m"`
	NotifyCooldown   time.Duration `yaml:"notify_cooldown"    env:"WINREC_CAPTURE_NOTIFY_COOLDOWN" env-default:"60s"`
}

// ReportConfig controls how reports read records
type ReportConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env:"WINREC_REPORT_CACHE_TTL" env-default:"5m"`
	// Fallback is remote_first or local_only
	Fallback string `yaml:"fallback" env:"WINREC_REPORT_FALLBACK" env-default:"remote_first"`
}

// MetricsConfig exposes Prometheus metrics while tracking. Empty address disables it.
type MetricsConfig struct {
	Address string `yaml:"address" env:"WINREC_METRICS_ADDRESS"`
}

// ServerConfig configures `winrec serve`
type ServerConfig struct {
	Address          string `yaml:"address"            env:"WINREC_SERVER_ADDRESS"       env-default:":8000"`
	DatabasePath     string `yaml:"database_path"      env:"WINREC_SERVER_DB_PATH"       env-default:"winrec-server.db"`
	APIKey           string `yaml:"api_key"            env:"WINREC_SERVER_API_KEY"`
	Timezone         string `yaml:"timezone"           env:"WINREC_SERVER_TIMEZONE"      env-default:"UTC"`
	RequireAuthReads bool   `yaml:"require_auth_reads" env:"WINREC_SERVER_REQUIRE_AUTH_READS" env-default:"false"`
	DefaultLimit     int    `yaml:"default_limit"      env:"WINREC_SERVER_DEFAULT_LIMIT" env-default:"100"`
	MaxLimit         int    `yaml:"max_limit"          env:"WINREC_SERVER_MAX_LIMIT"     env-default:"20000"`
}

// Location returns the configured timezone. Valid after Validate.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Rules returns the configured category rules, or the built-in ones
func (c *Config) Rules() []classify.Rule {
	if len(c.Categories) == 0 {
		return classify.DefaultRules()
	}
	return c.Categories
}

const masked = "********"

// Masked returns a copy with credentials hidden, for display
func (c Config) Masked() Config {
	if c.Remote.APIKey != "" {
		c.Remote.APIKey = masked
	}
	if c.Server.APIKey != "" {
		c.Server.APIKey = masked
	}
	return c
}
