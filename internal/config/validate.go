package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"winrec/internal/classify"
	"winrec/internal/journal"
)

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	if !oneOf(strings.ToLower(c.Log.Level), logLevels) {
		return fmt.Errorf("log.level must be one of %v (got %q)", logLevels, c.Log.Level)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if err := c.Remote.validate(); err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.Capture.validate(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if c.Report.CacheTTL < 0 {
		return fmt.Errorf("report.cache_ttl must be >= 0 (got %v)", c.Report.CacheTTL)
	}
	if _, err := journal.ParsePolicy(c.Report.Fallback); err != nil {
		return fmt.Errorf("report.fallback: %w", err)
	}
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	for i, rule := range c.Categories {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("categories[%d]: empty pattern", i)
		}
	}
	if _, err := classify.New(c.Rules()); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	if len(c.Priorities) == 0 {
		return fmt.Errorf("priorities must not be empty")
	}
	return nil
}

func (r RemoteConfig) validate() error {
	u, err := url.Parse(r.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL (got %q)", r.BaseURL)
	}
	if r.RequestTimeout <= 0 || r.PullTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if r.PageLimit <= 0 {
		return fmt.Errorf("page_limit must be > 0 (got %d)", r.PageLimit)
	}
	return nil
}

func (s SyncConfig) validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %v)", s.Interval)
	}
	if s.ProbeAttempts < 1 {
		return fmt.Errorf("probe_attempts must be >= 1 (got %d)", s.ProbeAttempts)
	}
	if s.ProbeDelay < 0 || s.PushTimeout <= 0 {
		return fmt.Errorf("probe_delay must be >= 0 and push_timeout > 0")
	}
	if s.PushRate < 0 {
		return fmt.Errorf("push_rate must be >= 0 (got %v)", s.PushRate)
	}
	return nil
}

func (c CaptureConfig) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be > 0 (got %v)", c.PollInterval)
	}
	if c.IdleThreshold <= 0 {
		return fmt.Errorf("idle_threshold must be > 0 (got %v)", c.IdleThreshold)
	}
	if c.MinActive < 0 || c.MaxIdleRecord < 0 || c.WastedAlertAfter < 0 || c.NotifyCooldown < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	return nil
}

func (s ServerConfig) validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", s.Timezone, err)
	}
	if s.DefaultLimit <= 0 || s.MaxLimit <= 0 {
		return fmt.Errorf("limits must be > 0")
	}
	if s.DefaultLimit > s.MaxLimit {
		return fmt.Errorf("default_limit %d exceeds max_limit %d", s.DefaultLimit, s.MaxLimit)
	}
	return nil
}

// ValidateServe checks the settings only the canonical service needs.
// Agents may leave server.api_key empty; the service may not.
func (c *Config) ValidateServe() error {
	if strings.TrimSpace(c.Server.APIKey) == "" {
		return fmt.Errorf("server: api_key is required to serve (set WINREC_SERVER_API_KEY)")
	}
	return nil
}

// ServerLocation returns the timezone the service keys days in
func (c *Config) ServerLocation() (*time.Location, error) {
	return time.LoadLocation(c.Server.Timezone)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
