package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"winrec/internal/config"
)

// offlineConfig writes a config whose remote refuses connections
func offlineConfig(t *testing.T) string {
	t.Helper()
	t.Setenv(config.PathEnv, "")
	closed := httptest.NewServer(nil)
	baseURL := closed.URL
	closed.Close()

	dir := t.TempDir()
	content := fmt.Sprintf(`
source: "cli-test"
timezone: "UTC"
database:
  path: %q
remote:
  base_url: %q
  api_key: "super-secret-key"
sync:
  probe_attempts: 1
  probe_delay: "1ms"
`, filepath.Join(dir, "journal.db"), baseURL)
	path := filepath.Join(dir, "winrec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigShowMasksSecrets(t *testing.T) {
	path := offlineConfig(t)

	out, err := execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret-key") {
		t.Errorf("config show leaked the API key:\n%s", out)
	}
	if !strings.Contains(out, "source: cli-test") {
		t.Errorf("expected the configured source in output:\n%s", out)
	}
	if !strings.Contains(out, "pattern: spyder") {
		t.Errorf("expected the built-in rules in output:\n%s", out)
	}
}

func TestRecordOfflineThenInspectAndReport(t *testing.T) {
	path := offlineConfig(t)

	out, err := execute(t, "record", "--config", path,
		"--title", "Pull Requests, GitHub", "--duration", "90", "--at", "2024-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.Contains(out, "programming") || !strings.Contains(out, "local only") {
		t.Errorf("unexpected record output %q", out)
	}

	out, err = execute(t, "inspect", "--config", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "1 unsynced records") || !strings.Contains(out, "pull requests github") {
		t.Errorf("unexpected inspect output:\n%s", out)
	}

	out, err = execute(t, "days", "--config", path)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if strings.TrimSpace(out) != "2024-03-01" {
		t.Errorf("days = %q, want 2024-03-01", out)
	}

	out, err = execute(t, "report", "2024-03-01", "--config", path)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "local records") || !strings.Contains(out, "00:01:30") {
		t.Errorf("unexpected report output:\n%s", out)
	}

	out, err = execute(t, "sync", "--config", path)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, "unreachable") {
		t.Errorf("unexpected sync output %q", out)
	}
}

func TestPurgeUnsyncedNeedsConfirmation(t *testing.T) {
	path := offlineConfig(t)
	if _, err := execute(t, "record", "--config", path, "--title", "inbox", "--duration", "10"); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, err := execute(t, "purge-unsynced", "--config", path)
	if err != nil {
		t.Fatalf("purge-unsynced: %v", err)
	}
	if !strings.Contains(out, "Aborted.") {
		t.Errorf("expected the purge to be aborted without confirmation:\n%s", out)
	}

	out, err = execute(t, "purge-unsynced", "--config", path, "--yes")
	if err != nil {
		t.Fatalf("purge-unsynced --yes: %v", err)
	}
	if !strings.Contains(out, "Deleted 1 unsynced records.") {
		t.Errorf("unexpected purge output:\n%s", out)
	}
	assumeYes = false
}

func TestReportRejectsBadDay(t *testing.T) {
	path := offlineConfig(t)
	if _, err := execute(t, "report", "01/03/2024", "--config", path); err == nil {
		t.Fatal("expected an error for a malformed day")
	}
}
