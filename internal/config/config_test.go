package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[source]
dsn = "user:pass@tcp(localhost:3306)/osticket?parseTime=true"

[target]
url = "https://glpi.example.org/apirest.php/"
app_token = "app"
user_token = "user"
`

func TestLoadMinimalConfig(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Target.URL != "https://glpi.example.org/apirest.php" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Target.URL)
	}
	if cfg.Identity.NoReplyAccountID != defaultNoReplyAccountID {
		t.Fatalf("expected default noreply account, got %d", cfg.Identity.NoReplyAccountID)
	}
	if cfg.Target.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("expected default request timeout, got %d", cfg.Target.RequestTimeout)
	}
}

func TestLoadParsesMappingTables(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[mappings.departments]
1 = 5
7 = 2

[mappings.staff]
3 = 9
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Mappings.Departments["1"]; got != 5 {
		t.Fatalf("departments[1] = %d, want 5", got)
	}
	if got := cfg.Mappings.Staff["3"]; got != 9 {
		t.Fatalf("staff[3] = %d, want 9", got)
	}
	if cfg.Mappings.Statuses == nil {
		t.Fatal("statuses table must never be nil")
	}
}

func TestLoadRejectsMissingDSN(t *testing.T) {
	path := writeConfig(t, `
[target]
url = "https://glpi.example.org/apirest.php"
app_token = "app"
user_token = "user"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "source.dsn") {
		t.Fatalf("expected source.dsn error, got %v", err)
	}
}

func TestLoadRejectsBadTargetURL(t *testing.T) {
	path := writeConfig(t, `
[source]
dsn = "user:pass@tcp(localhost:3306)/osticket"

[target]
url = "glpi.example.org"
app_token = "app"
user_token = "user"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "target.url") {
		t.Fatalf("expected target.url error, got %v", err)
	}
}

func TestLoadRejectsInvertedTicketBounds(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[migration]
first_ticket = 500
last_ticket = 100
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "first_ticket") {
		t.Fatalf("expected migration bounds error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[logging]
format = "xml"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(body), "[mappings.departments]") {
		t.Fatal("sample config missing mappings section")
	}
}

func TestStateDBPathDerivedFromStateDir(t *testing.T) {
	cfg := Default()
	cfg.State.Dir = "/tmp/ticketferry-test"
	if got := cfg.StateDBPath(); got != "/tmp/ticketferry-test/migration.db" {
		t.Fatalf("unexpected state db path %q", got)
	}
	if got := cfg.LockPath(); got != "/tmp/ticketferry-test/ticketferry.lock" {
		t.Fatalf("unexpected lock path %q", got)
	}
}
