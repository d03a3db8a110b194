package testsupport

import (
	"path/filepath"
	"testing"

	"ticketferry/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a valid config seeded with a unique temp state
// directory per test. It defaults common fields and applies any provided
// options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Source.DSN = "osticket:osticket@tcp(127.0.0.1:3306)/osticket?parseTime=true"
	cfg.Source.AttachmentsDir = filepath.Join(base, "attachments")
	cfg.Target.URL = "http://127.0.0.1:0/apirest.php"
	cfg.Target.AppToken = "test-app-token"
	cfg.Target.UserToken = "test-user-token"
	cfg.State.Dir = filepath.Join(base, "state")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMappings sets the enumeration tables on the test config.
func WithMappings(m config.Mappings) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Mappings = m
	}
}

// WithTicketRange bounds the migrated ticket ids.
func WithTicketRange(first, last int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Migration.FirstTicket = first
		cfg.Migration.LastTicket = last
	}
}
