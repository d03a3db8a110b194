package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"ticketferry/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Source contains the osTicket database connection and file storage settings.
type Source struct {
	DSN            string `toml:"dsn"`
	AttachmentsDir string `toml:"attachments_dir"`
	MaxOpenConns   int    `toml:"max_open_conns"`
}

// Target contains the GLPI REST API connection settings.
type Target struct {
	URL            string `toml:"url"`
	AppToken       string `toml:"app_token"`
	UserToken      string `toml:"user_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Identity contains the sentinel no-reply account configuration.
type Identity struct {
	NoReplyEmail     string `toml:"noreply_email"`
	NoReplyAccountID int64  `toml:"noreply_account_id"`
}

// Mappings contains the static cross-system enumeration tables. Keys are
// osTicket ids written as TOML strings, values are GLPI ids; validation
// rejects non-numeric keys.
type Mappings struct {
	Departments map[string]int64 `toml:"departments"`
	Statuses    map[string]int64 `toml:"statuses"`
	Staff       map[string]int64 `toml:"staff"`
}

// State contains the run-state database location.
type State struct {
	Dir string `toml:"dir"`
}

// Migration contains batch scoping knobs.
type Migration struct {
	// FirstTicket/LastTicket bound the migrated ticket id range; zero means
	// unbounded on that side. Used to segment very large corpora.
	FirstTicket int64 `toml:"first_ticket"`
	LastTicket  int64 `toml:"last_ticket"`
	DryRun      bool  `toml:"dry_run"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ticketferry.
type Config struct {
	Source    Source    `toml:"source"`
	Target    Target    `toml:"target"`
	Identity  Identity  `toml:"identity"`
	Mappings  Mappings  `toml:"mappings"`
	State     State     `toml:"state"`
	Migration Migration `toml:"migration"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ticketferry/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ticketferry.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the migration run writes to.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.State.Dir, 0o755); err != nil {
		return fmt.Errorf("create state directory %q: %w", c.State.Dir, err)
	}
	return nil
}

// StateDBPath returns the run-state database location.
func (c *Config) StateDBPath() string {
	return filepath.Join(c.State.Dir, "migration.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.State.Dir, "ticketferry.lock")
}

// ExpandPath resolves ~ and relative segments into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
