package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateTarget(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateMappings(); err != nil {
		return err
	}
	if err := c.validateMigration(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if strings.TrimSpace(c.Source.DSN) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/ticketferry/config.toml"
		}
		return fmt.Errorf("source.dsn is required. Edit %s (create with 'ticketferry config init')", defaultPath)
	}
	if strings.TrimSpace(c.Source.AttachmentsDir) == "" {
		return errors.New("source.attachments_dir must be set")
	}
	return nil
}

func (c *Config) validateTarget() error {
	if strings.TrimSpace(c.Target.URL) == "" {
		return errors.New("target.url must be set")
	}
	if !strings.HasPrefix(c.Target.URL, "http://") && !strings.HasPrefix(c.Target.URL, "https://") {
		return fmt.Errorf("target.url must be an http(s) URL, got %q", c.Target.URL)
	}
	if c.Target.AppToken == "" {
		return errors.New("target.app_token must be set")
	}
	if c.Target.UserToken == "" {
		return errors.New("target.user_token must be set")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.Identity.NoReplyEmail != "" && c.Identity.NoReplyAccountID <= 0 {
		return errors.New("identity.noreply_account_id must be positive when identity.noreply_email is set")
	}
	return nil
}

func (c *Config) validateMappings() error {
	for name, table := range map[string]map[string]int64{
		"mappings.departments": c.Mappings.Departments,
		"mappings.statuses":    c.Mappings.Statuses,
		"mappings.staff":       c.Mappings.Staff,
	} {
		for source, target := range table {
			id, err := strconv.ParseInt(source, 10, 64)
			if err != nil || id < 0 {
				return fmt.Errorf("%s: key %q is not a non-negative id", name, source)
			}
			if target < 0 {
				return fmt.Errorf("%s: ids must be non-negative (%s -> %d)", name, source, target)
			}
		}
	}
	return nil
}

func (c *Config) validateMigration() error {
	if c.Migration.FirstTicket < 0 || c.Migration.LastTicket < 0 {
		return errors.New("migration ticket bounds must be non-negative")
	}
	if c.Migration.LastTicket > 0 && c.Migration.FirstTicket > c.Migration.LastTicket {
		return fmt.Errorf("migration.first_ticket %d exceeds migration.last_ticket %d",
			c.Migration.FirstTicket, c.Migration.LastTicket)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
