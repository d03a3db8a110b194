package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Source.AttachmentsDir, err = expandPath(c.Source.AttachmentsDir); err != nil {
		return fmt.Errorf("source.attachments_dir: %w", err)
	}
	if c.State.Dir, err = expandPath(c.State.Dir); err != nil {
		return fmt.Errorf("state.dir: %w", err)
	}

	c.Target.URL = strings.TrimRight(strings.TrimSpace(c.Target.URL), "/")
	c.Target.AppToken = strings.TrimSpace(c.Target.AppToken)
	c.Target.UserToken = strings.TrimSpace(c.Target.UserToken)
	c.Identity.NoReplyEmail = strings.ToLower(strings.TrimSpace(c.Identity.NoReplyEmail))

	if c.Target.RequestTimeout <= 0 {
		c.Target.RequestTimeout = defaultRequestTimeout
	}
	if c.Source.MaxOpenConns <= 0 {
		c.Source.MaxOpenConns = defaultMaxOpenConns
	}

	if c.Mappings.Departments == nil {
		c.Mappings.Departments = map[string]int64{}
	}
	if c.Mappings.Statuses == nil {
		c.Mappings.Statuses = map[string]int64{}
	}
	if c.Mappings.Staff == nil {
		c.Mappings.Staff = map[string]int64{}
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
