package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"ticketferry/internal/config"
	"ticketferry/internal/glpi"
	"ticketferry/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
}

func (c *commandContext) newTargetClient(cfg *config.Config) (*glpi.Client, error) {
	return glpi.New(cfg.Target.URL, cfg.Target.AppToken, cfg.Target.UserToken,
		glpi.WithTimeout(time.Duration(cfg.Target.RequestTimeout)*time.Second))
}
