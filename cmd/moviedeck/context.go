package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/moviedeck/internal/config"
	"github.com/mmcdole/moviedeck/internal/logging"
	"github.com/mmcdole/moviedeck/internal/store"
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

func (c *commandContext) configDir() string {
	if c.configFlag != nil {
		if dir := strings.TrimSpace(*c.configFlag); dir != "" {
			return dir
		}
	}
	return config.DefaultConfigDir()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(c.configDir())
	})
	return c.config, c.configErr
}

// logger returns the file logger, falling back to a null logger when the
// log file cannot be opened.
func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, io.Closer) {
	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return logging.NullLogger(), nopCloser{}
	}
	return logger, closer
}

func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Cache.Dir)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
