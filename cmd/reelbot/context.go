package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelbot/internal/config"
	"reelbot/internal/queue"
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

// withStore opens the queue for the duration of fn. Writers take the queue
// lock first so they never race a running daemon.
func (c *commandContext) withStore(ctx context.Context, write bool, fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if write {
		lock, err := queue.AcquireLock(cfg.LockPath())
		if err != nil {
			if errors.Is(err, queue.ErrLocked) {
				return fmt.Errorf("queue is in use by a running reelbot daemon; make changes through Slack or stop the daemon first: %w", err)
			}
			return err
		}
		defer lock.Unlock()
	}

	persister, err := queue.OpenPersister(ctx, cfg.Queue.Backend, cfg.Queue.Path)
	if err != nil {
		return err
	}
	store, err := queue.Open(ctx, persister, queue.WithFlushAttempts(cfg.Queue.FlushAttempts))
	if err != nil {
		if closer, ok := persister.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
