// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package confignode

import (
	"fmt"
	"log/slog"
)

// DefaultMaxDepth is the deepest nesting Parse accepts unless WithMaxDepth says otherwise.
// Stock save files rarely nest more than ten levels.
const DefaultMaxDepth = 256

type config struct {
	filename string
	maxDepth int
	logger   *slog.Logger
}

type Option func(c *config) error

// WithFilename sets the name reported in errors and debug logs.
func WithFilename(name string) Option {
	return func(c *config) error {
		c.filename = name
		return nil
	}
}

// WithMaxDepth limits how deeply nodes may nest below the root.
// Zero removes the limit.
func WithMaxDepth(depth int) Option {
	return func(c *config) error {
		if depth < 0 {
			return fmt.Errorf("max depth: want >= 0, got %d", depth)
		}
		c.maxDepth = depth
		return nil
	}
}

// WithLogger traces node boundaries at debug level.
// A nil logger (the default) disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
