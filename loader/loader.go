// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package loader reads ConfigNode files from a file system and parses them,
// one at a time or as a batch spread over a bounded number of workers.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/mdhender/confignode"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Loader reads and parses ConfigNode files.
type Loader struct {
	fs        afero.Fs
	workers   int
	logger    *slog.Logger
	parseOpts []confignode.Option
}

type Option func(l *Loader)

// WithWorkers sets how many files LoadAll parses at once.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger logs each file loaded, and passes the logger on to the parser.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithParseOptions adds options for every parse.
func WithParseOptions(opts ...confignode.Option) Option {
	return func(l *Loader) {
		l.parseOpts = append(l.parseOpts, opts...)
	}
}

// New returns a Loader that reads from fs. A nil fs means the OS file system.
func New(fs afero.Fs, opts ...Option) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &Loader{
		fs:      fs,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads and parses a single file.
// Failures are returned as *ErrReadFile or *ErrParseSyntax.
func (l *Loader) LoadFile(path string) (*confignode.Node, error) {
	started := time.Now()

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, &ErrReadFile{Path: path, Err: err}
	}

	opts := []confignode.Option{confignode.WithFilename(path)}
	if l.logger != nil {
		opts = append(opts, confignode.WithLogger(l.logger))
	}
	opts = append(opts, l.parseOpts...)

	root, err := confignode.ParseBytes(data, opts...)
	if err != nil {
		var pe *confignode.ParseError
		if errors.As(err, &pe) {
			return nil, &ErrParseSyntax{Path: path, Source: data, Err: pe}
		}
		return nil, err
	}

	if l.logger != nil {
		l.logger.Debug("loaded", "path", path, "bytes", len(data), "entries", root.Len(), "elapsed", time.Since(started))
	}
	return root, nil
}

// Result is the outcome of loading one file in a batch.
type Result struct {
	Path string
	Root *confignode.Node
	Err  error
}

// LoadAll loads every path, running up to the configured number of
// workers at a time. Results are returned in the same order as paths.
//
// A file that fails to load does not stop the batch; its error is in
// Result.Err. If ctx is canceled, files not yet started get ctx's error
// and LoadAll returns it as well.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))

	var eg errgroup.Group
	eg.SetLimit(l.workers)
	for i, path := range paths {
		results[i].Path = path
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Root, results[i].Err = l.LoadFile(path)
			return nil
		})
	}
	_ = eg.Wait()

	if l.logger != nil {
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		l.logger.Info("batch loaded", "files", len(results), "failed", failed)
	}
	return results, ctx.Err()
}
