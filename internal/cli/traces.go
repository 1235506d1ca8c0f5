package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tftrace/internal/config"
	"github.com/roach88/tftrace/internal/parser"
	"github.com/roach88/tftrace/internal/trace"
)

// parsedTrace is one parsed log file.
type parsedTrace struct {
	Path  string
	Trace *trace.Trace
	Stats parser.Stats
}

// loadConfig resolves the config file and merges extra ignore patterns.
func loadConfig(opts *RootOptions, ignore []string) (*config.Config, error) {
	cfg, err := config.Resolve(opts.Config, opts.Logger())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.AddIgnore(ignore...); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --ignore pattern", err)
	}
	return cfg, nil
}

// parseFiles parses every path concurrently, one independent Parser each.
// Results keep the order of paths.
func parseFiles(ctx context.Context, paths []string, opts []parser.Option, logger *slog.Logger) ([]parsedTrace, error) {
	out := make([]parsedTrace, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parsed, err := parseFile(path, opts, logger)
			if err != nil {
				return err
			}
			out[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFile(path string, opts []parser.Option, logger *slog.Logger) (parsedTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return parsedTrace{}, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	logger.Debug("parsing", "path", path)

	all := make([]parser.Option, 0, len(opts)+1)
	all = append(all, parser.WithLogger(logger.With("trace", path)))
	all = append(all, opts...)

	p := parser.New(f, all...)
	t, err := p.Parse()
	if err != nil {
		return parsedTrace{}, fmt.Errorf("parse %s: %w", path, err)
	}

	stats := p.Stats()
	logger.Debug("parsed",
		"path", path,
		"lines", stats.Lines,
		"skipped", stats.SkippedLines,
		"events", stats.Events,
		"orphans", stats.OrphanEvents,
	)
	return parsedTrace{Path: path, Trace: t, Stats: stats}, nil
}
