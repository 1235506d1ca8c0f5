package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/parser"
	"github.com/roach88/tftrace/internal/trace"
)

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger passed to both parsers.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithParserOptions adds parser options (extra markers from config) to both parses.
func WithParserOptions(opts ...parser.Option) Option {
	return func(h *Harness) {
		h.parserOpts = append(h.parserOpts, opts...)
	}
}

// Harness executes one scenario.
type Harness struct {
	logger     *slog.Logger
	parserOpts []parser.Option
}

// Run parses both logs of a scenario, compares them, and evaluates the
// assertions. An error is returned only when a log cannot be read; failed
// assertions are reported through Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}

	result := NewResult()

	var err error
	result.Left, result.LeftStats, err = h.parse(scenario.Left, scenario.LeftLog)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	result.Right, result.RightStats, err = h.parse(scenario.Right, scenario.RightLog)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}

	var compareOpts []compare.Option
	if len(scenario.Ignore) > 0 {
		compareOpts = append(compareOpts, compare.WithIgnore(scenario.Ignore...))
	}
	result.Diffs = compare.Compare(result.Left, result.Right, compareOpts...)

	h.logger.Debug("scenario compared",
		"scenario", scenario.Name,
		"diffs", len(result.Diffs),
		"left_events", result.Left.EventCount(),
		"right_events", result.Right.EventCount(),
	)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) parse(path, inline string) (*trace.Trace, parser.Stats, error) {
	var r io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, parser.Stats{}, fmt.Errorf("failed to open log: %w", err)
		}
		defer f.Close()
		r = f
	} else {
		r = strings.NewReader(inline)
	}

	opts := append([]parser.Option{parser.WithLogger(h.logger)}, h.parserOpts...)
	p := parser.New(r, opts...)
	t, err := p.Parse()
	if err != nil {
		return nil, parser.Stats{}, err
	}
	return t, p.Stats(), nil
}
