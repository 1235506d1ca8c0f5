package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/report"
	"github.com/roach88/tftrace/internal/store"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Database     string
	Ignore       []string
	OutputFormat string // "human" | "json"; overrides --format when set
	FailOnDiff   bool

	// IDGenerator overrides run ids when recording (for testing).
	IDGenerator store.IDGenerator
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <trace1> <trace2>",
		Short: "Semantically compare two trace logs",
		Long: `Parse two trace logs and report the semantic differences between them.

Events are matched by kind and identity (RPC method, or HTTP method and URL)
so independent calls that were logged in a different order do not show up
as drift. Differences are addressed by path, e.g.
phase.plan.resource.aws_instance.foo.events.0.response_payload.status.

Exit codes:
  0 - Compared successfully (differences or not)
  1 - Differences found and --fail-on-diff is set
  2 - Command error (unreadable file, invalid pattern, etc.)

Examples:
  tftrace compare before.log after.log
  tftrace compare before.log after.log --format json
  tftrace compare before.log after.log --ignore '**/headers/Date'
  tftrace compare before.log after.log --db ./tftrace.db --fail-on-diff`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringArrayVar(&opts.Ignore, "ignore", nil, "glob over slash-joined diff paths to ignore (repeatable)")
	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", "", "output format (human|json), alias of --format")
	cmd.Flags().BoolVar(&opts.FailOnDiff, "fail-on-diff", false, "exit 1 when differences are found")

	return cmd
}

// resolveFormat applies the --output-format alias.
func (o *CompareOptions) resolveFormat() (string, error) {
	switch o.OutputFormat {
	case "":
		return o.Format, nil
	case "human":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be human or json", o.OutputFormat)
	}
}

func runCompare(opts *CompareOptions, leftPath, rightPath string, cmd *cobra.Command) error {
	format, err := opts.resolveFormat()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	logger := opts.Logger()
	cfg, err := loadConfig(opts.RootOptions, opts.Ignore)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	parsed, err := parseFiles(ctx, []string{leftPath, rightPath}, cfg.ParserOptions(), logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse trace", err)
	}
	left, right := parsed[0], parsed[1]

	logger.Debug("comparing", "left", leftPath, "right", rightPath, "ignore", len(cfg.Ignore))
	diffs := compare.Compare(left.Trace, right.Trace, cfg.CompareOptions()...)

	if opts.Database != "" {
		if err := recordRun(ctx, opts, left, right, diffs); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if format == FormatJSON {
		err = report.JSON(w, diffs)
	} else {
		err = report.Human(w, diffs, report.Options{Color: colorEnabled(w, opts.NoColor)})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if opts.FailOnDiff && len(diffs) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d difference(s) found", len(diffs)))
	}
	return nil
}

func recordRun(ctx context.Context, opts *CompareOptions, left, right parsedTrace, diffs []compare.Diff) error {
	var storeOpts []store.Option
	if opts.IDGenerator != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
	}

	st, err := store.Open(opts.Database, storeOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.Logger().Error("error closing database", "error", closeErr)
		}
	}()

	run, err := st.RecordRun(ctx, store.RunInput{
		LeftSource:  left.Path,
		RightSource: right.Path,
		Left:        left.Trace,
		Right:       right.Trace,
		Diffs:       diffs,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	opts.Logger().Info("recorded run", "id", run.ID, "seq", run.Seq, "diffs", run.Summary.Total())
	return nil
}

// colorEnabled reports whether human output to w should be colored.
func colorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
