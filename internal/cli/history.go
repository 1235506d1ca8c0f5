package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/report"
	"github.com/roach88/tftrace/internal/store"
	"github.com/roach88/tftrace/internal/trace"
)

// latestRun selects the most recent run in the show command.
const latestRun = "latest"

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded comparison runs",
		Long: `List the comparison runs recorded with "compare --db", oldest first.

Examples:
  tftrace history --db ./tftrace.db
  tftrace history --db ./tftrace.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(HistoryResult{Runs: runs}, func(w io.Writer) error {
		if len(runs) == 0 {
			_, err := fmt.Fprintln(w, "No recorded runs.")
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(w, "#%d %s  %s -> %s  +%d -%d ~%d\n",
				r.Seq, r.ID, r.LeftSource, r.RightSource,
				r.Summary.Added, r.Summary.Removed, r.Summary.Modified)
		}
		return nil
	})
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Trace    string // "left" | "right": print that snapshot instead of the diffs
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id|latest>",
		Short: "Re-render a recorded comparison run",
		Long: `Render the diffs of a recorded run exactly as compare printed them,
or print one of the stored trace snapshots with --trace.

Examples:
  tftrace show --db ./tftrace.db latest
  tftrace show --db ./tftrace.db 0190a1b2-... --format json
  tftrace show --db ./tftrace.db latest --trace right`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "print the stored trace for a side (left|right)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	if opts.Trace != "" && opts.Trace != store.SideLeft && opts.Trace != store.SideRight {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --trace %q: must be left or right", opts.Trace))
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(ctx, st, id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.Trace != "" {
		t, err := st.ReadRunTrace(ctx, run.ID, opts.Trace)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
		canonical, err := trace.MarshalCanonical(t.ToValue())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode trace", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", canonical)
		return err
	}

	diffs, err := st.ReadRunDiffs(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read diffs", err)
	}
	return renderDiffs(w, opts.Format, opts.NoColor, run, diffs)
}

func renderDiffs(w io.Writer, format string, noColor bool, run store.Run, diffs []compare.Diff) error {
	if format == FormatJSON {
		return report.JSON(w, diffs)
	}
	fmt.Fprintf(w, "Run #%d %s\n", run.Seq, run.ID)
	fmt.Fprintf(w, "  %s -> %s\n\n", run.LeftSource, run.RightSource)
	return report.Human(w, diffs, report.Options{Color: colorEnabled(w, noColor)})
}

// resolveRun looks up id, or the newest run for "latest".
func resolveRun(ctx context.Context, st *store.Store, id string) (store.Run, error) {
	if id != latestRun {
		run, err := st.GetRun(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return store.Run{}, NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
		}
		if err != nil {
			return store.Run{}, WrapExitError(ExitCommandError, "failed to read run", err)
		}
		return run, nil
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return store.Run{}, WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if len(runs) == 0 {
		return store.Run{}, NewExitError(ExitCommandError, "no recorded runs")
	}
	return runs[len(runs)-1], nil
}

// openExistingStore opens a database that compare --db already created.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
