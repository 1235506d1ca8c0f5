package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tftrace/internal/parser"
	"github.com/roach88/tftrace/internal/trace"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Path   string          `json:"path"`
	Digest string          `json:"digest"`
	Trace  json.RawMessage `json:"trace"`
	Stats  parser.Stats    `json:"stats"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <trace>",
		Short: "Parse a trace log and print its structure",
		Long: `Parse one trace log and print the phases, resource operations and
events it contains, together with parser statistics (skipped lines,
unmatched responses, orphan events).

Examples:
  tftrace parse apply.log
  tftrace parse apply.log --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, path string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts, nil)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	parsed, err := parseFiles(ctx, []string{path}, cfg.ParserOptions(), opts.Logger())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse trace", err)
	}
	t := parsed[0].Trace

	digest, err := t.Digest()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to digest trace", err)
	}
	canonical, err := trace.MarshalCanonical(t.ToValue())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode trace", err)
	}

	result := ParseResult{
		Path:   path,
		Digest: digest,
		Trace:  canonical,
		Stats:  parsed[0].Stats,
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(result, func(w io.Writer) error {
		return writeTraceText(w, t, result)
	})
}

func writeTraceText(w io.Writer, t *trace.Trace, result ParseResult) error {
	fmt.Fprintf(w, "Trace: %s\n", result.Path)
	fmt.Fprintf(w, "Digest: %s\n", result.Digest)

	if len(t.Phases) == 0 {
		fmt.Fprintln(w, "No phases found.")
	}
	for _, phase := range t.Phases {
		fmt.Fprintf(w, "\nphase %s\n", phase.Name)
		for _, op := range phase.Operations() {
			fmt.Fprintf(w, "  %s (%d events)\n", op.Address, len(op.Events))
			for _, e := range op.Events {
				fmt.Fprintf(w, "    %s %s\n", e.Kind(), e.Identifier())
			}
		}
	}

	s := result.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Lines: %d (skipped %d)\n", s.Lines, s.SkippedLines)
	fmt.Fprintf(w, "Events: %d (orphaned %d)\n", s.Events, s.OrphanEvents)
	_, err := fmt.Fprintf(w, "Unmatched responses: %d, pending discarded: %d, malformed bodies: %d\n",
		s.UnmatchedResponses, s.PendingDiscarded, s.MalformedBodies)
	return err
}
