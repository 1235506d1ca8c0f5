// Package report renders diff sequences for people and for machines.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/trace"
)

// NoDifferences is printed by Human for an empty diff list.
const NoDifferences = "No semantic differences found."

// Options controls human-readable rendering.
type Options struct {
	// Color enables ANSI colors regardless of whether w is a terminal.
	Color bool
}

type palette struct {
	added, removed, modified, faint *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		added:    color.New(color.FgGreen),
		removed:  color.New(color.FgRed),
		modified: color.New(color.FgYellow),
		faint:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.added, p.removed, p.modified, p.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Human writes one entry per diff:
//
//	[+] Added: <path> = <value>
//	[-] Removed: <path> (was <value>)
//	[~] Modified: <path>
//	  - <old>
//	  + <new>
func Human(w io.Writer, diffs []compare.Diff, opts Options) error {
	if len(diffs) == 0 {
		_, err := fmt.Fprintln(w, NoDifferences)
		return err
	}

	p := newPalette(opts.Color)
	var buf bytes.Buffer
	for _, d := range diffs {
		path := d.Path.String()
		switch d.Kind {
		case compare.Added:
			fmt.Fprintf(&buf, "%s %s = %s\n", p.added.Sprint("[+] Added:"), path, display(d.New))
		case compare.Removed:
			fmt.Fprintf(&buf, "%s %s (was %s)\n", p.removed.Sprint("[-] Removed:"), path, display(d.Old))
		case compare.Modified:
			fmt.Fprintf(&buf, "%s %s\n", p.modified.Sprint("[~] Modified:"), path)
			fmt.Fprintf(&buf, "  %s\n", p.removed.Sprint("- "+display(d.Old)))
			fmt.Fprintf(&buf, "  %s\n", p.added.Sprint("+ "+display(d.New)))
		default:
			return fmt.Errorf("unknown diff kind %q at %s", d.Kind, path)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func display(v trace.Value) string {
	if v == nil {
		return "null"
	}
	return trace.Display(v)
}

// JSON writes the diffs as an indented JSON array. An empty list is "[]".
func JSON(w io.Writer, diffs []compare.Diff) error {
	if diffs == nil {
		diffs = []compare.Diff{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(diffs); err != nil {
		return fmt.Errorf("encode diffs: %w", err)
	}
	return nil
}
