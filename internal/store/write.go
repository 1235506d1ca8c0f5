package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/trace"
)

// Trace sides.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Run is one recorded comparison.
type Run struct {
	ID          string          `json:"id"`
	Seq         int64           `json:"seq"`
	LeftSource  string          `json:"left_source"`
	RightSource string          `json:"right_source"`
	LeftDigest  string          `json:"left_digest"`
	RightDigest string          `json:"right_digest"`
	Summary     compare.Summary `json:"summary"`
}

// RunInput is everything RecordRun persists.
type RunInput struct {
	LeftSource  string
	RightSource string
	Left        *trace.Trace
	Right       *trace.Trace
	Diffs       []compare.Diff
}

// RecordRun stores a comparison, its diffs and both trace snapshots in one
// transaction. The run gets the next seq and a fresh id.
func (s *Store) RecordRun(ctx context.Context, in RunInput) (Run, error) {
	if in.Left == nil || in.Right == nil {
		return Run{}, fmt.Errorf("record run: both traces are required")
	}

	run := Run{
		ID:          s.ids.Generate(),
		LeftSource:  in.LeftSource,
		RightSource: in.RightSource,
		Summary:     compare.Summarize(in.Diffs),
	}

	var err error
	if run.LeftDigest, err = in.Left.Digest(); err != nil {
		return Run{}, fmt.Errorf("record run: left digest: %w", err)
	}
	if run.RightDigest, err = in.Right.Digest(); err != nil {
		return Run{}, fmt.Errorf("record run: right digest: %w", err)
	}

	leftSnap, err := encodeSnapshot(in.Left)
	if err != nil {
		return Run{}, fmt.Errorf("record run: left: %w", err)
	}
	rightSnap, err := encodeSnapshot(in.Right)
	if err != nil {
		return Run{}, fmt.Errorf("record run: right: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, left_source, right_source, left_digest, right_digest, added, removed, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.LeftSource,
		run.RightSource,
		run.LeftDigest,
		run.RightDigest,
		run.Summary.Added,
		run.Summary.Removed,
		run.Summary.Modified,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: insert run: %w", err)
	}

	for i, d := range in.Diffs {
		if err := insertDiff(ctx, tx, run.ID, i, d); err != nil {
			return Run{}, fmt.Errorf("record run: diff %d: %w", i, err)
		}
	}

	for _, side := range []struct {
		name string
		data []byte
	}{{SideLeft, leftSnap}, {SideRight, rightSnap}} {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_traces (run_id, side, snapshot)
			VALUES (?, ?, ?)
			ON CONFLICT(run_id, side) DO NOTHING
		`, run.ID, side.name, side.data)
		if err != nil {
			return Run{}, fmt.Errorf("record run: insert %s trace: %w", side.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDiff(ctx context.Context, db execer, runID string, idx int, d compare.Diff) error {
	path, err := marshalPath(d.Path)
	if err != nil {
		return err
	}
	oldJSON, err := marshalValue(d.Old)
	if err != nil {
		return err
	}
	newJSON, err := marshalValue(d.New)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO run_diffs (run_id, idx, kind, path, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, idx, string(d.Kind), path, oldJSON, newJSON)
	return err
}

// marshalPath stores a path as a canonical JSON array of segments, since
// segments (resource addresses) may themselves contain dots.
func marshalPath(p compare.Path) (string, error) {
	arr := make(trace.Array, len(p))
	for i, seg := range p {
		arr[i] = trace.String(seg)
	}
	data, err := trace.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	return string(data), nil
}
