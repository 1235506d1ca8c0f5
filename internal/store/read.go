package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/trace"
)

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// ListRuns returns every run ordered by seq ascending.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, left_source, right_source, left_digest, right_digest, added, removed, modified
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by id. Returns ErrNotFound if it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, left_source, right_source, left_digest, right_digest, added, removed, modified
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return run, err
}

// ReadRunDiffs returns a run's diffs in their original order.
func (s *Store) ReadRunDiffs(ctx context.Context, runID string) ([]compare.Diff, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, path, old_value, new_value
		FROM run_diffs
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diffs: %w", err)
	}
	defer rows.Close()

	diffs := []compare.Diff{}
	for rows.Next() {
		var (
			kind, path string
			oldJSON    sql.NullString
			newJSON    sql.NullString
		)
		if err := rows.Scan(&kind, &path, &oldJSON, &newJSON); err != nil {
			return nil, fmt.Errorf("scan diff: %w", err)
		}

		d := compare.Diff{}
		if d.Kind, err = compare.ParseDiffKind(kind); err != nil {
			return nil, fmt.Errorf("scan diff: %w", err)
		}
		if d.Path, err = unmarshalPath(path); err != nil {
			return nil, fmt.Errorf("scan diff: %w", err)
		}
		if d.Old, err = unmarshalValue(oldJSON); err != nil {
			return nil, fmt.Errorf("scan diff: old: %w", err)
		}
		if d.New, err = unmarshalValue(newJSON); err != nil {
			return nil, fmt.Errorf("scan diff: new: %w", err)
		}
		diffs = append(diffs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diffs: %w", err)
	}
	return diffs, nil
}

// ReadRunTrace rebuilds one side (SideLeft or SideRight) of a recorded run.
func (s *Store) ReadRunTrace(ctx context.Context, runID, side string) (*trace.Trace, error) {
	if side != SideLeft && side != SideRight {
		return nil, fmt.Errorf("invalid side %q (want %s or %s)", side, SideLeft, SideRight)
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM run_traces WHERE run_id = ? AND side = ?
	`, runID, side).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q %s trace: %w", runID, side, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return decodeSnapshot(data)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.LeftSource,
		&run.RightSource,
		&run.LeftDigest,
		&run.RightDigest,
		&run.Summary.Added,
		&run.Summary.Removed,
		&run.Summary.Modified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

func unmarshalPath(data string) (compare.Path, error) {
	v, err := trace.ParseJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal path: %w", err)
	}
	arr, ok := v.(trace.Array)
	if !ok {
		return nil, fmt.Errorf("unmarshal path: not an array")
	}
	path := make(compare.Path, len(arr))
	for i, seg := range arr {
		s, ok := seg.(trace.String)
		if !ok {
			return nil, fmt.Errorf("unmarshal path: segment %d is not a string", i)
		}
		path[i] = string(s)
	}
	return path, nil
}
