package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tftrace/internal/compare"
	"github.com/roach88/tftrace/internal/trace"
)

func sampleTraces() (*trace.Trace, *trace.Trace) {
	left := trace.New()
	lp := left.AddPhase("plan")
	lp.Operation("aws_instance.foo").Append(&trace.ProviderCall{
		Method:          "/plugin.Provider/ApplyResourceChange",
		RequestPayload:  trace.Object{"id": trace.String("1"), "count": trace.Number("1.50")},
		ResponsePayload: trace.Object{"status": trace.String("ok"), "tags": trace.Array{trace.Null{}, trace.Bool(true)}},
	})
	lp.Operation("aws_s3_bucket.logs").Append(&trace.ApiRequest{
		Method:          "PUT",
		URL:             "https://s3.amazonaws.com/logs",
		RequestHeaders:  trace.Object{"Content-Type": trace.String("application/xml")},
		RequestBody:     trace.EmptyObject(),
		ResponseStatus:  200,
		ResponseHeaders: trace.EmptyObject(),
		ResponseBody:    trace.Object{"ok": trace.Bool(true)},
	})

	right := trace.New()
	rp := right.AddPhase("plan")
	rp.Operation("aws_instance.foo").Append(&trace.ProviderCall{
		Method:          "/plugin.Provider/ApplyResourceChange",
		RequestPayload:  trace.Object{"id": trace.String("1"), "count": trace.Number("1.50")},
		ResponsePayload: trace.Object{"status": trace.String("failed"), "tags": trace.Array{trace.Null{}, trace.Bool(true)}},
	})
	rp.Operation("aws_s3_bucket.logs")
	right.AddPhase("apply")
	return left, right
}

func TestRecordRun_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run-1")
	left, right := sampleTraces()
	diffs := compare.Compare(left, right)
	require.NotEmpty(t, diffs)

	run, err := s.RecordRun(ctx, RunInput{
		LeftSource:  "before.log",
		RightSource: "after.log",
		Left:        left,
		Right:       right,
		Diffs:       diffs,
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, compare.Summarize(diffs), run.Summary)

	leftDigest, err := left.Digest()
	require.NoError(t, err)
	assert.Equal(t, leftDigest, run.LeftDigest)

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	storedDiffs, err := s.ReadRunDiffs(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, storedDiffs, len(diffs))
	for i := range diffs {
		assert.Equal(t, diffs[i].Kind, storedDiffs[i].Kind)
		assert.Equal(t, diffs[i].Path, storedDiffs[i].Path)
		assert.True(t, valuesEqual(diffs[i].Old, storedDiffs[i].Old), "old value of diff %d", i)
		assert.True(t, valuesEqual(diffs[i].New, storedDiffs[i].New), "new value of diff %d", i)
	}
}

func valuesEqual(a, b trace.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return trace.Equal(a, b)
}

func TestRecordRun_SnapshotsRecompare(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run-1")
	left, right := sampleTraces()
	diffs := compare.Compare(left, right)

	_, err := s.RecordRun(ctx, RunInput{Left: left, Right: right, Diffs: diffs})
	require.NoError(t, err)

	storedLeft, err := s.ReadRunTrace(ctx, "run-1", SideLeft)
	require.NoError(t, err)
	storedRight, err := s.ReadRunTrace(ctx, "run-1", SideRight)
	require.NoError(t, err)

	assert.Empty(t, compare.Compare(left, storedLeft), "left snapshot is equivalent to the original")
	assert.Empty(t, compare.Compare(right, storedRight), "right snapshot is equivalent to the original")
	assert.Equal(t, diffs, compare.Compare(storedLeft, storedRight))

	wantDigest, err := left.Digest()
	require.NoError(t, err)
	gotDigest, err := storedLeft.Digest()
	require.NoError(t, err)
	assert.Equal(t, wantDigest, gotDigest)

	req, ok := storedLeft.Phase("plan").Operations()[1].Events[0].(*trace.ApiRequest)
	require.True(t, ok)
	assert.Equal(t, 200, req.ResponseStatus)
	assert.Equal(t, "https://s3.amazonaws.com/logs", req.URL)
}

func TestRecordRun_SeqIncrements(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "b-run", "a-run", "c-run")
	left, right := sampleTraces()

	for _, src := range []string{"one", "two", "three"} {
		_, err := s.RecordRun(ctx, RunInput{LeftSource: src, Left: left, Right: right})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, want := range []struct {
		id  string
		src string
	}{{"b-run", "one"}, {"a-run", "two"}, {"c-run", "three"}} {
		assert.Equal(t, want.id, runs[i].ID)
		assert.Equal(t, want.src, runs[i].LeftSource)
		assert.Equal(t, int64(i+1), runs[i].Seq)
	}
}

func TestRecordRun_NoDiffs(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "same")
	left, _ := sampleTraces()

	run, err := s.RecordRun(ctx, RunInput{Left: left, Right: left, Diffs: compare.Compare(left, left)})
	require.NoError(t, err)
	assert.Zero(t, run.Summary.Total())
	assert.Equal(t, run.LeftDigest, run.RightDigest)

	diffs, err := s.ReadRunDiffs(ctx, "same")
	require.NoError(t, err)
	assert.NotNil(t, diffs)
	assert.Empty(t, diffs)
}

func TestRecordRun_RequiresTraces(t *testing.T) {
	s := createTestStore(t, "x")
	_, err := s.RecordRun(context.Background(), RunInput{Left: trace.New()})
	assert.Error(t, err)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun_NotFound(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadRunDiffs(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadRunTrace(ctx, "nope", SideLeft)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadRunTrace(ctx, "nope", "middle")
	assert.ErrorContains(t, err, "invalid side")
}

func TestRecordRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := createTestStore(t, "x")
	left, right := sampleTraces()
	_, err := s.RecordRun(ctx, RunInput{Left: left, Right: right})
	assert.Error(t, err)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "nothing is committed")
}
