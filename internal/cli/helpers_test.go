package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tftrace/internal/testutil"
)

// execute runs the full CLI and captures both streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

// applyLog builds a single-resource apply log whose response carries status.
func applyLog(status string) string {
	return testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		RPCCall("/plugin.Provider/ApplyResourceChange", `{"id":"1"}`, `{"id":"1","status":"`+status+`"}`).
		ApplyComplete().
		String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// statusPair writes an ok and a failed apply log and returns their paths.
func statusPair(t *testing.T) (okLog, failedLog string) {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, dir, "ok.log", applyLog("ok")), writeFile(t, dir, "failed.log", applyLog("failed"))
}
