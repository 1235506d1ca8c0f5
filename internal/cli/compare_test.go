package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/roach88/tftrace/internal/testutil"
)

const statusPath = "phase.plan.resource.aws_instance.foo.events.0.response_payload.status"

func TestCompare_HumanOutput(t *testing.T) {
	okLog, failedLog := statusPair(t)

	stdout, _, code := execute(t, "compare", okLog, failedLog)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "[~] Modified: "+statusPath+"\n  - ok\n  + failed\n", stdout)
}

func TestCompare_NoDifferences(t *testing.T) {
	okLog, _ := statusPair(t)

	stdout, _, code := execute(t, "compare", okLog, okLog, "--fail-on-diff")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No semantic differences found.\n", stdout)
}

func TestCompare_JSONOutput(t *testing.T) {
	okLog, failedLog := statusPair(t)

	for _, args := range [][]string{
		{"--format", "json"},
		{"--output-format", "json"},
	} {
		t.Run(args[0], func(t *testing.T) {
			stdout, _, code := execute(t, append([]string{"compare", okLog, failedLog}, args...)...)
			assert.Equal(t, ExitSuccess, code)

			require.True(t, gjson.Valid(stdout), stdout)
			diffs := gjson.Parse(stdout).Array()
			require.Len(t, diffs, 1)
			assert.Equal(t, "modified", diffs[0].Get("type").String())
			assert.Equal(t, "status", diffs[0].Get("path.7").String())
			assert.Equal(t, "ok", diffs[0].Get("old_value").String())
			assert.Equal(t, "failed", diffs[0].Get("new_value").String())
		})
	}
}

func TestCompare_OutputFormatHumanOverridesJSON(t *testing.T) {
	okLog, failedLog := statusPair(t)

	stdout, _, code := execute(t, "compare", okLog, failedLog, "--format", "json", "--output-format", "human")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "[~] Modified: "+statusPath)
}

func TestCompare_InvalidOutputFormat(t *testing.T) {
	okLog, failedLog := statusPair(t)

	_, stderr, code := execute(t, "compare", okLog, failedLog, "--output-format", "xml")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid output format "xml"`)
}

func TestCompare_FailOnDiff(t *testing.T) {
	okLog, failedLog := statusPair(t)

	stdout, stderr, code := execute(t, "compare", okLog, failedLog, "--fail-on-diff")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "[~] Modified:")
	assert.Contains(t, stderr, "Error [E_FAILURE]: 1 difference(s) found")
}

func TestCompare_MissingFile(t *testing.T) {
	okLog, _ := statusPair(t)

	_, stderr, code := execute(t, "compare", okLog, filepath.Join(t.TempDir(), "absent.log"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to parse trace")
}

func TestCompare_IgnoreFlag(t *testing.T) {
	okLog, failedLog := statusPair(t)

	stdout, _, code := execute(t, "compare", okLog, failedLog,
		"--ignore", "**/response_payload/status", "--fail-on-diff")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No semantic differences found.\n", stdout)
}

func TestCompare_InvalidIgnore(t *testing.T) {
	okLog, failedLog := statusPair(t)

	_, stderr, code := execute(t, "compare", okLog, failedLog, "--ignore", "[")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid --ignore pattern")
}

func TestCompare_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	build := func(status string) string {
		return testutil.NewLogBuilder().
			Core("=== deploy begins ===").
			Resource("aws_instance.foo").
			RPCCall("/plugin.Provider/ApplyResourceChange", `{}`, `{"status":"`+status+`","at":"`+status+`-time"}`).
			String()
	}
	left := writeFile(t, dir, "left.log", build("ok"))
	right := writeFile(t, dir, "right.log", build("failed"))
	cfg := writeFile(t, dir, "tftrace.yaml", `
ignore:
  - "**/response_payload/at"
phase_markers:
  - match: deploy begins
    action: open
    phase: deploy
`)

	stdout, _, code := execute(t, "compare", left, right, "--config", cfg, "--format", "json")
	assert.Equal(t, ExitSuccess, code)

	diffs := gjson.Parse(stdout).Array()
	require.Len(t, diffs, 1)
	assert.Equal(t, "deploy", diffs[0].Get("path.1").String())
	assert.Equal(t, "status", diffs[0].Get("path.7").String())
}

func TestCompare_InvalidConfig(t *testing.T) {
	okLog, failedLog := statusPair(t)
	cfg := writeFile(t, t.TempDir(), "bad.yaml", "unknown_key: true\n")

	_, stderr, code := execute(t, "compare", okLog, failedLog, "--config", cfg)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestCompare_VerboseLogsToStderr(t *testing.T) {
	okLog, failedLog := statusPair(t)

	stdout, stderr, code := execute(t, "compare", okLog, failedLog, "-v", "--format", "json")
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, gjson.Valid(stdout))
	assert.Contains(t, stderr, "msg=parsing")
	assert.Contains(t, stderr, "msg=comparing")
}

// responseLog builds a single-call apply log with a raw response body.
func responseLog(body string) string {
	return testutil.NewLogBuilder().
		PlanStart().
		Resource("aws_instance.foo").
		RPCCall("/plugin.Provider/ApplyResourceChange", `{"id":"1"}`, body).
		String()
}

func TestCompare_UnusualNumbersReportAndRecord(t *testing.T) {
	tests := []struct {
		name     string
		right    string
		newValue string
	}{
		{"non-finite literal becomes empty payload", `{"x":NaN}`, ""},
		{"huge exponent", `{"x":1e99999999}`, "1e99999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			left := writeFile(t, dir, "left.log", responseLog(`{"x":1}`))
			right := writeFile(t, dir, "right.log", responseLog(tt.right))
			db := filepath.Join(dir, "runs.db")

			stdout, stderr, code := execute(t, "compare", left, right, "--format", "json", "--db", db)
			require.Equal(t, ExitSuccess, code, stderr)
			require.True(t, gjson.Valid(stdout), stdout)

			diffs := gjson.Parse(stdout).Array()
			require.NotEmpty(t, diffs)
			if tt.newValue != "" {
				require.Len(t, diffs, 1)
				assert.Equal(t, tt.newValue, diffs[0].Get("new_value").Raw)
			}

			_, stderr, code = execute(t, "show", "--db", db, "latest", "--format", "json")
			assert.Equal(t, ExitSuccess, code, stderr)
		})
	}
}
