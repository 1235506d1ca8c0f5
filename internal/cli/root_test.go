package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tftrace", cmd.Use)
	assert.Contains(t, cmd.Long, "compare two traces")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compare", "parse", "history", "show", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestCompareCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compareCmd, _, err := cmd.Find([]string{"compare"})
	require.NoError(t, err)

	for _, name := range []string{"db", "ignore", "output-format", "fail-on-diff"} {
		assert.NotNil(t, compareCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestExecute_InvalidFormat(t *testing.T) {
	okLog, failedLog := statusPair(t)

	stdout, stderr, code := execute(t, "compare", okLog, failedLog, "--format", "yaml")
	assert.Equal(t, ExitCommandError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `Error [E_COMMAND]: invalid format "yaml"`)
}

func TestExecute_UsageErrorIsCommandError(t *testing.T) {
	_, stderr, code := execute(t, "compare", "only-one.log")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "accepts 2 arg")
}

func TestExecute_JSONErrorEnvelope(t *testing.T) {
	_, stderr, code := execute(t, "compare", "missing-a.log", "missing-b.log", "--format", "json")
	assert.Equal(t, ExitCommandError, code)

	require.True(t, gjson.Valid(stderr), stderr)
	assert.Equal(t, "error", gjson.Get(stderr, "status").String())
	assert.Equal(t, CodeCommand, gjson.Get(stderr, "error.code").String())
	assert.Contains(t, gjson.Get(stderr, "error.message").String(), "failed to parse trace")
}
