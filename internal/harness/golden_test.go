package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "status_flip.golden"),
		GoldenPath(filepath.Join("scenarios", "status_flip.yaml")),
	)
}

func TestGoldenBytes_Empty(t *testing.T) {
	data, err := GoldenBytes(NewResult())
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestUpdateAndMatchGolden(t *testing.T) {
	dir := t.TempDir()
	scenarioFile := filepath.Join(dir, "drift.yaml")
	result := sampleResult()

	_, found, err := MatchGolden(scenarioFile, result)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, UpdateGolden(scenarioFile, result))
	_, err = os.Stat(filepath.Join(dir, "golden", "drift.golden"))
	require.NoError(t, err)

	match, found, err := MatchGolden(scenarioFile, result)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, match)

	match, found, err = MatchGolden(scenarioFile, NewResult())
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, match)
}
