package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/runner"
)

func sampleResults() []runner.JobResult {
	return []runner.JobResult{
		{
			UseFlags:          "ssl -zstd",
			ExitCode:          0,
			Features:          "sandbox",
			EmergeCmdline:     "emerge --verbose y =app-misc/foo-1.2.3",
			TestFeatureToggle: true,
			Atom:              "=app-misc/foo-1.2.3",
			Time:              runner.TimeSpan{Started: "2026-08-30T10:00:00", Finished: "2026-08-30T10:05:00"},
		},
		{
			UseFlags: "-ssl zstd",
			ExitCode: 1,
			Atom:     "=app-misc/foo-1.2.3",
		},
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Write(path, sampleResults()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "ssl -zstd", decoded[0]["use_flags"])
	assert.Equal(t, true, decoded[0]["test_feature_toggle"])
	assert.Equal(t, float64(1), decoded[1]["exit_code"])

	span, ok := decoded[0]["time"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2026-08-30T10:00:00", span["started"])
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, Write(path, sampleResults()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "=app-misc/foo-1.2.3", decoded[0]["atom"])
	assert.Equal(t, 1, decoded[1]["exit_code"])
}

func TestWriteUnwritablePath(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "missing", "report.json"), sampleResults())
	assert.Error(t, err)
}
