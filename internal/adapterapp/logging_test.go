package adapterapp

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_CreatesPerTestKindFile(t *testing.T) {
	dir := t.TempDir()

	logger, closeLog, err := NewLogger(dir, "gotest")
	require.NoError(t, err)
	defer closeLog() //nolint:errcheck

	logger.Info().Msg("hello")

	data, err := os.ReadFile(filepath.Join(dir, "gotest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"test_kind":"gotest"`)
	assert.Contains(t, string(data), "hello")
}

func TestLogInvocation_RecordsSuccessAndFailure(t *testing.T) {
	dir := t.TempDir()
	logger, closeLog, err := NewLogger(dir, "cargotest")
	require.NoError(t, err)
	defer closeLog() //nolint:errcheck

	LogInvocation(logger, "discover", "/ws", []string{"a_test.rs", "b_test.rs"}, 0, 12*time.Millisecond, nil)
	LogInvocation(logger, "run-file-test", "/ws", []string{"a_test.rs"}, 1, 5*time.Millisecond, errors.New("boom"))

	data, err := os.ReadFile(filepath.Join(dir, "cargotest.log"))
	require.NoError(t, err)

	var lines []map[string]any
	for _, line := range splitNonEmptyLines(data) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "info", lines[0]["level"])
	assert.EqualValues(t, 2, lines[0]["files"])
	assert.EqualValues(t, 0, lines[0]["exit_code"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.EqualValues(t, 1, lines[1]["exit_code"])
}

func splitNonEmptyLines(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				out = append(out, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		out = append(out, data[start:])
	}
	return out
}
