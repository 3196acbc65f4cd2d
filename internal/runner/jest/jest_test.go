package jest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/jest"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.spec.js")
	src := "describe('outer', () => {\n  it('fail', () => {\n    expect(1).toBe(2);\n  });\n});\n"
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	items, err := jest.Discover(file)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "outer:fail", items[0].Id)
	assert.Equal(t, "fail", items[0].Name)
}

func TestParseDiagnostics(t *testing.T) {
	report := `{
		"testResults": [
			{
				"name": "/project/index.spec.js",
				"assertionResults": [
					{"status": "failed", "location": {"line": 3, "column": 5}, "failureMessages": ["expected 2, got 1"]},
					{"status": "passed", "location": {"line": 10, "column": 1}, "failureMessages": []}
				]
			}
		]
	}`

	result, err := jest.ParseDiagnostics(report, []string{"/project/index.spec.js"})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "/project/index.spec.js", result.Data[0].Path)
	require.Len(t, result.Data[0].Diagnostics, 1)
	diag := result.Data[0].Diagnostics[0]
	assert.Equal(t, uint32(2), diag.Range.Start.Line)
	assert.Equal(t, uint32(4), diag.Range.Start.Character)
	assert.Equal(t, "expected 2, got 1", diag.Message)
}

func TestDetectWorkspaces(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	file := filepath.Join(dir, "index.spec.js")
	require.NoError(t, os.WriteFile(file, []byte("test('x', () => {})"), 0o644))

	result := jest.DetectWorkspaces([]string{file})
	require.Contains(t, result.Data, dir)
	assert.Equal(t, []string{file}, result.Data[dir])
}
