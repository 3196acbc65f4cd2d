package vitest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/vitest"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "basic.test.ts")
	src := "describe('describe text', () => {\n" +
		"  it('pass', () => {\n" +
		"    expect(1).toBe(1);\n" +
		"  });\n" +
		"  it('fail', () => {\n" +
		"    expect(1).toBe(2);\n" +
		"  });\n" +
		"});\n"
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	items, err := vitest.Discover(file)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "describe text::pass", items[0].Id)
	assert.Equal(t, "describe text::fail", items[1].Id)
}

func TestParseDiagnostics(t *testing.T) {
	report := `{
		"testResults": [
			{
				"name": "/project/basic.test.ts",
				"assertionResults": [
					{"status": "failed", "location": {"line": 6, "column": 5}, "failureMessages": ["expected 2, got 1"]}
				]
			}
		]
	}`

	result, err := vitest.ParseDiagnostics(report, []string{"/project/basic.test.ts"})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	require.Len(t, result.Data[0].Diagnostics, 1)
	diag := result.Data[0].Diagnostics[0]
	assert.Equal(t, uint32(5), diag.Range.Start.Line)
	assert.Equal(t, uint32(0), diag.Range.Start.Character)
}
