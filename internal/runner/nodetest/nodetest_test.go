package nodetest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/nodetest"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.test.js")
	src := "describe('group', () => {\n  it('works', () => {\n    assert.ok(true);\n  });\n});\n"
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	items, err := nodetest.Discover(file)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "group::works", items[0].Name)
}

const junitFixture = `<?xml version="1.0" encoding="utf-8"?>
<testsuites name="node:test">
  <testsuite name="index.test.js">
    <testcase name="assert is not defined" classname="index.test.js">
      <failure type="testCodeFailure" message="assert is not defined">
[Error [ERR_TEST_FAILURE]: assert is not defined] {
  at TestContext.&lt;anonymous&gt; (/home/test-user/projects/index.test.js:6:3)
}
      </failure>
    </testcase>
  </testsuite>
</testsuites>
`

func TestParseDiagnostics(t *testing.T) {
	target := "/home/test-user/projects/index.test.js"
	result := nodetest.ParseDiagnostics(junitFixture, []string{target})
	require.Len(t, result.Data, 1)
	assert.Equal(t, target, result.Data[0].Path)
	require.Len(t, result.Data[0].Diagnostics, 1)
	diag := result.Data[0].Diagnostics[0]
	assert.Equal(t, uint32(5), diag.Range.Start.Line)
	assert.Equal(t, uint32(2), diag.Range.Start.Character)
}
