package deno_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/deno"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main_test.ts")
	src := "Deno.test('adds numbers', () => {\n  if (1 + 1 !== 2) throw new Error('broken');\n});\n"
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	items, err := deno.Discover(file)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "adds numbers", items[0].Name)
}

// deno prints failures twice: once in the ERRORS section with the
// message, and again in a trailing FAILURES summary that just repeats
// the "=> file:line:col" pointer. The parser only flushes a diagnostic
// when a *second* pointer line is seen, so a single failure needs both
// sections present to produce one diagnostic — matching the real
// `deno test` transcript this was ported against.
const sampleReport = `running 1 test from ./main_test.ts
adds numbers ... FAILED (1ms)

ERRORS

adds numbers => ./main_test.ts:2:22
error: AssertionError: broken

FAILURES

adds numbers => ./main_test.ts:2:22

FAILED | 0 passed | 1 failed
`

func TestParseDiagnostics(t *testing.T) {
	target := "/home/demo/deno/main_test.ts"
	result := deno.ParseDiagnostics(sampleReport, "/home/demo/deno", []string{target})
	require.Len(t, result.Data, 1)
	assert.Equal(t, target, result.Data[0].Path)
	require.NotEmpty(t, result.Data[0].Diagnostics)
	assert.Equal(t, uint32(2), result.Data[0].Diagnostics[0].Range.Start.Line)
}
