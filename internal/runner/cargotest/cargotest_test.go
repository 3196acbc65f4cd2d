package cargotest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/cargotest"
)

const fixture = `
running 1 test
test rocks::dependency::tests::parse_dependency ... FAILED
failures:
    Finished test [unoptimized + debuginfo] target(s) in 0.12s
    Starting 1 test across 2 binaries (17 skipped)
        FAIL [   0.004s] rocks-lib rocks::dependency::tests::parse_dependency
test result: FAILED. 0 passed; 1 failed; 0 ignored; 0 measured; 17 filtered out; finished in 0.00s
--- STDERR:              rocks-lib rocks::dependency::tests::parse_dependency ---
thread 'rocks::dependency::tests::parse_dependency' panicked at rocks-lib/src/rocks/dependency.rs:86:64:
called ` + "`" + `Result::unwrap()` + "`" + ` on an ` + "`" + `Err` + "`" + ` value: unexpected end of input while parsing min or version number
Location:
    rocks-lib/src/rocks/dependency.rs:62:22
note: run with ` + "`" + `RUST_BACKTRACE=1` + "`" + ` environment variable to display a backtrace

            `

func TestParseDiagnosticsNoMatchedTestItem(t *testing.T) {
	filePaths := []string{"/home/example/projects/rocks-lib/src/rocks/dependency.rs"}

	result := cargotest.ParseDiagnostics(fixture, "/home/example/projects", filePaths, nil)
	require.Len(t, result.Data, 1)
	assert.Equal(t, filePaths[0], result.Data[0].Path)
	require.Len(t, result.Data[0].Diagnostics, 1)

	diag := result.Data[0].Diagnostics[0]
	assert.Equal(t, uint32(85), diag.Range.Start.Line)
	assert.Equal(t, uint32(63), diag.Range.Start.Character)
	assert.Contains(t, diag.Message, "called `Result::unwrap()` on an `Err` value")
}
