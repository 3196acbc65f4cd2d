// Package cargotest implements the "cargo-test" runner: discovery of
// #[test]/#[rstest]/#[case]-attributed functions nested in mod blocks,
// and diagnostic parsing of `cargo test`'s human-readable panic output.
package cargotest

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/pathutil"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
)

// DiscoverQuery matches #[test]/#[rstest]/#[case]-attributed functions,
// allowing any number of other attributes/line comments in between, and
// composes namespace ids from enclosing mod blocks.
const DiscoverQuery = `
(
  (attribute_item
    [
      (attribute
        (identifier) @macro_name
      )
      (attribute
        [
	  (identifier) @macro_name
	  (scoped_identifier
	    name: (identifier) @macro_name
          )
        ]
      )
    ]
  )
  [
  (attribute_item
    (attribute
      (identifier)
    )
  )
  (line_comment)
  ]*
  .
  (function_item
    name: (identifier) @test.name
  ) @test.definition
  (#any-of? @macro_name "test" "rstest" "case")

)
(mod_item name: (identifier) @namespace.name)? @namespace.definition
`

var panicRe = regexp.MustCompile(`thread '([^']+)' panicked at ([^:]+):(\d+):(\d+):`)

// Discover scans filePath for Rust test functions.
func Discover(filePath string) ([]spec.TestItem, error) {
	return discover.WithTreeSitter(filePath, discover.Rust(), DiscoverQuery)
}

// ParseDiagnostics scans cargo test's combined stdout for
// "thread '...' panicked at file:line:col:" lines, attributing each to
// the file it names (when that file is one of filePaths) and to the
// matching TestItem from testItems (by id, once the file-stem prefix is
// stripped from the panicking thread name). When a TestItem match is
// found, a second diagnostic is emitted at the test's own start
// position so the failure is visible without scrolling to the panic
// site.
func ParseDiagnostics(contents, workspaceRoot string, filePaths []string, testItems []spec.TestItem) spec.RunFileTestResult {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	lines := strings.Split(contents, "\n")

	resultMap := map[string][]spec.Diagnostic{}

	for i, line := range lines {
		m := panicRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		idWithFile := m[1]
		relativeFilePath := m[2]
		fileStem := strings.TrimSuffix(filepath.Base(relativeFilePath), filepath.Ext(relativeFilePath))
		executedTestID := strings.ReplaceAll(idWithFile, fileStem+"::", "")

		candidate := pathutil.Resolve(workspaceRoot, relativeFilePath)
		var filePath string
		for _, p := range filePaths {
			if strings.Contains(p, candidate) {
				filePath = p
				break
			}
		}
		if filePath == "" {
			continue
		}

		var matched *spec.TestItem
		for idx := range testItems {
			if testItems[idx].Id == executedTestID {
				matched = &testItems[idx]
				break
			}
		}

		lnum64, _ := strconv.ParseUint(m[3], 10, 32)
		col64, _ := strconv.ParseUint(m[4], 10, 32)
		lnum := uint32(lnum64) - 1
		col := uint32(col64) - 1

		var message strings.Builder
		for j := i + 1; j < len(lines) && lines[j] != ""; j++ {
			message.WriteString(lines[j])
			message.WriteString("\n")
		}

		diagnostic := spec.Diagnostic{
			Range: spec.Range{
				Start: spec.Position{Line: lnum, Character: col},
				End:   spec.Position{Line: lnum, Character: spec.MaxCharLength},
			},
			Message:  message.String(),
			Severity: spec.SeverityError,
		}

		if matched != nil {
			crossRefMessage := fmt.Sprintf("`%s` failed at %s:%d:%d\nMessage:\n%s",
				matched.Name, relativeFilePath, lnum, col, message.String())
			resultMap[filePath] = append(resultMap[filePath], spec.Diagnostic{
				Range: spec.Range{
					Start: matched.StartPosition.Start,
					End:   spec.Position{Line: matched.StartPosition.Start.Line, Character: spec.MaxCharLength},
				},
				Message:  crossRefMessage,
				Severity: spec.SeverityError,
			})
		}

		resultMap[filePath] = append(resultMap[filePath], diagnostic)
	}

	data := make([]spec.FileDiagnostics, 0, len(resultMap))
	for path, diags := range resultMap {
		data = append(data, spec.FileDiagnostics{Path: path, Diagnostics: diags})
	}
	return spec.RunFileTestResult{Data: data}
}

// Runner implements runner.Runner for `cargo test`.
type Runner struct{}

func (Runner) TestKind() string      { return "cargo-test" }
func (Runner) MarkerFiles() []string { return []string{"Cargo.toml"} }

func (Runner) Discover(filePaths []string, _ []string) (spec.DiscoverResult, error) {
	var data []spec.FoundFileTests
	for _, path := range filePaths {
		tests, err := Discover(path)
		if err != nil {
			return spec.DiscoverResult{}, err
		}
		if len(tests) == 0 {
			continue
		}
		data = append(data, spec.FoundFileTests{Path: path, Tests: tests})
	}
	return spec.DiscoverResult{Data: data}, nil
}

func (r Runner) RunFileTest(filePaths []string, workspace, _ string, extra []string) (spec.RunFileTestResult, error) {
	if len(filePaths) == 0 {
		return spec.RunFileTestResult{}, nil
	}

	var allTests []spec.TestItem
	var testNames []string
	for _, path := range filePaths {
		items, err := Discover(path)
		if err != nil {
			continue
		}
		allTests = append(allTests, items...)
		for _, it := range items {
			testNames = append(testNames, it.Id)
		}
	}

	args := append([]string{"test"}, extra...)
	args = append(args, "--")
	args = append(args, testNames...)
	cmd := exec.Command("cargo", args...)
	cmd.Dir = workspace

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()

	if stdout.Len() == 0 && stderr.Len() > 0 {
		return spec.RunFileTestResult{}, fmt.Errorf("cargotest: %s", stderr.String())
	}

	result := ParseDiagnostics(stdout.String(), workspace, filePaths, allTests)
	if stderr.Len() > 0 {
		result.Messages = append(result.Messages, spec.ShowMessageParams{Type: 2, Message: stderr.String()})
	}
	return result, nil
}

var _ runner.Runner = Runner{}
