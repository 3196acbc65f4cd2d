// Package vitest implements the "vitest" runner. Unlike jest, it reuses
// the shared stack-based internal/discover namespace tracker and "::"
// joining, and the shared shortest-path-first internal/workspace
// detector — the two JS-family runners are genuinely not implemented
// the same way in the tool this was ported from, and this divergence is
// preserved rather than unified.
package vitest

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
	"github.com/wharflab/testingls/internal/workspace"
)

var ansiRe = regexp.MustCompile(`\x1B\[([0-9]{1,2}(;[0-9]{1,2})*)?[m|K]`)

func cleanANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// DiscoverQuery matches describe/it/test blocks, ported from
// neotest-vitest's Lua query.
const DiscoverQuery = `
((call_expression
  function: (identifier) @func_name (#eq? @func_name "describe")
  arguments: (arguments (string (string_fragment) @namespace.name) (arrow_function))
)) @namespace.definition
((call_expression
  function: (member_expression
    object: (identifier) @func_name (#any-of? @func_name "describe")
  )
  arguments: (arguments (string (string_fragment) @namespace.name) (arrow_function))
)) @namespace.definition
((call_expression
  function: (call_expression
    function: (member_expression
      object: (identifier) @func_name (#any-of? @func_name "describe")
    )
  )
  arguments: (arguments (string (string_fragment) @namespace.name) (arrow_function))
)) @namespace.definition

((call_expression
  function: (identifier) @func_name (#any-of? @func_name "it" "test")
  arguments: (arguments (string (string_fragment) @test.name) (arrow_function))
)) @test.definition
((call_expression
  function: (member_expression
    object: (identifier) @func_name (#any-of? @func_name "test" "it")
  )
  arguments: (arguments (string (string_fragment) @test.name) (arrow_function))
)) @test.definition
((call_expression
  function: (call_expression
    function: (member_expression
      object: (identifier) @func_name (#any-of? @func_name "it" "test")
    )
  )
  arguments: (arguments (string (string_fragment) @test.name) (arrow_function))
)) @test.definition
`

var markerFiles = []string{
	"package.json", "vitest.config.ts", "vitest.config.js",
	"vite.config.ts", "vite.config.js", "vitest.config.mts",
	"vitest.config.mjs", "vite.config.mts", "vite.config.mjs",
}

// Discover scans filePath for vitest test/describe blocks.
func Discover(filePath string) ([]spec.TestItem, error) {
	return discover.WithTreeSitter(filePath, discover.JavaScript(), DiscoverQuery)
}

type vitestAssertionResult struct {
	Status   string `json:"status"`
	Location struct {
		Line uint64 `json:"line"`
	} `json:"location"`
	FailureMessages []string `json:"failureMessages"`
}

type vitestTestResult struct {
	Name             string                  `json:"name"`
	AssertionResults []vitestAssertionResult `json:"assertionResults"`
}

type vitestOutput struct {
	TestResults []vitestTestResult `json:"testResults"`
}

// ParseDiagnostics walks vitest's --reporter=json output. The column is
// hardcoded to 0 rather than read from the report: vitest's JSON
// reporter does not currently report an accurate column for failed
// assertions (see vitest-dev/vitest discussion #5350), so only the row
// from the parsed location is trusted.
func ParseDiagnostics(testResult string, filePaths []string) (spec.RunFileTestResult, error) {
	var out vitestOutput
	if err := json.Unmarshal([]byte(testResult), &out); err != nil {
		return spec.RunFileTestResult{}, fmt.Errorf("vitest: parsing report: %w", err)
	}

	resultMap := map[string][]spec.Diagnostic{}
	for _, fileResult := range out.TestResults {
		matched := false
		for _, p := range filePaths {
			if strings.Contains(p, fileResult.Name) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		for _, assertion := range fileResult.AssertionResults {
			if assertion.Status != "failed" {
				continue
			}
			line := uint32(assertion.Location.Line) - 1
			for _, msg := range assertion.FailureMessages {
				resultMap[fileResult.Name] = append(resultMap[fileResult.Name], spec.Diagnostic{
					Range: spec.Range{
						Start: spec.Position{Line: line, Character: 0},
						End:   spec.Position{Line: line, Character: spec.MaxCharLength},
					},
					Message:  cleanANSI(msg),
					Severity: spec.SeverityError,
				})
			}
		}
	}

	data := make([]spec.FileDiagnostics, 0, len(resultMap))
	for path, diags := range resultMap {
		data = append(data, spec.FileDiagnostics{Path: path, Diagnostics: diags})
	}
	return spec.RunFileTestResult{Data: data}, nil
}

// Runner implements runner.Runner for vitest.
type Runner struct{}

func (Runner) TestKind() string      { return "vitest" }
func (Runner) MarkerFiles() []string { return markerFiles }

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

func (Runner) RunFileTest(filePaths []string, workspaceDir, logDir string, extra []string) (spec.RunFileTestResult, error) {
	if len(filePaths) == 0 {
		return spec.RunFileTestResult{}, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return spec.RunFileTestResult{}, err
	}
	outputFile := filepath.Join(logDir, "vitest.json")

	args := append([]string{"--watch=false", "--reporter=json", "--outputFile=" + outputFile}, extra...)
	cmd := exec.Command("vitest", args...)
	cmd.Dir = workspaceDir

	var stderr strings.Builder
	cmd.Stderr = &stderr
	_ = cmd.Run()

	contents, readErr := os.ReadFile(outputFile)
	if readErr != nil {
		if stderr.Len() > 0 {
			return spec.RunFileTestResult{}, fmt.Errorf("vitest: %s", stderr.String())
		}
		return spec.RunFileTestResult{}, readErr
	}

	result, err := ParseDiagnostics(string(contents), filePaths)
	if err != nil {
		return spec.RunFileTestResult{}, err
	}
	if stderr.Len() > 0 {
		result.Messages = append(result.Messages, spec.ShowMessageParams{Type: 2, Message: stderr.String()})
	}
	return result, nil
}

var _ runner.Runner = Runner{}

// DetectWorkspaces exposes the shared generic workspace detector with
// vitest's own marker-file set, for callers that discover workspaces
// independently of a single runner instance.
func DetectWorkspaces(filePaths []string) spec.DetectWorkspaceResult {
	return workspace.DetectWorkspacesFromFileList(filePaths, markerFiles)
}
