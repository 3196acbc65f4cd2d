// Package jest implements the "jest" runner. Unlike the other JavaScript
// runners it does not use the shared internal/discover stack-based
// namespace tracker: jest's own discoverer keeps a single flat namespace
// name that is overwritten (last-seen-wins) rather than pushed/popped,
// and joins namespace/test with a single colon instead of "::". Its
// workspace detector is likewise its own variant: paths under
// node_modules/ are excluded first, and candidates are visited
// longest-path-first rather than shortest-path-first.
package jest

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
)

var ansiRe = regexp.MustCompile(`\x1B\[([0-9]{1,2}(;[0-9]{1,2})*)?[m|K]`)

func cleanANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

const discoverQuery = `
; -- Namespaces --
((call_expression
  function: (identifier) @func_name (#eq? @func_name "describe")
  arguments: (arguments (string (string_fragment) @namespace.name) (arrow_function))
)) @namespace.definition
((call_expression
  function: (identifier) @func_name (#eq? @func_name "describe")
  arguments: (arguments (string (string_fragment) @namespace.name) (function_expression))
)) @namespace.definition
((call_expression
  function: (member_expression
    object: (identifier) @func_name (#any-of? @func_name "describe")
  )
  arguments: (arguments (string (string_fragment) @namespace.name) (arrow_function))
)) @namespace.definition
((call_expression
  function: (member_expression
    object: (identifier) @func_name (#any-of? @func_name "describe")
  )
  arguments: (arguments (string (string_fragment) @namespace.name) (function_expression))
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
  function: (call_expression
    function: (member_expression
      object: (identifier) @func_name (#any-of? @func_name "describe")
    )
  )
  arguments: (arguments (string (string_fragment) @namespace.name) (function_expression))
)) @namespace.definition

; -- Tests --
((call_expression
  function: (identifier) @func_name (#any-of? @func_name "it" "test")
  arguments: (arguments (string (string_fragment) @test.name) [(arrow_function) (function_expression)])
)) @test.definition
((call_expression
  function: (member_expression
    object: (identifier) @func_name (#any-of? @func_name "test" "it")
  )
  arguments: (arguments (string (string_fragment) @test.name) [(arrow_function) (function_expression)])
)) @test.definition
((call_expression
  function: (call_expression
    function: (member_expression
      object: (identifier) @func_name (#any-of? @func_name "it" "test")
      property: (property_identifier) @each_property (#eq? @each_property "each")
    )
  )
  arguments: (arguments (string (string_fragment) @test.name) [(arrow_function) (function_expression)])
)) @test.definition
`

// Discover scans filePath for jest test/describe blocks. It keeps a flat
// namespace string overwritten on each namespace.name capture rather
// than the shared stack the other JS runners use, and joins namespace
// and test name with ":" rather than "::", matching the original
// adapter's jest-specific discoverer.
func Discover(filePath string) ([]spec.TestItem, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	language := discover.JavaScript()
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("jest: set language: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("jest: failed to parse %s", filePath)
	}
	defer tree.Close()

	q, qerr := tree_sitter.NewQuery(language, discoverQuery)
	if qerr != nil {
		return nil, fmt.Errorf("jest: query: %w", qerr)
	}
	defer q.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(q, tree.RootNode(), source)

	var testItems []spec.TestItem
	var namespaceName string
	for {
		m := matches.Next()
		if m == nil {
			break
		}

		var testStartRow, testStartCol, testEndRow, testEndCol uint32

		for _, capture := range m.Captures {
			name := q.CaptureNames()[capture.Index]
			node := capture.Node
			value := string(node.Utf8Text(source))

			switch name {
			case "namespace.name":
				namespaceName = value
			case "test.definition":
				testStartRow, testStartCol = node.StartPosition().Row, node.StartPosition().Column
				testEndRow, testEndCol = node.EndPosition().Row, node.EndPosition().Column
			case "test.name":
				id := fmt.Sprintf("%s:%s", namespaceName, value)
				testItems = append(testItems, spec.TestItem{
					Id:   id,
					Name: value,
					Path: filePath,
					StartPosition: spec.Range{
						Start: spec.Position{Line: testStartRow, Character: testStartCol},
						End:   spec.Position{Line: testStartRow, Character: spec.MaxCharLength},
					},
					EndPosition: spec.Range{
						Start: spec.Position{Line: testEndRow, Character: 0},
						End:   spec.Position{Line: testEndRow, Character: testEndCol},
					},
				})
				testStartRow, testStartCol, testEndRow, testEndCol = 0, 0, 0, 0
			}
		}
	}

	return testItems, nil
}

type jestAssertionResult struct {
	Status   string `json:"status"`
	Location struct {
		Line   uint64 `json:"line"`
		Column uint64 `json:"column"`
	} `json:"location"`
	FailureMessages []string `json:"failureMessages"`
}

type jestTestResult struct {
	Name              string                `json:"name"`
	AssertionResults  []jestAssertionResult `json:"assertionResults"`
}

type jestOutput struct {
	TestResults []jestTestResult `json:"testResults"`
}

// ParseDiagnostics walks jest's aggregated --json report, keeping only
// failed assertions in files present in filePaths.
func ParseDiagnostics(testResult string, filePaths []string) (spec.RunFileTestResult, error) {
	var out jestOutput
	if err := json.Unmarshal([]byte(testResult), &out); err != nil {
		return spec.RunFileTestResult{}, fmt.Errorf("jest: parsing report: %w", err)
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
			column := uint32(assertion.Location.Column) - 1
			for _, msg := range assertion.FailureMessages {
				resultMap[fileResult.Name] = append(resultMap[fileResult.Name], spec.Diagnostic{
					Range: spec.Range{
						Start: spec.Position{Line: line, Character: column},
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

func detectWorkspaceFromFile(filePath string) (string, bool) {
	dir := filepath.Dir(filePath)
	for {
		if fileExists(filepath.Join(dir, "package.json")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DetectWorkspaces mirrors jest's own workspace-detection variant: paths
// under node_modules/ are dropped, candidates are visited longest-path
// first (rather than shortest-path-first as the generic detector does),
// and a file that falls under an already-known root is attached to that
// root with no upward package.json walk made for it.
func DetectWorkspaces(filePaths []string) spec.DetectWorkspaceResult {
	var filtered []string
	for _, p := range filePaths {
		if !strings.Contains(p, "node_modules/") {
			filtered = append(filtered, p)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return len(filtered[i]) > len(filtered[j])
	})

	resultMap := map[string][]string{}
	for _, filePath := range filtered {
		var existingRoot string
		for root := range resultMap {
			if strings.Contains(filePath, root) {
				existingRoot = root
				break
			}
		}
		if existingRoot != "" {
			resultMap[existingRoot] = append(resultMap[existingRoot], filePath)
			continue
		}
		if root, ok := detectWorkspaceFromFile(filePath); ok {
			resultMap[root] = append(resultMap[root], filePath)
		}
	}

	return spec.DetectWorkspaceResult{Data: resultMap}
}

// Runner implements runner.Runner for jest.
type Runner struct{}

func (Runner) TestKind() string      { return "jest" }
func (Runner) MarkerFiles() []string { return []string{"package.json"} }

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

func (Runner) RunFileTest(filePaths []string, workspace, logDir string, extra []string) (spec.RunFileTestResult, error) {
	if len(filePaths) == 0 {
		return spec.RunFileTestResult{}, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return spec.RunFileTestResult{}, err
	}
	outputFile := filepath.Join(logDir, "jest.json")

	args := append([]string{
		"--testLocationInResults", "--forceExit", "--no-coverage", "--verbose",
		"--json", "--outputFile", outputFile,
	}, extra...)
	cmd := exec.Command("jest", args...)
	cmd.Dir = workspace

	var stderr strings.Builder
	cmd.Stderr = &stderr
	_ = cmd.Run()

	contents, readErr := os.ReadFile(outputFile)
	if readErr != nil {
		if stderr.Len() > 0 {
			return spec.RunFileTestResult{}, fmt.Errorf("jest: %s", stderr.String())
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
