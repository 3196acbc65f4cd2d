// Package nodetest implements the "node:test" runner: discovery of
// describe/test/it blocks (including the skip-options-object, async,
// and (t, done)-callback call shapes) and diagnostic parsing of
// node's --test-reporter=junit XML report via encoding/xml, since no
// dedicated XML library exists anywhere in this module's dependency
// graph.
package nodetest

import (
	"encoding/xml"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
	"github.com/wharflab/testingls/internal/workspace"
)

// DiscoverQuery matches describe/test/it blocks, including the
// skip-options-object, async-arrow, and two-parameter ((t, done)) call
// shapes, ported from neotest-jest's Lua query.
const DiscoverQuery = `
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

; -- Tests --
((call_expression
  function: (identifier) @func_name (#any-of? @func_name "test" "it")
  arguments: (arguments (string (string_fragment) @test.name) [(arrow_function) (function_expression)])
)) @test.definition
((call_expression
  function: (identifier) @func_name (#any-of? @func_name "test" "it")
  arguments: (arguments
    (string (string_fragment) @test.name)
    (object)
    [(arrow_function) (function_expression)]
  )
)) @test.definition
((call_expression
  function: (identifier) @func_name (#any-of? @func_name "test" "it")
  arguments: (arguments
    (string (string_fragment) @test.name)
    (arrow_function (identifier) @async (#eq? @async "async"))
  )
)) @test.definition
((call_expression
  function: (identifier) @func_name (#any-of? @func_name "test" "it")
  arguments: (arguments
    (string (string_fragment) @test.name)
    [(arrow_function (formal_parameters (identifier) (identifier))) (function_expression)]
  )
)) @test.definition
`

var pathLineRe = regexp.MustCompile(`\(([^:]+):(\d+):(\d+)\)`)

type resultFromXML struct {
	message string
	path    string
	line    uint32
	col     uint32
}

func (r resultFromXML) toFileDiagnostics() spec.FileDiagnostics {
	return spec.FileDiagnostics{
		Path: r.path,
		Diagnostics: []spec.Diagnostic{{
			Range: spec.Range{
				Start: spec.Position{Line: r.line - 1, Character: r.col - 1},
				End:   spec.Position{Line: r.line - 1, Character: spec.MaxCharLength},
			},
			Message:  r.message,
			Severity: spec.SeverityError,
		}},
	}
}

// resultFromCharacters scans a single <failure> text node for the
// "(/path/to/file:line:col)" stack-frame suffix, keeping only matches
// against one of targetFilePaths.
func resultFromCharacters(errorText string, targetFilePaths []string) (resultFromXML, bool) {
	for _, line := range strings.Split(errorText, "\n") {
		m := pathLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		filePath := m[1]
		found := false
		for _, p := range targetFilePaths {
			if p == filePath {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		lnum, _ := strconv.ParseUint(m[2], 10, 32)
		col, _ := strconv.ParseUint(m[3], 10, 32)
		return resultFromXML{
			message: strings.TrimPrefix(errorText, "\n"),
			path:    filePath,
			line:    uint32(lnum),
			col:     uint32(col),
		}, true
	}
	return resultFromXML{}, false
}

// resultFromXMLReport streams node's JUnit report, collecting the text
// of every <failure>...</failure> element.
func resultFromXMLReport(report string, targetFilePaths []string) []resultFromXML {
	decoder := xml.NewDecoder(strings.NewReader(report))
	var results []resultFromXML
	depth := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if strings.HasPrefix(t.Name.Local, "failure") {
				depth++
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				if r, ok := resultFromCharacters(string(t), targetFilePaths); ok {
					results = append(results, r)
				}
			}
		}
	}
	return results
}

// Discover scans filePath for node:test describe/test/it blocks.
func Discover(filePath string) ([]spec.TestItem, error) {
	return discover.WithTreeSitter(filePath, discover.JavaScript(), DiscoverQuery)
}

// ParseDiagnostics turns a `node --test --test-reporter junit` XML
// report into diagnostics, one per <failure> stack frame matching a
// file in filePaths.
func ParseDiagnostics(report string, filePaths []string) spec.RunFileTestResult {
	results := resultFromXMLReport(report, filePaths)
	data := make([]spec.FileDiagnostics, 0, len(results))
	for _, r := range results {
		data = append(data, r.toFileDiagnostics())
	}
	return spec.RunFileTestResult{Data: data}
}

var markerFiles = []string{"package.json"}

// Runner implements runner.Runner for `node --test`.
type Runner struct{}

func (Runner) TestKind() string      { return "node-test" }
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

func (Runner) RunFileTest(filePaths []string, workspaceDir, _ string, extra []string) (spec.RunFileTestResult, error) {
	if len(filePaths) == 0 {
		return spec.RunFileTestResult{}, nil
	}

	args := append([]string{"--test", "--test-reporter", "junit"}, extra...)
	args = append(args, filePaths...)
	cmd := exec.Command("node", args...)
	cmd.Dir = workspaceDir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()

	if stdout.Len() == 0 && stderr.Len() > 0 {
		return spec.RunFileTestResult{}, fmt.Errorf("nodetest: %s", stderr.String())
	}

	return ParseDiagnostics(stdout.String(), filePaths), nil
}

var _ runner.Runner = Runner{}

// DetectWorkspaces uses the shared generic detector with node:test's
// marker files.
func DetectWorkspaces(filePaths []string) spec.DetectWorkspaceResult {
	return workspace.DetectWorkspacesFromFileList(filePaths, markerFiles)
}
