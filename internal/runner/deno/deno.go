// Package deno implements the "deno" runner: discovery of Deno.test and
// BDD describe/it calls, and diagnostic parsing of `deno test`'s
// ERRORS-block summary (its "=> file:line:col" pointer lines), which is
// a different shape from every other runner's machine-readable output.
package deno

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/pathutil"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
	"github.com/wharflab/testingls/internal/workspace"
)

// DiscoverQuery matches Deno.test calls and BDD describe/it blocks,
// ported from neotest-deno's Lua query.
const DiscoverQuery = `
;; Deno.test
(call_expression
	function: (member_expression) @func_name (#match? @func_name "^Deno.test$")
	arguments: [
		(arguments ((string) @test.name . (arrow_function)))
		(arguments . (function_expression name: (identifier) @test.name))
		(arguments . (object(pair
			key: (property_identifier) @key (#match? @key "^name$")
			value: (string) @test.name
		)))
		(arguments ((string) @test.name . (object) . (arrow_function)))
		(arguments (object) . (function_expression name: (identifier) @test.name))
	]
) @test.definition

;; BDD describe - nested
(call_expression
	function: (identifier) @func_name (#match? @func_name "^describe$")
	arguments: [
		(arguments ((string) @namespace.name . (arrow_function)))
		(arguments ((string) @namespace.name . (function_expression)))
	]
) @namespace.definition

;; BDD describe - flat
(variable_declarator
	name: (identifier) @namespace.id
	value: (call_expression
		function: (identifier) @func_name (#match? @func_name "^describe")
		arguments: [
			(arguments ((string) @namespace.name))
			(arguments (object (pair
				key: (property_identifier) @key (#match? @key "^name$")
				value: (string) @namespace.name
			)))
		]
	)
) @namespace.definition

;; BDD it
(call_expression
	function: (identifier) @func_name (#match? @func_name "^it$")
	arguments: [
		(arguments ((string) @test.name . (arrow_function)))
		(arguments ((string) @test.name . (function_expression)))
	]
) @test.definition
`

var positionRe = regexp.MustCompile(`=> (.*):(\d+):(\d+)`)

func positionFromLine(line string) (file string, lnum, col uint32, ok bool) {
	m := positionRe.FindStringSubmatch(line)
	if m == nil {
		return "", 0, 0, false
	}
	var lnum64, col64 uint64
	fmt.Sscanf(m[2], "%d", &lnum64)
	fmt.Sscanf(m[3], "%d", &col64)
	return m[1], uint32(lnum64), uint32(col64), true
}

// Discover scans filePath for Deno.test/describe/it calls using the
// generic shared tree-sitter discoverer, so describe names are composed
// into "::"-joined namespace ids.
func Discover(filePath string) ([]spec.TestItem, error) {
	return discover.WithTreeSitter(filePath, discover.JavaScript(), DiscoverQuery)
}

// ParseDiagnostics scans `deno test`'s console report for its ERRORS
// block, which lists failures as "=> file:line:col" pointer lines.
// Everything before the first line containing "ERRORS" is ignored.
func ParseDiagnostics(contents, workspaceRoot string, filePaths []string) spec.RunFileTestResult {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	lines := strings.Split(contents, "\n")

	resultMap := map[string][]spec.Diagnostic{}
	wantedSet := map[string]struct{}{}
	for _, p := range filePaths {
		wantedSet[p] = struct{}{}
	}

	var (
		fileName   string
		haveFile   bool
		lnum       uint32
		message    strings.Builder
		errorBlock bool
	)

	for _, line := range lines {
		if strings.Contains(line, "ERRORS") {
			errorBlock = true
			continue
		}
		if !errorBlock {
			continue
		}

		if detectedFile, detectedLine, _, ok := positionFromLine(line); ok {
			if haveFile {
				diagnostic := spec.Diagnostic{
					Range: spec.Range{
						Start: spec.Position{Line: lnum, Character: 1},
						End:   spec.Position{Line: lnum, Character: spec.MaxCharLength},
					},
					Message:  message.String(),
					Severity: spec.SeverityError,
				}
				filePath := pathutil.Resolve(workspaceRoot, fileName)
				if _, wanted := wantedSet[filePath]; wanted {
					resultMap[filePath] = append(resultMap[filePath], diagnostic)
				}
			}
			fileName = detectedFile
			lnum = detectedLine
			haveFile = true
			message.Reset()
		} else {
			message.WriteString(line)
		}
	}

	data := make([]spec.FileDiagnostics, 0, len(resultMap))
	for path, diags := range resultMap {
		data = append(data, spec.FileDiagnostics{Path: path, Diagnostics: diags})
	}
	return spec.RunFileTestResult{Data: data}
}

var markerFiles = []string{"deno.json", "deno.jsonc"}

// Runner implements runner.Runner for `deno test`.
type Runner struct{}

func (Runner) TestKind() string      { return "deno" }
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

	args := append([]string{"test"}, extra...)
	args = append(args, filePaths...)
	cmd := exec.Command("deno", args...)
	cmd.Dir = workspaceDir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()

	if stdout.Len() == 0 && stderr.Len() > 0 {
		return spec.RunFileTestResult{}, fmt.Errorf("deno: %s", stderr.String())
	}

	result := ParseDiagnostics(stdout.String(), workspaceDir, filePaths)
	if stderr.Len() > 0 {
		result.Messages = append(result.Messages, spec.ShowMessageParams{Type: 2, Message: stderr.String()})
	}
	return result, nil
}

var _ runner.Runner = Runner{}

// DetectWorkspaces uses the shared generic detector with deno's marker
// files.
func DetectWorkspaces(filePaths []string) spec.DetectWorkspaceResult {
	return workspace.DetectWorkspacesFromFileList(filePaths, markerFiles)
}
