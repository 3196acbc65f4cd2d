// Package gotest implements the "go-test" test-kind runner: discovery via a
// tree-sitter query over Test*/Example* declarations and table-test
// idioms, and diagnostic parsing of `go test -json`'s newline-delimited
// action stream.
package gotest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/pathutil"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
)

// discoverQuery matches Test*/Example* function and method declarations,
// t.Run subtests, and the slice/map table-test idioms, all ported from
// neotest-go's Lua query.
const discoverQuery = `
((function_declaration
  name: (identifier) @test.name)
  (#match? @test.name "^(Test|Example)"))
  @test.definition

(method_declaration
  name: (field_identifier) @test.name
  (#match? @test.name "^(Test|Example)")) @test.definition

(call_expression
  function: (selector_expression
    field: (field_identifier) @test.method)
    (#match? @test.method "^Run$")
  arguments: (argument_list . (interpreted_string_literal) @test.name))
  @test.definition

(block
  (short_var_declaration
    left: (expression_list
      (identifier) @test.cases)
    right: (expression_list
      (composite_literal
        (literal_value
          (literal_element
            (literal_value
              (keyed_element
                (literal_element
                  (identifier) @test.field.name)
                (literal_element
                  (interpreted_string_literal) @test.name)))) @test.definition))))
  (for_statement
    (range_clause
      left: (expression_list
        (identifier) @test.case)
      right: (identifier) @test.cases1
        (#eq? @test.cases @test.cases1))
    body: (block
     (expression_statement
      (call_expression
        function: (selector_expression
          field: (field_identifier) @test.method)
          (#match? @test.method "^Run$")
        arguments: (argument_list
          (selector_expression
            operand: (identifier) @test.case1
            (#eq? @test.case @test.case1)
            field: (field_identifier) @test.field.name1
            (#eq? @test.field.name @test.field.name1))))))))

(block
  (short_var_declaration
    left: (expression_list
      (identifier) @test.cases)
    right: (expression_list
      (composite_literal
        (literal_value
          (keyed_element
            (literal_element
              (interpreted_string_literal) @test.name)
            (literal_element
              (literal_value) @test.definition))))))
  (for_statement
   (range_clause
      left: (expression_list
        ((identifier) @test.key.name)
        ((identifier) @test.case))
      right: (identifier) @test.cases1
        (#eq? @test.cases @test.cases1))
      body: (block
       (expression_statement
        (call_expression
          function: (selector_expression
            field: (field_identifier) @test.method)
            (#match? @test.method "^Run$")
            arguments: (argument_list
            ((identifier) @test.key.name1
            (#eq? @test.key.name @test.key.name1))))))))
`

// action is one go test -json "Action" field value.
type action string

const (
	actionRun    action = "run"
	actionOutput action = "output"
	actionFail   action = "fail"
	actionPass   action = "pass"
	actionStart  action = "start"
)

type testResultLine struct {
	Action  action  `json:"Action"`
	Package string  `json:"Package"`
	Test    *string `json:"Test"`
	Output  *string `json:"Output"`
}

var positionRe = regexp.MustCompile(`^\s{4}(.*_test\.go):(\d+):`)

func positionFromOutput(output string) (file string, line uint32, ok bool) {
	m := positionRe.FindStringSubmatch(output)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return m[1], uint32(n) - 1, true
}

func logFromOutput(output string) string {
	return strings.ReplaceAll(output, "        ", "")
}

// ParseDiagnostics turns a `go test -v -json` newline-delimited stream
// into diagnostics grouped by file, keeping only files present in
// filePaths. After each record whose Action differs from the previous
// record's has been processed, a diagnostic is emitted if a file/line
// has been detected since the last emission (including in that record
// itself), matching the original adapter's transition-triggered flush.
func ParseDiagnostics(contents, workspaceRoot string, filePaths []string) (spec.RunFileTestResult, error) {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")

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
		lastAction action
		haveLast   bool
	)

	scanner := bufio.NewScanner(strings.NewReader(contents))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var value testResultLine
		if err := json.Unmarshal([]byte(line), &value); err != nil {
			return spec.RunFileTestResult{}, fmt.Errorf("gotest: parsing test json line: %w", err)
		}

		switch value.Action {
		case actionRun:
			haveFile = false
			fileName = ""
			message.Reset()
		case actionOutput:
			output := ""
			if value.Output != nil {
				output = *value.Output
			}
			if detectedFile, detectedLine, ok := positionFromOutput(output); ok {
				fileName = detectedFile
				lnum = detectedLine
				haveFile = true
				message.Reset()
			} else {
				message.WriteString(logFromOutput(output))
			}
		}

		changed := !haveLast || lastAction != value.Action
		lastAction = value.Action
		haveLast = true
		if !changed {
			continue
		}

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
			haveFile = false
			fileName = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return spec.RunFileTestResult{}, err
	}

	data := make([]spec.FileDiagnostics, 0, len(resultMap))
	for path, diags := range resultMap {
		data = append(data, spec.FileDiagnostics{Path: path, Diagnostics: diags})
	}
	return spec.RunFileTestResult{Data: data}, nil
}

// Discover scans filePath for Go test declarations.
func Discover(filePath string) ([]spec.TestItem, error) {
	return discover.WithTreeSitter(filePath, discover.Go(), discoverQuery)
}

// Runner implements runner.Runner for `go test`.
type Runner struct{}

func (Runner) TestKind() string      { return "go-test" }
func (Runner) MarkerFiles() []string { return []string{"go.mod"} }

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

func (Runner) RunFileTest(filePaths []string, workspace, _ string, extra []string) (spec.RunFileTestResult, error) {
	if len(filePaths) == 0 {
		return spec.RunFileTestResult{}, nil
	}

	args := append([]string{"test", "-v", "-json", "-count=1", "-timeout=60s"}, extra...)
	cmd := exec.Command("go", args...)
	cmd.Dir = workspace

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()

	if stdout.Len() == 0 && stderr.Len() > 0 {
		return spec.RunFileTestResult{}, fmt.Errorf("gotest: %s", stderr.String())
	}

	result, err := ParseDiagnostics(stdout.String(), workspace, filePaths)
	if err != nil {
		return spec.RunFileTestResult{}, err
	}
	if stderr.Len() > 0 {
		result.Messages = append(result.Messages, spec.ShowMessageParams{
			Type:    2,
			Message: stderr.String(),
		})
	}
	return result, nil
}

var _ runner.Runner = Runner{}
