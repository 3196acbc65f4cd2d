// Package phpunit implements the "phpunit" runner: discovery of test
// classes/methods (by name convention, #[Test] attribute, or @test
// doc-comment) and diagnostic parsing of phpunit's --log-junit XML
// report via encoding/xml.
package phpunit

import (
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wharflab/testingls/internal/discover"
	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/spec"
	"github.com/wharflab/testingls/internal/workspace"
)

// DiscoverQuery matches a "*Test"-named class as the namespace, and
// test methods named "test*", annotated with #[Test], or preceded by a
// "@test" doc-comment, ported from neotest-phpunit's Lua query.
const DiscoverQuery = `
((class_declaration
  name: (name) @namespace.name (#match? @namespace.name "Test")
)) @namespace.definition

((method_declaration
  (attribute_list
    (attribute_group
        (attribute) @test_attribute (#match? @test_attribute "Test")
    )
  )
  (
    (visibility_modifier)
    (name) @test.name
  ) @test.definition
 ))

((method_declaration
  (name) @test.name (#match? @test.name "test")
)) @test.definition

(((comment) @test_comment (#match? @test_comment "\\@test") .
  (method_declaration
    (name) @test.name
  ) @test.definition
))
`

var markerFiles = []string{"composer.json"}

// Discover scans filePath for phpunit test classes/methods.
func Discover(filePath string) ([]spec.TestItem, error) {
	return discover.WithTreeSitter(filePath, discover.PHP(), DiscoverQuery)
}

type resultFromXML struct {
	message string
	path    string
	line    uint32
}

func (r resultFromXML) toFileDiagnostics() spec.FileDiagnostics {
	return spec.FileDiagnostics{
		Path: r.path,
		Diagnostics: []spec.Diagnostic{{
			Range: spec.Range{
				Start: spec.Position{Line: r.line - 1, Character: 0},
				End:   spec.Position{Line: r.line - 1, Character: spec.MaxCharLength},
			},
			Message:  r.message,
			Severity: spec.SeverityError,
		}},
	}
}

// resultFromCharacters parses a <failure> text node shaped like:
//
//	Tests\CalculatorTest::testFail1
//	Failed asserting that 8 matches expected 1.
//
//	/path/to/CalculatorTest.php:28
func resultFromCharacters(characters string) (resultFromXML, bool) {
	parts := strings.SplitN(characters, "\n\n", 2)
	if len(parts) != 2 {
		return resultFromXML{}, false
	}
	message := strings.TrimSuffix(strings.TrimPrefix(parts[0], "Failed asserting that "), ".")
	location := strings.TrimSpace(parts[1])
	idx := strings.LastIndex(location, ":")
	if idx < 0 {
		return resultFromXML{}, false
	}
	path := location[:idx]
	line, err := strconv.ParseUint(location[idx+1:], 10, 32)
	if err != nil {
		return resultFromXML{}, false
	}
	return resultFromXML{message: message, path: path, line: uint32(line)}, true
}

// resultFromXMLReport streams a phpunit JUnit report, collecting the
// text of every <failure>...</failure> element.
func resultFromXMLReport(report string) []resultFromXML {
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
				if r, ok := resultFromCharacters(string(t)); ok {
					results = append(results, r)
				}
			}
		}
	}
	return results
}

// ParseDiagnostics turns a phpunit --log-junit XML report into
// diagnostics, one per <failure> element.
func ParseDiagnostics(report string) spec.RunFileTestResult {
	results := resultFromXMLReport(report)
	data := make([]spec.FileDiagnostics, 0, len(results))
	for _, r := range results {
		data = append(data, r.toFileDiagnostics())
	}
	return spec.RunFileTestResult{Data: data}
}

// Runner implements runner.Runner for phpunit.
type Runner struct{}

func (Runner) TestKind() string      { return "phpunit" }
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

	var testNames []string
	for _, path := range filePaths {
		items, err := Discover(path)
		if err != nil {
			continue
		}
		for _, it := range items {
			testNames = append(testNames, it.Id)
		}
	}
	filterPattern := "/" + strings.Join(testNames, "|") + "/"

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return spec.RunFileTestResult{}, err
	}
	logPath := filepath.Join(logDir, "phpunit.xml")

	args := append([]string{"--log-junit", logPath, "--filter", filterPattern}, extra...)
	args = append(args, filePaths...)
	cmd := exec.Command("phpunit", args...)
	cmd.Dir = workspaceDir

	var stderr strings.Builder
	cmd.Stderr = &stderr
	_ = cmd.Run()

	contents, readErr := os.ReadFile(logPath)
	if readErr != nil {
		if stderr.Len() > 0 {
			return spec.RunFileTestResult{}, fmt.Errorf("phpunit: %s", stderr.String())
		}
		return spec.RunFileTestResult{}, readErr
	}
	defer os.Remove(logPath)

	return ParseDiagnostics(string(contents)), nil
}

var _ runner.Runner = Runner{}

// DetectWorkspaces uses the shared generic detector with phpunit's
// marker files.
func DetectWorkspaces(filePaths []string) spec.DetectWorkspaceResult {
	return workspace.DetectWorkspacesFromFileList(filePaths, markerFiles)
}
