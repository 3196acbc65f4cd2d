// Package cargonextest implements the "cargo-nextest" runner. It shares
// cargo-test's discovery query and panic-line diagnostic parser — nextest
// prints the same "thread '...' panicked at file:line:col:" format as
// plain `cargo test`, just with a different runner banner around it —
// and differs only in the command line used to invoke the test binary.
package cargonextest

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/runner/cargotest"
	"github.com/wharflab/testingls/internal/spec"
)

// Runner implements runner.Runner for `cargo nextest run`.
type Runner struct{}

func (Runner) TestKind() string      { return "cargo-nextest" }
func (Runner) MarkerFiles() []string { return []string{"Cargo.toml"} }

func (Runner) Discover(filePaths []string, extra []string) (spec.DiscoverResult, error) {
	return cargotest.Runner{}.Discover(filePaths, extra)
}

func (Runner) RunFileTest(filePaths []string, workspace, _ string, extra []string) (spec.RunFileTestResult, error) {
	if len(filePaths) == 0 {
		return spec.RunFileTestResult{}, nil
	}

	var allTests []spec.TestItem
	var testNames []string
	for _, path := range filePaths {
		items, err := cargotest.Discover(path)
		if err != nil {
			continue
		}
		allTests = append(allTests, items...)
		for _, it := range items {
			testNames = append(testNames, it.Id)
		}
	}

	args := append([]string{"nextest", "run"}, extra...)
	args = append(args, testNames...)
	cmd := exec.Command("cargo", args...)
	cmd.Dir = workspace

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()

	if stdout.Len() == 0 && stderr.Len() == 0 {
		return spec.RunFileTestResult{}, nil
	}
	if stdout.Len() == 0 && stderr.Len() > 0 {
		return spec.RunFileTestResult{}, fmt.Errorf("cargonextest: %s", stderr.String())
	}

	// nextest prints the panic trace to stderr rather than stdout; scan
	// whichever stream has content.
	combined := stdout.String() + "\n" + stderr.String()
	result := cargotest.ParseDiagnostics(combined, workspace, filePaths, allTests)
	return result, nil
}

var _ runner.Runner = Runner{}
