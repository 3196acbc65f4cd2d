// Package adapterapp wires every framework runner into the shared
// registry and implements the adapter subprocess's argument convention:
// a `--test-kind=<kind>` sentinel buried anywhere in the pass-through
// "extra" argument list selects which runner handles the invocation,
// and is stripped out of extra before the runner sees it.
package adapterapp

import (
	"fmt"
	"strings"

	"github.com/wharflab/testingls/internal/runner"
	"github.com/wharflab/testingls/internal/runner/cargonextest"
	"github.com/wharflab/testingls/internal/runner/cargotest"
	"github.com/wharflab/testingls/internal/runner/deno"
	"github.com/wharflab/testingls/internal/runner/gotest"
	"github.com/wharflab/testingls/internal/runner/jest"
	"github.com/wharflab/testingls/internal/runner/nodetest"
	"github.com/wharflab/testingls/internal/runner/phpunit"
	"github.com/wharflab/testingls/internal/runner/vitest"
)

func init() {
	RegisterAll()
}

// RegisterAll registers every framework runner with the shared
// registry. Safe to call more than once: a test kind that is already
// registered is skipped rather than passed to runner.Register again.
func RegisterAll() {
	for _, r := range []runner.Runner{
		gotest.Runner{},
		cargotest.Runner{},
		cargonextest.Runner{},
		jest.Runner{},
		vitest.Runner{},
		deno.Runner{},
		nodetest.Runner{},
		phpunit.Runner{},
	} {
		if runner.Get(r.TestKind()) == nil {
			runner.Register(r)
		}
	}
}

// PickTestKind scans extra for the first "--test-kind=<kind>" entry,
// returning the remaining arguments (with that entry removed) and the
// registered runner for kind. An error is returned if no such entry is
// present or the kind is not registered.
func PickTestKind(extra []string) ([]string, runner.Runner, error) {
	index := -1
	kind := ""
	for i, arg := range extra {
		if strings.HasPrefix(arg, "--test-kind=") {
			index = i
			kind = strings.TrimPrefix(arg, "--test-kind=")
			break
		}
	}
	if index == -1 {
		return nil, nil, fmt.Errorf("adapterapp: no --test-kind= argument present")
	}

	remaining := make([]string, 0, len(extra)-1)
	remaining = append(remaining, extra[:index]...)
	remaining = append(remaining, extra[index+1:]...)

	r := runner.Get(kind)
	if r == nil {
		return nil, nil, fmt.Errorf("adapterapp: unknown test kind %q", kind)
	}
	return remaining, r, nil
}
