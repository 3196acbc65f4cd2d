// Package runner defines the common Runner interface every test-kind
// adapter implements, and a registry mapping --test-kind= names to
// registered implementations.
//
// The registry shape mirrors the teacher's rule registry: a
// mutex-protected map behind a small set of package-level functions over
// one global default instance, so the adapter binary's main package never
// has to thread a registry value through its command tree by hand.
package runner

import (
	"sort"
	"sync"

	"github.com/wharflab/testingls/internal/spec"
)

// Runner implements the three adapter operations for one test
// framework. Every method takes the list of file paths named on the
// adapter's command line (after workspace-root detection / glob
// filtering has already happened server-side) plus the raw --
// passthrough args the adapter configuration forwarded.
type Runner interface {
	// TestKind returns this runner's --test-kind= name, e.g. "go-test",
	// "cargo-test".
	TestKind() string

	// MarkerFiles lists the project-root marker filenames this
	// framework recognizes (go.mod, Cargo.toml, ...), used by
	// detect-workspace.
	MarkerFiles() []string

	// Discover scans each file for TestItems.
	Discover(filePaths []string, extra []string) (spec.DiscoverResult, error)

	// RunFileTest executes the framework's test runner over filePaths
	// from workspace (the server-resolved workspace root, used both as
	// the subprocess's working directory and to resolve diagnostic paths)
	// and parses its output into diagnostics. logDir is where a runner
	// that shells out to a reporter-file-based test tool (jest, vitest,
	// phpunit) writes that report, instead of a throwaway temp dir.
	RunFileTest(filePaths []string, workspace, logDir string, extra []string) (spec.RunFileTestResult, error)
}

// Registry manages runner registration and lookup by test-kind name.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runners: make(map[string]Runner)}
}

// Register adds a runner to the registry, keyed by its TestKind().
// Panics if a runner with the same test-kind is already registered.
func (r *Registry) Register(rn Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := rn.TestKind()
	if _, exists := r.runners[kind]; exists {
		panic("runner: test-kind " + kind + " already registered")
	}
	r.runners[kind] = rn
}

// Get retrieves a runner by test-kind name, or nil if none is registered.
func (r *Registry) Get(testKind string) Runner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runners[testKind]
}

// TestKinds returns all registered test-kind names, sorted.
func (r *Registry) TestKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.runners))
	for k := range r.runners {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a runner to the default registry.
func Register(rn Runner) {
	defaultRegistry.Register(rn)
}

// Get retrieves a runner from the default registry.
func Get(testKind string) Runner {
	return defaultRegistry.Get(testKind)
}

// TestKinds returns all test-kind names registered in the default
// registry.
func TestKinds() []string {
	return defaultRegistry.TestKinds()
}
