package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cenkalti/backoff/v5"

	protocol "github.com/wharflab/testingls/internal/lsp/protocol"
	"github.com/wharflab/testingls/internal/spec"
	"github.com/wharflab/testingls/internal/workspace"
)

// projectFiles lists the files under baseDir selected by an adapter's
// include/exclude glob configuration, ported from server.rs's
// project_files (glob crate include scan + exclude Pattern::matches).
// An empty include list matches nothing here (unlike workspace.MatchesGlobs,
// where empty-include means "everything") because without at least one
// include pattern there is no base glob to walk.
func projectFiles(baseDir string, include, exclude []string) []string {
	fsys := os.DirFS(baseDir)
	seen := map[string]bool{}
	var result []string
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !workspace.MatchesGlobs(m, nil, exclude) {
				continue
			}
			if seen[m] {
				continue
			}
			seen[m] = true
			result = append(result, baseDir+string(os.PathSeparator)+m)
		}
	}
	sort.Strings(result)
	return result
}

// sortedAdapterIds returns the configured adapter ids in a deterministic
// order, since map iteration order would otherwise make cache refresh
// (and the notification it sends) non-reproducible between runs.
func (s *Server) sortedAdapterIds() []spec.AdapterId {
	ids := make([]spec.AdapterId, 0, len(s.adapterCommand))
	for id := range s.adapterCommand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// refreshWorkspaceRootCache re-runs detect-workspace for every
// configured adapter and replaces the cache wholesale, then notifies the
// client via the custom $/detectedWorkspace notification.
func (s *Server) refreshWorkspaceRootCache(ctx context.Context) error {
	var cache []spec.WorkspaceAnalysis

	for _, id := range s.sortedAdapterIds() {
		for _, adapter := range s.adapterCommand[id] {
			files := projectFiles(s.projectDir, adapter.Include, adapter.Exclude)
			if len(files) == 0 {
				continue
			}

			var result spec.DetectWorkspaceResult
			if adapter.WorkspaceDir != "" {
				// An explicit workspace dir skips detection entirely.
				result = spec.DetectWorkspaceResult{Data: map[string][]string{adapter.WorkspaceDir: files}}
			} else {
				var err error
				result, err = s.detectWorkspaceRoot(ctx, adapter, files, true)
				if err != nil {
					return fmt.Errorf("lspserver: detect-workspace for %s: %w", id, err)
				}
			}

			cache = append(cache, spec.WorkspaceAnalysis{Adapter: id, Config: adapter, Workspaces: result})
		}
	}

	s.cacheMu.Lock()
	s.workspaceCache = cache
	s.cacheMu.Unlock()

	return s.sendDetectedWorkspace(ctx, cache)
}

// detectWorkspaceRoot spawns the adapter's detect-workspace
// subcommand. When firstAttemptRetried is true the call is retried with
// exponential backoff, up to 3 tries in all; when false it runs once.
// refreshWorkspaceRootCache always passes true, so every refresh retries.
// Any error is retried alike: a spawn failure (including a missing
// executable) and an undecodable output are not told apart.
func (s *Server) detectWorkspaceRoot(ctx context.Context, adapter spec.AdapterConfiguration, files []string, firstAttemptRetried bool) (spec.DetectWorkspaceResult, error) {
	args := []string{"detect-workspace"}
	for _, f := range files {
		args = append(args, "--file-paths", f)
	}
	args = append(args, "--")
	args = append(args, adapter.ExtraArgs...)

	run := func() (spec.DetectWorkspaceResult, error) {
		stdout, _, err := s.runAdapter(ctx, adapter, args)
		if err != nil {
			return spec.DetectWorkspaceResult{}, err
		}
		var result spec.DetectWorkspaceResult
		if err := json.Unmarshal(stdout, &result); err != nil {
			return spec.DetectWorkspaceResult{}, fmt.Errorf("decode detect-workspace output: %w", err)
		}
		return result, nil
	}

	if !firstAttemptRetried {
		return run()
	}

	return backoff.Retry(ctx, run,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
}

// sendDetectedWorkspace emits the custom $/detectedWorkspace
// notification with the full, flattened root->files mapping across
// every configured adapter.
func (s *Server) sendDetectedWorkspace(ctx context.Context, cache []spec.WorkspaceAnalysis) error {
	if s.conn == nil {
		return nil
	}
	roots := map[string][]string{}
	for _, wa := range cache {
		for root, files := range wa.Workspaces.Data {
			roots[root] = append(roots[root], files...)
		}
	}
	return lspNotify(ctx, s.conn, string(protocol.MethodDetectedWorkspace), protocol.DetectedWorkspaceParams{Roots: roots})
}

// runAdapter spawns adapter.Path with args in the server's project
// directory (when one is set), merging adapter.Env over the server's own
// environment, and returns its captured stdout/stderr.
// A spawn failure (executable missing or unrunnable) is returned as an
// error distinct from a non-zero exit with output, matching spec.md's
// "adapter spawn failure" error kind.
func (s *Server) runAdapter(ctx context.Context, adapter spec.AdapterConfiguration, args []string) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, adapter.Path, args...)
	if s.projectDir != "" {
		cmd.Dir = s.projectDir
	}
	if len(adapter.Env) > 0 {
		env := os.Environ()
		for k, v := range adapter.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = []byte(outBuf.String())
	stderr = []byte(errBuf.String())

	// A non-zero exit (including cargo-nextest's 100, "tests failed") is
	// not a spawn failure: stdout may still carry valid result JSON, and
	// stderr content (not the exit code) is what the caller surfaces as
	// a non-fatal warning. Only an error that never produced an
	// ExitError at all (binary missing, not executable, ...) is a spawn
	// failure.
	var exitErr *exec.ExitError
	if runErr != nil && !errorsAsExitError(runErr, &exitErr) {
		return stdout, stderr, fmt.Errorf("lspserver: spawn %s: %w", adapter.Path, runErr)
	}
	return stdout, stderr, nil
}

func errorsAsExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// withTimeout is a small helper for the fire-and-forget
// window/workDoneProgress/create call, which the server issues but does
// not meaningfully act on the client's response to.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
