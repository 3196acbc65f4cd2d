package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	protocol "github.com/wharflab/testingls/internal/lsp/protocol"
	"github.com/wharflab/testingls/internal/spec"
)

// cacheSnapshot returns a copy of the current workspace cache slice
// header (the WorkspaceAnalysis values themselves are not mutated after
// being cached, so a shallow copy is enough to read outside the lock).
func (s *Server) cacheSnapshot() []spec.WorkspaceAnalysis {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return append([]spec.WorkspaceAnalysis(nil), s.workspaceCache...)
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}

// checkWorkspace refreshes the workspace-root cache, then checks every
// cached (adapter, root) pair, ported from server.rs's check_workspace.
func (s *Server) checkWorkspace(ctx context.Context) error {
	if err := s.refreshWorkspaceRootCache(ctx); err != nil {
		return err
	}
	for _, wa := range s.cacheSnapshot() {
		for root, paths := range wa.Workspaces.Data {
			if err := s.check(ctx, wa.Config, root, paths); err != nil {
				log.Printf("lspserver: check %s %s: %v", wa.Adapter, root, err)
			}
		}
	}
	return nil
}

// checkFile refreshes (if requested) then checks only the cached
// (adapter, root) pairs that have path attached, ported from
// server.rs's check_file.
func (s *Server) checkFile(ctx context.Context, uri string, refreshNeeded bool) error {
	path := uriToPath(uri)
	if refreshNeeded {
		if err := s.refreshWorkspaceRootCache(ctx); err != nil {
			return err
		}
	}
	for _, wa := range s.cacheSnapshot() {
		for root, paths := range wa.Workspaces.Data {
			if !containsPath(paths, path) {
				continue
			}
			if err := s.check(ctx, wa.Config, root, paths); err != nil {
				log.Printf("lspserver: check %s %s: %v", wa.Adapter, root, err)
			}
		}
	}
	return nil
}

// check runs run-file-test for one (adapter, workspace root, files)
// group, bracketed by a workDoneProgress Begin/End pair, and publishes
// whatever diagnostics result. Ported from server.rs's check.
func (s *Server) check(ctx context.Context, adapter spec.AdapterConfiguration, workspaceRoot string, paths []string) error {
	const progressToken = "testing-ls/start_testing"

	if s.conn != nil {
		createCtx, cancel := withTimeout(ctx, 2*time.Second)
		call := s.conn.Call(createCtx, string(protocol.MethodWorkDoneProgressCreate),
			protocol.WorkDoneProgressCreateParams{Token: protocol.ProgressToken{String: strPtr(progressToken)}})
		var discard any
		_ = call.Await(createCtx, &discard)
		cancel()

		_ = lspNotify(ctx, s.conn, string(protocol.MethodProgress), protocol.ProgressParams{
			Token: protocol.ProgressToken{String: strPtr(progressToken)},
			Value: protocol.WorkDoneProgressBegin{
				Kind:        "begin",
				Title:       "Testing by adapter: " + adapter.Path,
				Cancellable: boolPtr(false),
				Message:     strPtr(fmt.Sprintf("testing %d files ...", len(paths))),
			},
		})
	}

	byPath, messages, err := s.getDiagnostics(ctx, adapter, workspaceRoot, paths)
	if err != nil {
		return err
	}
	for _, m := range messages {
		_ = lspNotify(ctx, s.conn, string(protocol.MethodShowMessage), protocol.ShowMessageParams{
			Type:    protocol.MessageType(m.Type),
			Message: m.Message,
		})
	}
	for path, diags := range byPath {
		if err := s.sendDiagnostics(ctx, path, diags); err != nil {
			log.Printf("lspserver: publishDiagnostics for %s: %v", path, err)
		}
	}

	if s.conn != nil {
		_ = lspNotify(ctx, s.conn, string(protocol.MethodProgress), protocol.ProgressParams{
			Token: protocol.ProgressToken{String: strPtr(progressToken)},
			Value: protocol.WorkDoneProgressEnd{
				Kind:    "end",
				Message: strPtr(fmt.Sprintf("tested %d files", len(paths))),
			},
		})
	}
	return nil
}

// getDiagnostics spawns run-file-test and builds one diagnostics list per
// target path. Ported from server.rs's get_diagnostics: a non-empty
// stderr adds one placeholder WARNING diagnostic at (0,0)-(0,0) to every
// path in this invocation (in addition to, never instead of, whatever
// stdout parses to); a stdout parse failure leaves the paths with only
// the placeholder, if any.
//
// Unlike the original, which pushes the placeholder keyed by the raw
// path string and the parsed result keyed by a freshly built file://
// URI into the same list (two different key shapes for what is meant to
// be the same entry), this returns one path-keyed map; each path is
// converted to a URI exactly once, when sendDiagnostics publishes it.
func (s *Server) getDiagnostics(ctx context.Context, adapter spec.AdapterConfiguration, workspaceRoot string, paths []string) (map[string][]spec.Diagnostic, []spec.ShowMessageParams, error) {
	args := []string{"run-file-test", "--workspace", workspaceRoot}
	for _, p := range paths {
		args = append(args, "--file-paths", p)
	}
	args = append(args, "--")
	args = append(args, adapter.ExtraArgs...)

	stdout, stderr, err := s.runAdapter(ctx, adapter, args)
	if err != nil {
		return nil, []spec.ShowMessageParams{{Type: int(protocol.MessageTypeError), Message: err.Error()}}, nil
	}

	result := map[string][]spec.Diagnostic{}
	var messages []spec.ShowMessageParams

	// Every target path gets an entry up front, even an empty one: a
	// file that goes from failing to passing must still get its stale
	// diagnostics cleared by an empty publishDiagnostics, not silently
	// skipped because the adapter emitted no FileDiagnostics for it.
	for _, p := range paths {
		result[p] = nil
	}

	if len(stderr) > 0 {
		placeholder := spec.Diagnostic{
			Range: spec.Range{
				Start: spec.Position{Line: 0, Character: 0},
				End:   spec.Position{Line: 0, Character: 0},
			},
			Message:  "Cannot run test command: \n" + string(stderr),
			Severity: spec.SeverityWarning,
		}
		for _, p := range paths {
			result[p] = append(result[p], placeholder)
		}
	}

	var parsed spec.RunFileTestResult
	if jsonErr := json.Unmarshal(stdout, &parsed); jsonErr != nil {
		log.Printf("lspserver: parse run-file-test output from %s: %v", adapter.Path, jsonErr)
	} else {
		for _, targetPath := range paths {
			for _, fd := range parsed.Data {
				if fd.Path != targetPath {
					continue
				}
				result[targetPath] = append(result[targetPath], fd.Diagnostics...)
			}
		}
		messages = append(messages, parsed.Messages...)
	}

	return result, messages, nil
}

// discoverFile returns the tests found in the cached (adapter, root)
// group(s) that have uri's path attached, ported from server.rs's
// discover_file.
func (s *Server) discoverFile(ctx context.Context, uri string) (spec.DiscoverResult, error) {
	path := uriToPath(uri)
	var result spec.DiscoverResult
	for _, wa := range s.cacheSnapshot() {
		for _, paths := range wa.Workspaces.Data {
			if !containsPath(paths, path) {
				continue
			}
			discovered, err := s.discover(ctx, wa.Config, []string{path})
			if err != nil {
				return spec.DiscoverResult{}, err
			}
			result.Data = append(result.Data, discovered.Data...)
		}
	}
	return result, nil
}

// discover spawns the discover subcommand for paths, ported from
// server.rs's discover.
func (s *Server) discover(ctx context.Context, adapter spec.AdapterConfiguration, paths []string) (spec.DiscoverResult, error) {
	args := []string{"discover"}
	for _, p := range paths {
		args = append(args, "--file-paths", p)
	}
	args = append(args, "--")
	args = append(args, adapter.ExtraArgs...)

	stdout, _, err := s.runAdapter(ctx, adapter, args)
	if err != nil {
		return spec.DiscoverResult{}, err
	}
	var result spec.DiscoverResult
	if err := json.Unmarshal(stdout, &result); err != nil {
		return spec.DiscoverResult{}, fmt.Errorf("decode discover output: %w", err)
	}
	return result, nil
}

// sendDiagnostics publishes diagnostics for one file, ported from
// server.rs's send_diagnostics. An empty diags slice still publishes,
// clearing whatever was previously shown for path.
func (s *Server) sendDiagnostics(ctx context.Context, path string, diags []spec.Diagnostic) error {
	if s.conn == nil {
		return nil
	}
	lspDiags := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		sev := protocol.DiagnosticSeverity(d.Severity)
		lspDiags = append(lspDiags, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: d.Range.Start.Line, Character: d.Range.Start.Character},
				End:   protocol.Position{Line: d.Range.End.Line, Character: d.Range.End.Character},
			},
			Severity: &sev,
			Message:  d.Message,
		})
	}
	return lspNotify(ctx, s.conn, string(protocol.MethodPublishDiagnostics), protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(pathToURI(path)),
		Diagnostics: lspDiags,
	})
}

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
