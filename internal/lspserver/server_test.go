package lspserver

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/jsonrpc2"

	protocol "github.com/wharflab/testingls/internal/lsp/protocol"
	"github.com/wharflab/testingls/internal/spec"
)

func TestRootDirFromParams(t *testing.T) {
	t.Parallel()

	root := "/tmp/proj"
	rootURI := protocol.DocumentUri("file://" + root)

	tests := []struct {
		name   string
		params *protocol.InitializeParams
		want   string
	}{
		{name: "nil params", params: nil, want: ""},
		{
			name: "workspace folders win",
			params: &protocol.InitializeParams{
				WorkspaceFolders: []protocol.WorkspaceFolder{{Uri: rootURI, Name: "proj"}},
				RootUri:          ptrTo(protocol.DocumentUri("file:///other")),
			},
			want: filepath.FromSlash(root),
		},
		{
			name:   "falls back to rootUri",
			params: &protocol.InitializeParams{RootUri: &rootURI},
			want:   filepath.FromSlash(root),
		},
		{
			name:   "neither set",
			params: &protocol.InitializeParams{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, rootDirFromParams(tt.params))
		})
	}
}

func TestRefreshingNeeded(t *testing.T) {
	t.Parallel()

	s := &Server{documents: NewDocumentStore()}
	assert.False(t, s.refreshingNeeded("file:///tmp/a_test.go"), "no adapters configured means nothing to refresh")

	s.adapterCommand = map[spec.AdapterId][]spec.AdapterConfiguration{
		"gotest": {{Path: "go"}},
	}
	assert.True(t, s.refreshingNeeded("file:///tmp/a_test.go"), "file not yet in any cached workspace")

	known := filepath.FromSlash("/tmp/a_test.go")
	s.workspaceCache = []spec.WorkspaceAnalysis{
		{
			Adapter: "gotest",
			Workspaces: spec.DetectWorkspaceResult{
				Data: map[string][]string{"/tmp": {known}},
			},
		},
	}
	assert.False(t, s.refreshingNeeded("file:///tmp/a_test.go"), "file already attached to a cached root")
}

func TestRefreshingNeeded_RespectsAdapterGlobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := &Server{
		documents:  NewDocumentStore(),
		projectDir: dir,
		adapterCommand: map[spec.AdapterId][]spec.AdapterConfiguration{
			"gotest": {{Path: "go", Include: []string{"**/*_test.go"}}},
		},
	}

	matching := "file://" + filepath.Join(dir, "pkg", "foo_test.go")
	assert.True(t, s.refreshingNeeded(matching), "file matches the only configured adapter's include glob")

	nonMatching := "file://" + filepath.Join(dir, "README.md")
	assert.False(t, s.refreshingNeeded(nonMatching), "file matches no configured adapter's include glob")
}

func TestUnmarshalAndCall_InvalidParamsError(t *testing.T) {
	t.Parallel()

	req := &jsonrpc2.Request{Method: "whatever", Params: []byte(`{"uri": 5}`)}
	_, err := unmarshalAndCall(req, func(p *protocol.DiscoverFileTestParams) (any, error) {
		return p, nil
	})
	require.Error(t, err)

	var wireErr *jsonrpc2.WireError
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, int64(protocol.ErrorCodeInvalidParams), wireErr.Code)
}

// pipeBinder is a minimal jsonrpc2.Binder for the client side of the
// in-memory connection pair: it just records every notification it
// receives into a channel so the test can assert on them.
type pipeBinder struct {
	notifications chan *jsonrpc2.Request
}

func (b *pipeBinder) Bind(_ context.Context, _ *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error) {
	return jsonrpc2.ConnectionOptions{
		Framer: jsonrpc2.HeaderFramer(),
		Handler: jsonrpc2.HandlerFunc(func(_ context.Context, req *jsonrpc2.Request) (any, error) {
			b.notifications <- req
			return nil, nil //nolint:nilnil
		}),
	}, nil
}

type pipeEnd struct {
	io.Reader
	io.Writer
	io.Closer
}

type staticDialer struct{ rwc io.ReadWriteCloser }

func (d staticDialer) Dial(context.Context) (io.ReadWriteCloser, error) { return d.rwc, nil }

// newFakeAdapter writes a small shell script posing as an adapter
// binary: "discover" and "run-file-test" print canned JSON to stdout,
// "detect-workspace" reports every --file-paths argument rooted at dir.
func newFakeAdapter(t *testing.T, dir string) string {
	t.Helper()
	script := `#!/bin/sh
set -e
case "$1" in
  detect-workspace)
    shift
    files=""
    while [ "$1" != "--" ]; do
      if [ "$1" = "--file-paths" ]; then shift; files="$files\"$1\","; fi
      shift
    done
    printf '{"data":{"%s":[%s]}}' "$PWD" "${files%,}"
    ;;
  run-file-test)
    printf '{"data":[],"messages":[]}'
    ;;
  discover)
    printf '{"data":[]}'
    ;;
esac
`
	path := filepath.Join(dir, "fake-adapter.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// TestInitializeThenDidOpenPublishesDiagnostics drives the server through
// a real jsonrpc2.Connection pair over an in-memory pipe: initialize,
// initialized, then didOpen for a file the fake adapter reports as part
// of its one workspace root, and asserts a publishDiagnostics
// notification eventually arrives.
func TestInitializeThenDidOpenPublishesDiagnostics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testFile := filepath.Join(dir, "sample_test.go")
	require.NoError(t, os.WriteFile(testFile, []byte("package sample\n"), 0o644))
	adapterPath := newFakeAdapter(t, dir)

	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	serverSide := pipeEnd{Reader: clientToServerR, Writer: serverToClientW, Closer: serverToClientW}
	clientSide := pipeEnd{Reader: serverToClientR, Writer: clientToServerW, Closer: clientToServerW}

	srv := New()
	srv.adapterCommand = map[spec.AdapterId][]spec.AdapterConfiguration{
		"gotest": {{Path: adapterPath, Include: []string{"*_test.go"}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverConn, err := jsonrpc2.Dial(ctx, staticDialer{rwc: serverSide}, &serverBinder{server: srv})
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverConn.Close() })

	notifications := make(chan *jsonrpc2.Request, 16)
	clientConn, err := jsonrpc2.Dial(ctx, staticDialer{rwc: clientSide}, &pipeBinder{notifications: notifications})
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientConn.Close() })

	rootURI := protocol.DocumentUri("file://" + dir)
	var initResult protocol.InitializeResult
	call := clientConn.Call(ctx, string(protocol.MethodInitialize), protocol.InitializeParams{
		WorkspaceFolders: []protocol.WorkspaceFolder{{Uri: rootURI, Name: "proj"}},
		// initialize replaces the adapter table with what the config
		// layers supply, so the fake adapter is configured here.
		InitializationOptions: map[string]any{
			"adapters": map[string]any{
				"gotest": map[string]any{"path": adapterPath, "include": []string{"*_test.go"}},
			},
		},
	})
	require.NoError(t, call.Await(ctx, &initResult))
	require.NotNil(t, initResult.Capabilities.DiagnosticProvider)

	require.NoError(t, clientConn.Notify(ctx, string(protocol.MethodInitialized), struct{}{}))

	require.NoError(t, clientConn.Notify(ctx, string(protocol.MethodDidOpen), protocol.DidOpenTextDocumentParams{
		TextDocument: &protocol.TextDocumentItem{
			Uri:        protocol.DocumentUri("file://" + testFile),
			LanguageId: "go",
			Version:    1,
			Text:       "package sample\n",
		},
	}))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case req := <-notifications:
			if req.Method == string(protocol.MethodPublishDiagnostics) {
				var params protocol.PublishDiagnosticsParams
				require.NoError(t, json.Unmarshal(req.Params, &params))
				assert.Equal(t, protocol.DocumentUri(pathToURI(testFile)), params.Uri)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for textDocument/publishDiagnostics")
		}
	}
}
