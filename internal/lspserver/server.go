// Package lspserver implements the Language Server Protocol front end for
// testingls: a single-threaded, cooperative server that dispatches LSP
// methods to the adapter-mediated test discovery/execution pipeline and
// publishes results as diagnostics.
//
// Transport: stdio only. Protocol: LSP 3.17 types via internal/lsp/protocol,
// JSON-RPC via golang.org/x/exp/jsonrpc2 — the same library and
// Content-Length framing the teacher's lspserver.Server already uses.
package lspserver

import (
	"context"
	stdjson "encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	jsonv2 "encoding/json/v2"
	"golang.org/x/exp/jsonrpc2"

	protocol "github.com/wharflab/testingls/internal/lsp/protocol"
	"github.com/wharflab/testingls/internal/spec"
	"github.com/wharflab/testingls/internal/workspace"
)

const serverName = "testingls"

// jsonNull is an explicit JSON null value for call results.
// golang.org/x/exp/jsonrpc2 treats (nil, nil) as "no response" for
// calls, so this is returned instead whenever the LSP result should be
// null.
var jsonNull = stdjson.RawMessage("null")

// Server is the testingls LSP server.
type Server struct {
	conn   *jsonrpc2.Connection
	exitCh chan struct{}

	documents *DocumentStore

	projectDir     string
	adapterCommand map[spec.AdapterId][]spec.AdapterConfiguration

	cacheMu       sync.RWMutex
	workspaceCache []spec.WorkspaceAnalysis
}

// New creates a new LSP server.
func New() *Server {
	return &Server{
		exitCh:    make(chan struct{}),
		documents: NewDocumentStore(),
	}
}

// RunStdio starts the LSP server on stdin/stdout. It blocks until the
// connection is closed or the context is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	conn, err := jsonrpc2.Dial(ctx, stdioDialer{}, &serverBinder{server: s})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.exitCh:
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	return conn.Wait()
}

// serverBinder binds a JSON-RPC connection to the server handler,
// capturing the connection reference so the server can later send
// notifications (publishDiagnostics, $/progress, ...) on its own.
type serverBinder struct {
	server *Server
}

func (b *serverBinder) Bind(_ context.Context, conn *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error) {
	b.server.conn = conn
	return jsonrpc2.ConnectionOptions{
		Framer:  jsonrpc2.HeaderFramer(),
		Handler: jsonrpc2.HandlerFunc(b.server.handle),
	}, nil
}

// handle dispatches incoming JSON-RPC messages to the appropriate
// handler, following the method table unchanged from the distilled
// specification.
func (s *Server) handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case string(protocol.MethodInitialize):
		return unmarshalAndCall(req, s.handleInitialize)
	case string(protocol.MethodInitialized):
		if err := s.checkWorkspace(ctx); err != nil {
			log.Printf("lspserver: initial checkWorkspace: %v", err)
		}
		return nil, nil //nolint:nilnil // LSP: notifications have no result
	case string(protocol.MethodSetTrace):
		return nil, nil //nolint:nilnil
	case string(protocol.MethodShutdown):
		return jsonNull, nil
	case string(protocol.MethodExit):
		select {
		case <-s.exitCh:
		default:
			close(s.exitCh)
		}
		return nil, nil //nolint:nilnil // LSP: exit is a notification

	case string(protocol.MethodWorkspaceDiagnostic):
		if err := s.checkWorkspace(ctx); err != nil {
			return nil, jsonrpc2.NewError(int64(protocol.ErrorCodeInternalError), err.Error())
		}
		return jsonNull, nil

	case string(protocol.MethodTextDocumentDiagnostic):
		return unmarshalAndCall(req, func(p *protocol.DocumentDiagnosticParams) (any, error) {
			if err := s.checkFile(ctx, string(p.TextDocument.Uri), false); err != nil {
				return nil, jsonrpc2.NewError(int64(protocol.ErrorCodeInternalError), err.Error())
			}
			return nil, nil
		})

	case string(protocol.MethodDidSave):
		return nil, unmarshalAndNotify(req, func(p *protocol.DidSaveTextDocumentParams) {
			if err := s.checkFile(ctx, string(p.TextDocument.Uri), false); err != nil {
				log.Printf("lspserver: didSave checkFile: %v", err)
			}
		})

	case string(protocol.MethodDidOpen):
		return nil, unmarshalAndNotify(req, func(p *protocol.DidOpenTextDocumentParams) {
			s.handleDidOpen(ctx, p)
		})

	case string(protocol.MethodDidChange):
		return nil, unmarshalAndNotify(req, func(p *protocol.DidChangeTextDocumentParams) {
			s.handleDidChange(p)
		})

	case string(protocol.MethodDidClose):
		return nil, unmarshalAndNotify(req, func(p *protocol.DidCloseTextDocumentParams) {
			s.documents.Close(string(p.TextDocument.Uri))
		})

	case string(protocol.MethodRunFileTest):
		return unmarshalAndCall(req, func(p *protocol.RunFileTestParams) (any, error) {
			if err := s.checkFile(ctx, p.URI, false); err != nil {
				return nil, jsonrpc2.NewError(int64(protocol.ErrorCodeInternalError), err.Error())
			}
			return jsonNull, nil
		})

	case string(protocol.MethodRunWorkspaceTest):
		if err := s.checkWorkspace(ctx); err != nil {
			return nil, jsonrpc2.NewError(int64(protocol.ErrorCodeInternalError), err.Error())
		}
		return jsonNull, nil

	case string(protocol.MethodDiscoverFileTest):
		return unmarshalAndCall(req, func(p *protocol.DiscoverFileTestParams) (any, error) {
			return s.discoverFile(ctx, p.URI)
		})

	case string(protocol.MethodDidChangeConfiguration):
		return nil, unmarshalAndNotify(req, func(p *protocol.DidChangeConfigurationParams) {
			s.handleDidChangeConfiguration(ctx, p)
		})

	case string(protocol.MethodCancelRequest):
		return nil, nil //nolint:nilnil // $/cancelRequest is accepted and ignored by design

	default:
		return nil, jsonrpc2.NewError(int64(protocol.ErrorCodeMethodNotFound), "method not supported: "+req.Method)
	}
}

// unmarshalAndCall unmarshals request params into T using json/v2 and
// calls fn. The result is pre-marshaled with json/v2 so that union
// types with MarshalJSONTo serialize correctly through the
// stdlib-based jsonrpc2 transport.
func unmarshalAndCall[T any](req *jsonrpc2.Request, fn func(*T) (any, error)) (any, error) {
	var params T
	if len(req.Params) > 0 {
		if err := jsonv2.Unmarshal(req.Params, &params); err != nil {
			return nil, jsonrpc2.NewError(int64(protocol.ErrorCodeInvalidParams), err.Error())
		}
	}
	result, err := fn(&params)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return jsonNull, nil
	}
	raw, merr := jsonv2.Marshal(result)
	if merr != nil {
		return nil, merr
	}
	return stdjson.RawMessage(raw), nil
}

// unmarshalAndNotify unmarshals request params into T using json/v2 and
// calls fn (for notifications that have no return).
func unmarshalAndNotify[T any](req *jsonrpc2.Request, fn func(*T)) error {
	var params T
	if len(req.Params) > 0 {
		if err := jsonv2.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc2.NewError(int64(protocol.ErrorCodeInvalidParams), err.Error())
		}
	}
	fn(&params)
	return nil
}

// lspNotify pre-marshals params with json/v2 and sends via conn.Notify.
func lspNotify(ctx context.Context, conn *jsonrpc2.Connection, method string, params any) error {
	raw, err := jsonv2.Marshal(params)
	if err != nil {
		return err
	}
	return conn.Notify(ctx, method, stdjson.RawMessage(raw))
}

// handleInitialize loads configuration, records the project directory,
// and replies with the server's capabilities.
func (s *Server) handleInitialize(params *protocol.InitializeParams) (any, error) {
	root := rootDirFromParams(params)
	if err := s.loadSettings(root, params.InitializationOptions); err != nil {
		log.Printf("lspserver: initialize: config load: %v", err)
	}

	return &protocol.InitializeResult{
		Capabilities: &protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptionsOrKind{
				Kind: ptrTo(protocol.TextDocumentSyncKindNone),
			},
			DiagnosticProvider: &protocol.DiagnosticOptionsOrRegistrationOptions{
				Options: &protocol.DiagnosticOptions{
					WorkspaceDiagnostics: true,
				},
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: serverName},
	}, nil
}

// handleDidOpen registers an opened document; the server only refreshes
// the workspace cache for it if it isn't attached to any known root yet
// (refreshingNeeded), per the method table.
func (s *Server) handleDidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) {
	if params.TextDocument == nil {
		return
	}
	uri := string(params.TextDocument.Uri)
	s.documents.Open(uri, params.TextDocument.LanguageId, params.TextDocument.Version, params.TextDocument.Text)

	if s.refreshingNeeded(uri) {
		if err := s.refreshWorkspaceRootCache(ctx); err != nil {
			log.Printf("lspserver: didOpen refresh: %v", err)
		}
	}
}

// handleDidChange updates the in-memory document text. The server
// advertises no document sync, so this only runs for a client that sends
// didChange anyway; each change's text, whole or partial, replaces the
// stored text in turn.
func (s *Server) handleDidChange(params *protocol.DidChangeTextDocumentParams) {
	uri := string(params.TextDocument.Uri)
	for _, change := range params.ContentChanges {
		switch {
		case change.WholeDocument != nil:
			s.documents.Update(uri, params.TextDocument.Version, change.WholeDocument.Text)
		case change.Partial != nil:
			s.documents.Update(uri, params.TextDocument.Version, change.Partial.Text)
		}
	}
}

// refreshingNeeded reports whether uri's path is not yet attached to any
// cached workspace root but matches at least one configured adapter's
// include/exclude filter, meaning the cache hasn't seen this file yet.
func (s *Server) refreshingNeeded(uri string) bool {
	path := uriToPath(uri)
	for _, wa := range s.cacheSnapshot() {
		for _, paths := range wa.Workspaces.Data {
			if containsPath(paths, path) {
				return false
			}
		}
	}

	rel, err := filepath.Rel(s.projectDir, path)
	if err != nil {
		rel = path
	}
	for _, configs := range s.adapterCommand {
		for _, adapter := range configs {
			if workspace.MatchesGlobs(rel, adapter.Include, adapter.Exclude) {
				return true
			}
		}
	}
	return false
}

func ptrTo[T any](v T) *T { return &v }

// rootDirFromParams resolves the project root from the initialize
// request: the first workspace folder if present, otherwise rootUri.
func rootDirFromParams(params *protocol.InitializeParams) string {
	if params == nil {
		return ""
	}
	if len(params.WorkspaceFolders) > 0 {
		return uriToPath(string(params.WorkspaceFolders[0].Uri))
	}
	if params.RootUri != nil {
		return uriToPath(string(*params.RootUri))
	}
	return ""
}

// stdioDialer implements jsonrpc2.Dialer for stdin/stdout
// communication. It uses an io.Pipe intermediary so that Close reliably
// interrupts a blocked read on all platforms (closing os.Stdin from
// another goroutine does not unblock a concurrent read on macOS).
type stdioDialer struct{}

func (stdioDialer) Dial(_ context.Context) (io.ReadWriteCloser, error) {
	pr, pw := io.Pipe()
	go io.Copy(pw, os.Stdin) //nolint:errcheck // exits when pipe or stdin closes
	return &stdioRWC{pr: pr, pw: pw}, nil
}

// stdioRWC reads from an io.Pipe (fed by os.Stdin) and writes to os.Stdout.
type stdioRWC struct {
	pr *io.PipeReader
	pw *io.PipeWriter
}

func (s *stdioRWC) Read(p []byte) (int, error)  { return s.pr.Read(p) }
func (s *stdioRWC) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (s *stdioRWC) Close() error {
	_ = s.pw.Close() // unblocks any pending pr.Read with io.EOF
	return s.pr.Close()
}
