package protocol

const (
	MethodInitialize             Method = "initialize"
	MethodInitialized            Method = "initialized"
	MethodShutdown               Method = "shutdown"
	MethodExit                   Method = "exit"
	MethodSetTrace               Method = "$/setTrace"
	MethodCancelRequest          Method = "$/cancelRequest"
	MethodWorkDoneProgressCreate Method = "window/workDoneProgress/create"
	MethodProgress               Method = "$/progress"
	MethodShowMessage             Method = "window/showMessage"
	MethodTextDocumentDiagnostic Method = "textDocument/diagnostic"
	MethodWorkspaceDiagnosticRefresh Method = "workspace/diagnostic/refresh"
	MethodPublishDiagnostics     Method = "textDocument/publishDiagnostics"
	MethodDidOpen                Method = "textDocument/didOpen"
	MethodDidChange              Method = "textDocument/didChange"
	MethodDidSave                Method = "textDocument/didSave"
	MethodDidClose               Method = "textDocument/didClose"
	MethodDidChangeConfiguration Method = "workspace/didChangeConfiguration"
	MethodDidChangeWatchedFiles  Method = "workspace/didChangeWatchedFiles"
	MethodWorkspaceDiagnostic    Method = "workspace/diagnostic"
	MethodRunFileTest            Method = "$/runFileTest"
	MethodRunWorkspaceTest       Method = "$/runWorkspaceTest"
	MethodDiscoverFileTest       Method = "$/discoverFileTest"
	MethodDetectedWorkspace      Method = "$/detectedWorkspace"
)

// ErrorCode mirrors the JSON-RPC / LSP error code numbering used in
// responses.
type ErrorCode int

const (
	ErrorCodeParseError     ErrorCode = -32700
	ErrorCodeInvalidRequest ErrorCode = -32600
	ErrorCodeMethodNotFound ErrorCode = -32601
	ErrorCodeInvalidParams  ErrorCode = -32602
	ErrorCodeInternalError  ErrorCode = -32603
	ErrorCodeRequestFailed  ErrorCode = -32803
)

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
}

// ServerInfo identifies this server in the initialize response.
type ServerInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
}

// InitializeParams is the payload of the "initialize" request.
type InitializeParams struct {
	ProcessId      IntOrString    `json:"processId"`
	ClientInfo     *ClientInfo    `json:"clientInfo,omitempty"`
	RootUri        *DocumentUri   `json:"rootUri,omitempty"`
	InitializationOptions any      `json:"initializationOptions,omitempty"`
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

// WorkspaceFolder is one entry of a multi-root workspace.
type WorkspaceFolder struct {
	Uri  DocumentUri `json:"uri"`
	Name string      `json:"name"`
}

// InitializeResult is the server's response to "initialize".
type InitializeResult struct {
	Capabilities *ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo         `json:"serverInfo,omitempty"`
}

// TextDocumentSyncKind enumerates how document content changes are sent.
type TextDocumentSyncKind int

const (
	TextDocumentSyncKindNone        TextDocumentSyncKind = 0
	TextDocumentSyncKindFull        TextDocumentSyncKind = 1
	TextDocumentSyncKindIncremental TextDocumentSyncKind = 2
)

// SaveOptions configures what is sent on didSave.
type SaveOptions struct {
	IncludeText *bool `json:"includeText,omitempty"`
}

// BooleanOrSaveOptions is the union LSP allows for TextDocumentSyncOptions.Save.
type BooleanOrSaveOptions struct {
	Boolean     *bool
	SaveOptions *SaveOptions
}

// TextDocumentSyncOptions configures text document synchronization.
type TextDocumentSyncOptions struct {
	OpenClose *bool                 `json:"openClose,omitempty"`
	Change    *TextDocumentSyncKind  `json:"change,omitempty"`
	Save      *BooleanOrSaveOptions  `json:"save,omitempty"`
}

// TextDocumentSyncOptionsOrKind is the union LSP allows for the
// capability's TextDocumentSync field.
type TextDocumentSyncOptionsOrKind struct {
	Options *TextDocumentSyncOptions
	Kind    *TextDocumentSyncKind
}

// DiagnosticOptions configures the pull-diagnostics capability.
type DiagnosticOptions struct {
	Identifier            *string `json:"identifier,omitempty"`
	InterFileDependencies  bool    `json:"interFileDependencies"`
	WorkspaceDiagnostics   bool    `json:"workspaceDiagnostics"`
}

// DiagnosticOptionsOrRegistrationOptions matches the capability union LSP
// defines (this server never uses dynamic registration, so only Options
// is populated).
type DiagnosticOptionsOrRegistrationOptions struct {
	Options *DiagnosticOptions
}

// ExecuteCommandOptions advertises supported workspace/executeCommand
// command names.
type ExecuteCommandOptions struct {
	Commands []string `json:"commands"`
}

// ServerCapabilities is the subset of LSP server capabilities this
// server advertises.
type ServerCapabilities struct {
	TextDocumentSync     *TextDocumentSyncOptionsOrKind            `json:"textDocumentSync,omitempty"`
	DiagnosticProvider   *DiagnosticOptionsOrRegistrationOptions    `json:"diagnosticProvider,omitempty"`
	ExecuteCommandProvider *ExecuteCommandOptions                  `json:"executeCommandProvider,omitempty"`
	Workspace            *ServerCapabilitiesWorkspace               `json:"workspace,omitempty"`
}

// ServerCapabilitiesWorkspace nests the workspace-scoped sub-capabilities.
type ServerCapabilitiesWorkspace struct {
	WorkspaceFolders *WorkspaceFoldersServerCapabilities `json:"workspaceFolders,omitempty"`
}

// WorkspaceFoldersServerCapabilities advertises multi-root support.
type WorkspaceFoldersServerCapabilities struct {
	Supported *bool `json:"supported,omitempty"`
}
