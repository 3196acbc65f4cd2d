package protocol

// DidOpenTextDocumentParams is the payload of textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument *TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent is one entry of didChange's
// contentChanges array. LSP allows either a whole-document replacement or
// a range-scoped partial edit; this server advertises
// TextDocumentSyncKindNone, so clients normally send no didChange, but
// both branches are decoded in case a client ignores the advertised
// sync kind.
type TextDocumentContentChangeEvent struct {
	WholeDocument *WholeDocumentChange
	Partial       *PartialDocumentChange
}

// WholeDocumentChange replaces the entire document text.
type WholeDocumentChange struct {
	Text string `json:"text"`
}

// PartialDocumentChange replaces one range of the document text.
type PartialDocumentChange struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength *uint32 `json:"rangeLength,omitempty"`
	Text        string  `json:"text"`
}

// DidChangeTextDocumentParams is the payload of textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument    VersionedTextDocumentIdentifier   `json:"textDocument"`
	ContentChanges  []TextDocumentContentChangeEvent  `json:"contentChanges"`
}

// DidSaveTextDocumentParams is the payload of textDocument/didSave.
type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

// DidCloseTextDocumentParams is the payload of textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidChangeConfigurationParams is the payload of
// workspace/didChangeConfiguration.
type DidChangeConfigurationParams struct {
	Settings any `json:"settings"`
}

// FileEvent describes one watched-file change.
type FileEvent struct {
	Uri  DocumentUri `json:"uri"`
	Type int         `json:"type"`
}

// DidChangeWatchedFilesParams is the payload of
// workspace/didChangeWatchedFiles.
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}
