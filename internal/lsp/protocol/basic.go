// Package protocol is a hand-authored subset of the LSP 3.17 wire types
// this server actually speaks: lifecycle, text document sync,
// diagnostics, progress, and window/showMessage. It is not a generated
// client for the full specification.
package protocol

// DocumentUri is an LSP document URI.
type DocumentUri string

// Method is an LSP method name.
type Method string

// Position is a zero-based line/character pair (UTF-16 code units).
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span within a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a range within a specific document.
type Location struct {
	Uri   DocumentUri `json:"uri"`
	Range Range       `json:"range"`
}

// TextDocumentIdentifier identifies a document by URI only.
type TextDocumentIdentifier struct {
	Uri DocumentUri `json:"uri"`
}

// VersionedTextDocumentIdentifier adds a version number to an identifier.
type VersionedTextDocumentIdentifier struct {
	Uri     DocumentUri `json:"uri"`
	Version int32       `json:"version"`
}

// TextDocumentItem is a full document as sent by didOpen.
type TextDocumentItem struct {
	Uri        DocumentUri `json:"uri"`
	LanguageId string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// IntOrString is a union of integer and string, used for progress tokens
// and request IDs.
type IntOrString struct {
	Integer *int64
	String  *string
}
