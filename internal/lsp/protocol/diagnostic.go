package protocol

// DiagnosticSeverity mirrors the LSP enum (Error=1 ... Hint=4).
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// Diagnostic is one LSP diagnostic entry.
type Diagnostic struct {
	Range    Range               `json:"range"`
	Severity *DiagnosticSeverity `json:"severity,omitempty"`
	Source   *string             `json:"source,omitempty"`
	Message  string              `json:"message"`
}

// PublishDiagnosticsParams is the payload of
// textDocument/publishDiagnostics (server -> client push).
type PublishDiagnosticsParams struct {
	Uri         DocumentUri  `json:"uri"`
	Version     *int32       `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// DocumentDiagnosticParams is the payload of textDocument/diagnostic
// (client -> server pull request).
type DocumentDiagnosticParams struct {
	TextDocument   TextDocumentIdentifier `json:"textDocument"`
	Identifier     *string                `json:"identifier,omitempty"`
	PreviousResultId *string              `json:"previousResultId,omitempty"`
}

// DocumentDiagnosticReportKind distinguishes a full report from an
// unchanged one.
type DocumentDiagnosticReportKind string

const (
	DocumentDiagnosticReportKindFull      DocumentDiagnosticReportKind = "full"
	DocumentDiagnosticReportKindUnchanged DocumentDiagnosticReportKind = "unchanged"
)

// FullDocumentDiagnosticReport carries a complete diagnostic set for a
// pulled document.
type FullDocumentDiagnosticReport struct {
	Kind        DocumentDiagnosticReportKind `json:"kind"`
	ResultId    *string                      `json:"resultId,omitempty"`
	Items       []Diagnostic                 `json:"items"`
}

// UnchangedDocumentDiagnosticReport tells the client its cached
// diagnostics (keyed by PreviousResultId) are still valid.
type UnchangedDocumentDiagnosticReport struct {
	Kind     DocumentDiagnosticReportKind `json:"kind"`
	ResultId string                       `json:"resultId"`
}

// DocumentDiagnosticReport is the union result of textDocument/diagnostic.
type DocumentDiagnosticReport struct {
	Full      *FullDocumentDiagnosticReport
	Unchanged *UnchangedDocumentDiagnosticReport
}
