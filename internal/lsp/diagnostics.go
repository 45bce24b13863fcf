package lsp

import (
	"datacode/internal/diag"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const diagnosticSource = "datacode"

// toLspPosition converts 1-based line and column to the 0-based LSP form.
func toLspPosition(line1, col1 int) protocol.Position {
	var p protocol.Position
	if line1 > 0 {
		p.Line = uint32(line1 - 1)
	}
	if col1 > 0 {
		p.Character = uint32(col1 - 1)
	}
	return p
}

func ToLspDiagnostics(text string, ds []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(ds))
	lines := splitLines(text)
	for _, d := range ds {
		start := toLspPosition(d.Range.Line, d.Range.Col)
		if d.Range.Line > 0 && d.Range.Line <= len(lines) {
			start.Character = byteColToUTF16(lines[d.Range.Line-1], d.Range.Col)
		}
		end := start
		end.Character += uint32(max(1, d.Range.Length))

		severity := protocol.DiagnosticSeverityError
		switch d.Severity {
		case diag.SeverityWarning:
			severity = protocol.DiagnosticSeverityWarning
		case diag.SeverityInfo:
			severity = protocol.DiagnosticSeverityInformation
		}

		pd := protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Source:   ptrString(diagnosticSource),
			Message:  d.Message,
		}
		if d.Code != "" {
			code := protocol.IntegerOrString{Value: d.Code}
			pd.Code = &code
		}
		out = append(out, pd)
	}
	return out
}

func ptrString(s string) *string { return &s }
