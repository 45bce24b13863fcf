// Package diag holds the position-tagged findings shared by the parser, the
// linter, the CLI and the language server.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// CodeSyntax tags every parser error. Lint codes live in package lint.
const CodeSyntax = "DP0001"

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Range is a span on one source line. Line and Col are 1-based byte
// positions; Length counts runes and is at least 1.
type Range struct {
	Line   int
	Col    int
	Length int
}

type Diagnostic struct {
	Code     string
	Message  string
	Severity Severity
	Range    Range
}

// At builds a diagnostic; lengths below 1 are clamped.
func At(sev Severity, code string, line, col, length int, msg string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  msg,
		Severity: sev,
		Range:    Range{Line: line, Col: col, Length: max(1, length)},
	}
}

// Format renders d as "path:line:col: severity code: message".
func (d Diagnostic) Format(path string) string {
	if d.Code == "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Range.Line, d.Range.Col, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s %s: %s", path, d.Range.Line, d.Range.Col, d.Severity, d.Code, d.Message)
}

func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Sort orders ds by position, keeping report order for equal positions.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i].Range, ds[j].Range
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
}

// Summary counts ds by severity, e.g. "1 error, 2 warnings".
func Summary(ds []Diagnostic) string {
	var counts [3]int
	for _, d := range ds {
		if d.Severity >= SeverityError && d.Severity <= SeverityInfo {
			counts[d.Severity]++
		}
	}
	var parts []string
	for sev, n := range counts {
		if n == 0 {
			continue
		}
		word := Severity(sev).String()
		if n > 1 {
			word += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, word))
	}
	if len(parts) == 0 {
		return "no problems"
	}
	return strings.Join(parts, ", ")
}
