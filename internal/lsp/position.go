package lsp

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func runeUnits(r rune) int {
	n := utf16.RuneLen(r)
	if n < 0 {
		return 1
	}
	return n
}

// byteColToUTF16 maps a 1-based byte column to a 0-based UTF-16 offset.
func byteColToUTF16(lineText string, byteCol int) uint32 {
	if byteCol <= 1 {
		return 0
	}
	limit := min(byteCol-1, len(lineText))
	var count uint32
	for _, r := range lineText[:limit] {
		count += uint32(runeUnits(r))
	}
	return count
}

// utf16ToByte maps a 0-based UTF-16 offset to a 0-based byte offset.
func utf16ToByte(lineText string, utf16Col int) int {
	count := 0
	for idx, r := range lineText {
		n := runeUnits(r)
		if count+n > utf16Col {
			return idx
		}
		count += n
	}
	return len(lineText)
}

func utf16Len(s string) int {
	count := 0
	for _, r := range s {
		count += runeUnits(r)
	}
	return count
}

// isIdentByte matches the lexer: non-ASCII bytes belong to identifiers.
func isIdentByte(b byte) bool {
	return b == '_' || b >= utf8.RuneSelf || unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}

// wordAt returns the identifier around pos and the part of it before pos.
func wordAt(text string, pos protocol.Position) (word, prefix string) {
	lines := splitLines(text)
	if int(pos.Line) >= len(lines) {
		return "", ""
	}
	line := lines[pos.Line]
	at := utf16ToByte(line, int(pos.Character))

	start := at
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	end := at
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}
	return line[start:end], line[start:at]
}

// nameRange is the range covering name starting at the 1-based line and col.
func nameRange(text string, line, col int, name string) protocol.Range {
	lines := splitLines(text)
	if line <= 0 || line > len(lines) {
		return protocol.Range{}
	}
	start := protocol.Position{Line: uint32(line - 1), Character: byteColToUTF16(lines[line-1], col)}
	end := protocol.Position{Line: start.Line, Character: start.Character + uint32(max(1, utf16Len(name)))}
	return protocol.Range{Start: start, End: end}
}
