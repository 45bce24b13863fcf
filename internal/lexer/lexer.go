package lexer

import (
	"strings"
	"unicode/utf8"

	"datacode/internal/token"
)

type Lexer struct {
	input string

	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination

	line int // 1-based
	col  int // 1-based column of current char
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0, // readChar() will advance to col=1 for first char
	}
	l.readChar()
	return l
}

// Tokens lexes the whole input, EOF included.
func Tokens(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	// Skip spaces/tabs and comments, but NOT newlines.
	for {
		l.skipWhitespace()
		if l.ch == '#' {
			l.skipLineComment()
			continue
		}
		break
	}

	// NEWLINE is a real token (statement separator)
	if l.ch == '\n' {
		tok := l.newToken(token.NEWLINE, "\n", l.line, l.col)
		l.readChar()
		return tok
	}

	if l.ch == 0 {
		return l.newToken(token.EOF, "", l.line, l.col)
	}

	startLine, startCol := l.line, l.col
	startIdx := l.position

	switch l.ch {
	case ';':
		return l.single(token.SEMICOLON, startLine, startCol)
	case '(':
		return l.single(token.LPAREN, startLine, startCol)
	case ')':
		return l.single(token.RPAREN, startLine, startCol)
	case '{':
		return l.single(token.LBRACE, startLine, startCol)
	case '}':
		return l.single(token.RBRACE, startLine, startCol)
	case '[':
		return l.single(token.LBRACKET, startLine, startCol)
	case ']':
		return l.single(token.RBRACKET, startLine, startCol)
	case ',':
		return l.single(token.COMMA, startLine, startCol)
	case ':':
		return l.single(token.COLON, startLine, startCol)
	case '.':
		if l.peekChar() == '.' && l.peekSecondChar() == '.' {
			l.readChar()
			l.readChar()
			l.readChar()
			return l.newToken(token.ELLIPSIS, "...", startLine, startCol)
		}
		if isDigit(l.peekChar()) {
			lit := l.readNumber()
			return l.newToken(token.NUMBER, lit, startLine, startCol)
		}
		return l.single(token.DOT, startLine, startCol)
	case '+':
		return l.single(token.PLUS, startLine, startCol)
	case '-':
		return l.single(token.MINUS, startLine, startCol)
	case '*':
		return l.single(token.STAR, startLine, startCol)
	case '%':
		return l.single(token.PERCENT, startLine, startCol)
	case '/':
		return l.single(token.SLASH, startLine, startCol)
	case '=':
		if l.peekChar() == '=' {
			return l.double(token.EQ, startLine, startCol)
		}
		return l.single(token.ASSIGN, startLine, startCol)
	case '!':
		if l.peekChar() == '=' {
			return l.double(token.NE, startLine, startCol)
		}
		return l.single(token.ILLEGAL, startLine, startCol)
	case '<':
		if l.peekChar() == '=' {
			return l.double(token.LE, startLine, startCol)
		}
		return l.single(token.LT, startLine, startCol)
	case '>':
		if l.peekChar() == '=' {
			return l.double(token.GE, startLine, startCol)
		}
		return l.single(token.GT, startLine, startCol)
	case '"', '\'':
		return l.readStringToken(l.ch, startLine, startCol, startIdx)
	}

	if isIdentStart(l.ch) {
		lit := l.readIdentifier()
		return l.newToken(token.LookupIdent(lit), lit, startLine, startCol)
	}

	if isDigit(l.ch) {
		lit := l.readNumber()
		return l.newToken(token.NUMBER, lit, startLine, startCol)
	}

	return l.single(token.ILLEGAL, startLine, startCol)
}

func (l *Lexer) newToken(t token.Type, lit string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Line:    line,
		Col:     col,
	}
}

func (l *Lexer) single(t token.Type, line, col int) token.Token {
	tok := l.newToken(t, string(l.ch), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) double(t token.Type, line, col int) token.Token {
	ch := l.ch
	l.readChar()
	tok := l.newToken(t, string([]byte{ch, l.ch}), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekSecondChar() byte {
	if l.readPosition+1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+1]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	// NextToken emits the NEWLINE.
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readStringToken(quote byte, startLine, startCol, startIdx int) token.Token {
	l.readChar() // move past opening quote

	var b strings.Builder
	for {
		if l.ch == 0 || l.ch == '\n' {
			return l.newToken(token.ILLEGAL, "unterminated string", startLine, startCol)
		}
		if l.ch == quote {
			break
		}
		if l.ch == '\\' {
			switch l.peekChar() {
			case '"', '\'', '\\':
				l.readChar()
				b.WriteByte(l.ch)
				l.readChar()
				continue
			case 'n':
				l.readChar()
				b.WriteByte('\n')
				l.readChar()
				continue
			case 't':
				l.readChar()
				b.WriteByte('\t')
				l.readChar()
				continue
			}
			// Unknown escape: keep the backslash literally (Windows paths).
		}
		b.WriteByte(l.ch)
		l.readChar()
	}

	l.readChar() // consume closing quote
	tok := l.newToken(token.STRING, b.String(), startLine, startCol)
	tok.Raw = l.input[startIdx:l.position]
	return tok
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= utf8.RuneSelf
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
