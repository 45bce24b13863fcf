package token

type Type string

type Token struct {
	Type    Type
	Literal string
	// Raw preserves the original lexeme when Literal is normalized (e.g., strings).
	Raw  string
	Line int
	Col  int
}

const (
	// Special
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Separators
	NEWLINE   Type = "NEWLINE"
	SEMICOLON Type = ";"

	// Identifiers + literals
	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER"
	STRING Type = "STRING"

	// Keywords
	GLOBAL      Type = "GLOBAL"
	LOCAL       Type = "LOCAL"
	FUNCTION    Type = "FUNCTION"
	ENDFUNCTION Type = "ENDFUNCTION"
	DO          Type = "DO"
	THEN        Type = "THEN"
	RETURN      Type = "RETURN"
	IF          Type = "IF"
	ELSE        Type = "ELSE"
	ENDIF       Type = "ENDIF"
	FOR         Type = "FOR"
	IN          Type = "IN"
	NEXT        Type = "NEXT"
	FOREND      Type = "FOREND"
	WHILE       Type = "WHILE"
	ENDWHILE    Type = "ENDWHILE"
	BREAK       Type = "BREAK"
	CONTINUE    Type = "CONTINUE"
	TRY         Type = "TRY"
	CATCH       Type = "CATCH"
	FINALLY     Type = "FINALLY"
	ENDTRY      Type = "ENDTRY"
	THROW       Type = "THROW"
	TRUE        Type = "TRUE"
	FALSE       Type = "FALSE"
	NULL        Type = "NULL"
	AND         Type = "AND"
	OR          Type = "OR"
	NOT         Type = "NOT"

	// Operators
	ASSIGN  Type = "="
	PLUS    Type = "+"
	MINUS   Type = "-"
	STAR    Type = "*"
	SLASH   Type = "/"
	PERCENT Type = "%"

	EQ Type = "=="
	NE Type = "!="
	LT Type = "<"
	LE Type = "<="
	GT Type = ">"
	GE Type = ">="

	// Delimiters
	COMMA    Type = ","
	COLON    Type = ":"
	DOT      Type = "."
	ELLIPSIS Type = "..."
	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACKET Type = "["
	RBRACKET Type = "]"
	LBRACE   Type = "{"
	RBRACE   Type = "}"
)

var keywords = map[string]Type{
	"global":      GLOBAL,
	"local":       LOCAL,
	"function":    FUNCTION,
	"endfunction": ENDFUNCTION,
	"do":          DO,
	"then":        THEN,
	"return":      RETURN,
	"if":          IF,
	"else":        ELSE,
	"endif":       ENDIF,
	"endeif":      ENDIF,
	"for":         FOR,
	"in":          IN,
	"next":        NEXT,
	"forend":      FOREND,
	"while":       WHILE,
	"endwhile":    ENDWHILE,
	"break":       BREAK,
	"continue":    CONTINUE,
	"try":         TRY,
	"catch":       CATCH,
	"finally":     FINALLY,
	"endtry":      ENDTRY,
	"throw":       THROW,
	"true":        TRUE,
	"false":       FALSE,
	"null":        NULL,
	"and":         AND,
	"or":          OR,
	"not":         NOT,
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the reserved words in no particular order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	return out
}

// IsBlockOpener reports whether t starts a block that needs a matching closer.
func IsBlockOpener(t Type) bool {
	switch t {
	case FUNCTION, IF, FOR, WHILE, TRY:
		return true
	}
	return false
}

// IsBlockCloser reports whether t ends a block.
func IsBlockCloser(t Type) bool {
	switch t {
	case ENDFUNCTION, ENDIF, NEXT, FOREND, ENDWHILE, ENDTRY:
		return true
	}
	return false
}
