package parser

import (
	"fmt"
	"strconv"

	"datacode/internal/ast"
	"datacode/internal/diag"
	"datacode/internal/lexer"
	"datacode/internal/token"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []string
	diags  []diag.Diagnostic

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

/* -------------------- precedence -------------------- */

const (
	_ int = iota
	LOWEST
	ORPREC      // or
	ANDPREC     // and
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X, not X
	INDEX       // array[index]
	CALL        // fn(X)
)

var precedences = map[token.Type]int{
	token.OR:       ORPREC,
	token.AND:      ANDPREC,
	token.EQ:       EQUALS,
	token.NE:       EQUALS,
	token.LT:       LESSGREATER,
	token.LE:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.GE:       LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.STAR:     PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LBRACKET: INDEX,
	token.LPAREN:   CALL,
	token.DOT:      CALL,
}

/* -------------------- constructor -------------------- */

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:              l,
		errors:         []string{},
		diags:          []diag.Diagnostic{},
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
	}

	// read two tokens, so cur and peek are set
	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)

	for _, tt := range []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE,
		token.AND, token.OR,
	} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)

	return p
}

func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }
func (p *Parser) Errors() []string               { return p.errors }

// Parse lexes and parses src in one step.
func Parse(src string) (*ast.Program, []diag.Diagnostic) {
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

/* -------------------- program -------------------- */

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for p.curToken.Type != token.EOF {
		if p.isSeparator(p.curToken.Type) {
			p.nextToken()
			continue
		}
		if token.IsBlockCloser(p.curToken.Type) || p.curToken.Type == token.ELSE ||
			p.curToken.Type == token.CATCH || p.curToken.Type == token.FINALLY {
			p.errorAt(p.curToken, fmt.Sprintf("unexpected %s without an open block", p.curToken.Literal))
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		} else {
			p.skipToLineEnd()
		}

		p.nextToken()
	}

	return program
}

/* -------------------- statements -------------------- */

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.GLOBAL, token.LOCAL:
		return p.parseScopedStatement()
	case token.FUNCTION:
		return p.parseFunctionStatement(p.curToken, ast.ScopeNone)
	case token.RETURN:
		return p.parseReturnStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.curToken}
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.curToken}
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.TRY:
		return p.parseTryStatement()
	default:
		if p.curToken.Type == token.IDENT && p.peekToken.Type == token.ASSIGN {
			return p.parseAssignStatement(p.curToken, ast.ScopeNone)
		}
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseScopedStatement() ast.Statement {
	tok := p.curToken
	scope := ast.ScopeGlobal
	if tok.Type == token.LOCAL {
		scope = ast.ScopeLocal
	}

	if p.peekToken.Type == token.FUNCTION {
		p.nextToken()
		return p.parseFunctionStatement(tok, scope)
	}
	if !p.expectPeekNoSkip(token.IDENT) {
		return nil
	}
	if p.peekToken.Type != token.ASSIGN {
		p.peekError(token.ASSIGN)
		return nil
	}
	return p.parseAssignStatement(tok, scope)
}

func (p *Parser) parseAssignStatement(tok token.Token, scope ast.Scope) ast.Statement {
	// curToken is IDENT, peek is '='
	stmt := &ast.AssignStatement{
		Token: tok,
		Scope: scope,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}

	p.nextToken() // now '='
	p.nextToken() // start of value expression
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		p.errorAt(p.curToken, "expected expression after '='")
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionStatement(tok token.Token, scope ast.Scope) ast.Statement {
	// curToken is 'function'
	stmt := &ast.FunctionStatement{Token: tok, Scope: scope}

	if !p.expectPeekNoSkip(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeekNoSkip(token.LPAREN) {
		return nil
	}
	stmt.Parameters = p.parseFunctionParameters()
	if stmt.Parameters == nil {
		return nil
	}
	if !p.expectPeek(token.DO) {
		return nil
	}
	stmt.Body = p.parseBlock(p.curToken, token.ENDFUNCTION)
	if p.curToken.Type != token.ENDFUNCTION {
		return nil
	}
	return stmt
}

func (p *Parser) parseFunctionParameters() []*ast.Identifier {
	params := []*ast.Identifier{}

	// curToken is '('
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
		return params
	}

	seen := map[string]bool{}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		if seen[p.curToken.Literal] {
			p.errorAt(p.curToken, fmt.Sprintf("duplicate parameter %q", p.curToken.Literal))
		}
		seen[p.curToken.Literal] = true
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken() // consume ','
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.peekIsTerminator() || token.IsBlockCloser(p.peekToken.Type) || p.peekToken.Type == token.ELSE {
		return stmt
	}
	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	stmt := &ast.ThrowStatement{Token: p.curToken}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		p.errorAt(stmt.Token, "throw expects a value")
		return nil
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	if idx, ok := stmt.Expression.(*ast.IndexExpression); ok && p.peekToken.Type == token.ASSIGN {
		p.nextToken() // now '='
		assign := &ast.IndexAssignStatement{Token: p.curToken, Left: idx}

		p.nextToken()
		assign.Value = p.parseExpression(LOWEST)
		if assign.Value == nil {
			p.errorAt(assign.Token, "expected expression after '='")
			return nil
		}
		return assign
	}
	if p.peekToken.Type == token.ASSIGN {
		p.errorAt(p.peekToken, "invalid assignment target: "+stmt.Expression.String())
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		p.errorAt(stmt.Token, "if expects a condition")
		return nil
	}
	if p.peekToken.Type == token.THEN {
		p.nextToken()
	} else if !p.expectPeekNoSkip(token.DO) {
		return nil
	}

	stmt.Consequence = p.parseBlock(p.curToken, token.ELSE, token.ENDIF)
	switch p.curToken.Type {
	case token.ENDIF:
		return stmt
	case token.ELSE:
	default:
		return nil
	}

	elseTok := p.curToken
	if p.peekToken.Type == token.IF {
		p.nextToken() // move to IF
		nested := p.parseIfStatement()
		if nested == nil {
			return nil
		}
		// the nested if consumed the shared endif
		stmt.Alternative = &ast.BlockStatement{Token: elseTok, Statements: []ast.Statement{nested}}
		return stmt
	}

	stmt.Alternative = p.parseBlock(elseTok, token.ENDIF)
	if p.curToken.Type != token.ENDIF {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		p.errorAt(stmt.Token, "while expects a condition")
		return nil
	}
	if !p.expectPeekNoSkip(token.DO) {
		return nil
	}
	stmt.Body = p.parseBlock(p.curToken, token.ENDWHILE)
	if p.curToken.Type != token.ENDWHILE {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	for {
		if !p.expectPeekNoSkip(token.IDENT) {
			return nil
		}
		stmt.Vars = append(stmt.Vars, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}

	if !p.expectPeekNoSkip(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if stmt.Iterable == nil {
		p.errorAt(stmt.Token, "for expects an iterable expression")
		return nil
	}
	if !p.expectPeekNoSkip(token.DO) {
		return nil
	}

	stmt.Body = p.parseBlock(p.curToken, token.NEXT, token.FOREND)
	switch p.curToken.Type {
	case token.FOREND:
		return stmt
	case token.NEXT:
		if p.peekToken.Type == token.IDENT {
			p.nextToken()
			if p.curToken.Literal != stmt.Vars[0].Value {
				p.errorAt(p.curToken, fmt.Sprintf("next %s does not match loop variable %s", p.curToken.Literal, stmt.Vars[0].Value))
			}
		}
		return stmt
	}
	return nil
}

func (p *Parser) parseTryStatement() ast.Statement {
	stmt := &ast.TryStatement{Token: p.curToken}

	stmt.TryBlock = p.parseBlock(p.curToken, token.CATCH, token.FINALLY, token.ENDTRY)

	if p.curToken.Type == token.CATCH {
		catchTok := p.curToken
		if p.peekToken.Type == token.IDENT {
			p.nextToken()
			stmt.CatchName = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
		}
		stmt.CatchBlock = p.parseBlock(catchTok, token.FINALLY, token.ENDTRY)
	}

	if p.curToken.Type == token.FINALLY {
		stmt.FinallyBlock = p.parseBlock(p.curToken, token.ENDTRY)
	}

	if p.curToken.Type != token.ENDTRY {
		return nil
	}
	if stmt.CatchBlock == nil && stmt.FinallyBlock == nil {
		p.errorAt(stmt.Token, "expected catch or finally after try block")
		return nil
	}
	return stmt
}

// parseBlock collects statements until one of ends is the current token.
// curToken is the opener on entry and the closing keyword on success.
func (p *Parser) parseBlock(open token.Token, ends ...token.Type) *ast.BlockStatement {
	block := &ast.BlockStatement{Token: open, Statements: []ast.Statement{}}

	p.nextToken()
	for !p.curIsAny(ends) {
		if p.curToken.Type == token.EOF {
			p.errorAt(open, fmt.Sprintf("unterminated %s block: expected %s", open.Literal, closerName(ends)))
			return block
		}
		if p.isSeparator(p.curToken.Type) {
			p.nextToken()
			continue
		}
		if token.IsBlockCloser(p.curToken.Type) || p.curToken.Type == token.ELSE ||
			p.curToken.Type == token.CATCH || p.curToken.Type == token.FINALLY {
			p.errorAt(p.curToken, fmt.Sprintf("unexpected %s, expected %s", p.curToken.Literal, closerName(ends)))
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.skipToLineEnd()
		}
		p.nextToken()
	}
	return block
}

func closerName(ends []token.Type) string {
	names := map[token.Type]string{
		token.ENDFUNCTION: "endfunction",
		token.ENDIF:       "endif",
		token.NEXT:        "next",
		token.FOREND:      "forend",
		token.ENDWHILE:    "endwhile",
		token.ENDTRY:      "endtry",
		token.ELSE:        "else",
		token.CATCH:       "catch",
		token.FINALLY:     "finally",
	}
	last := ends[len(ends)-1]
	if n, ok := names[last]; ok {
		return n
	}
	return string(last)
}

/* -------------------- expressions (Pratt) -------------------- */

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.isTerminator(p.curToken.Type) {
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	leftExp := prefix()

	for leftExp != nil && !p.peekIsTerminator() && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("could not parse number %q", p.curToken.Literal))
		return nil
	}
	lit.Value = v
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Type == token.TRUE}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	exp := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	exp.Right = p.parseExpression(PREFIX)
	if exp.Right == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	exp := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	prec := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(prec)
	if exp.Right == nil {
		p.errorAt(exp.Token, fmt.Sprintf("expected expression after %q", exp.Operator))
		return nil
	}
	return exp
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	// curToken is '('
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	if _, ok := function.(*ast.Identifier); !ok {
		p.errorAt(p.curToken, "only named functions can be called: "+function.String())
		return nil
	}
	if !p.parseCallArguments(exp) {
		return nil
	}
	return exp
}

func (p *Parser) parseCallArguments(call *ast.CallExpression) bool {
	p.skipSeparatorsPeek()
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
		return true
	}

	for {
		p.skipSeparatorsPeek()
		p.nextToken()

		if p.curToken.Type == token.IDENT && p.peekToken.Type == token.ASSIGN {
			name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			p.nextToken() // '='
			p.nextToken()
			val := p.parseExpression(LOWEST)
			if val == nil {
				return false
			}
			call.Named = append(call.Named, ast.NamedArgument{Name: name, Value: val})
		} else {
			if len(call.Named) > 0 {
				p.errorAt(p.curToken, "positional argument cannot follow named arguments")
			}
			arg := p.parseElement()
			if arg == nil {
				return false
			}
			call.Arguments = append(call.Arguments, arg)
		}

		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken() // ','
	}

	return p.expectPeek(token.RPAREN)
}

// parseElement parses one array element or positional argument, allowing spread.
func (p *Parser) parseElement() ast.Expression {
	if p.curToken.Type == token.ELLIPSIS {
		spread := &ast.SpreadExpression{Token: p.curToken}
		p.nextToken()
		spread.Value = p.parseExpression(LOWEST)
		if spread.Value == nil {
			return nil
		}
		return spread
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	exp := &ast.MemberExpression{Token: p.curToken, Object: left}

	if !p.expectPeekNoSkip(token.IDENT) {
		return nil
	}
	exp.Property = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	lit := &ast.ArrayLiteral{Token: p.curToken, Elements: []ast.Expression{}}

	p.skipSeparatorsPeek()
	if p.peekToken.Type == token.RBRACKET {
		p.nextToken()
		return lit
	}

	for {
		p.skipSeparatorsPeek()
		p.nextToken()
		el := p.parseElement()
		if el == nil {
			return nil
		}
		lit.Elements = append(lit.Elements, el)

		p.skipSeparatorsPeek()
		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
		p.skipSeparatorsPeek()
		if p.peekToken.Type == token.RBRACKET {
			break // trailing comma
		}
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return lit
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	lit := &ast.ObjectLiteral{Token: p.curToken, Pairs: []ast.ObjectPair{}}

	p.skipSeparatorsPeek()
	if p.peekToken.Type == token.RBRACE {
		p.nextToken()
		return lit
	}

	for {
		p.skipSeparatorsPeek()
		p.nextToken()

		var key string
		switch p.curToken.Type {
		case token.IDENT, token.STRING, token.NUMBER:
			key = p.curToken.Literal
		default:
			if _, isKeyword := p.keywordLiteral(p.curToken); isKeyword {
				key = p.curToken.Literal
			} else {
				p.errorAt(p.curToken, "object key must be a name, string or number")
				return nil
			}
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.skipSeparatorsPeek()
		p.nextToken()
		val := p.parseExpression(LOWEST)
		if val == nil {
			return nil
		}
		lit.Pairs = append(lit.Pairs, ast.ObjectPair{Key: key, Value: val})

		p.skipSeparatorsPeek()
		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
		p.skipSeparatorsPeek()
		if p.peekToken.Type == token.RBRACE {
			break
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

func (p *Parser) keywordLiteral(tok token.Token) (string, bool) {
	if token.LookupIdent(tok.Literal) != token.IDENT && tok.Literal != "" {
		return tok.Literal, true
	}
	return "", false
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}

	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		p.errorAt(exp.Token, "expected index expression")
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return exp
}

/* -------------------- helpers -------------------- */

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.Type, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func (p *Parser) curIsAny(ts []token.Type) bool {
	for _, t := range ts {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) expectPeek(t token.Type) bool {
	p.skipSeparatorsPeek()
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) expectPeekNoSkip(t token.Type) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) skipToLineEnd() {
	for !p.isSeparator(p.peekToken.Type) && p.peekToken.Type != token.EOF {
		p.nextToken()
	}
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	length := 1
	if tok.Literal != "" && tok.Type != token.NEWLINE {
		length = len([]rune(tok.Literal))
	}
	p.diags = append(p.diags, diag.At(diag.SeverityError, diag.CodeSyntax, tok.Line, tok.Col, length, msg))
	p.errors = append(p.errors, msg)
}

func (p *Parser) peekError(t token.Type) {
	got := string(p.peekToken.Type)
	if p.peekToken.Type == token.NEWLINE {
		got = "end of line"
	}
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, got)
	p.errorAt(p.peekToken, msg)
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		p.errorAt(tok, fmt.Sprintf("illegal token %q", tok.Literal))
		return
	}
	p.errorAt(tok, fmt.Sprintf("unexpected %s", tok.Type))
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) isSeparator(t token.Type) bool {
	return t == token.NEWLINE || t == token.SEMICOLON
}

func (p *Parser) skipSeparatorsPeek() {
	for p.peekToken.Type == token.NEWLINE || p.peekToken.Type == token.SEMICOLON {
		p.nextToken()
	}
}

func (p *Parser) isTerminator(t token.Type) bool {
	switch t {
	case token.NEWLINE, token.SEMICOLON, token.RBRACE, token.RPAREN, token.RBRACKET, token.EOF:
		return true
	}
	return false
}

func (p *Parser) peekIsTerminator() bool {
	return p.isTerminator(p.peekToken.Type)
}
