package ast

import (
	"bytes"
	"strconv"
	"strings"

	"datacode/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Line returns the 1-based source line a node starts on, or 0.
func Line(n Node) int {
	type positioned interface{ Pos() token.Token }
	if p, ok := n.(positioned); ok {
		return p.Pos().Line
	}
	return 0
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

/* -------------------- Statements -------------------- */

// Scope is the keyword written in front of an assignment or function.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeGlobal
	ScopeLocal
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	}
	return ""
}

type ExpressionStatement struct {
	Token      token.Token // first token of expression
	Expression Expression
}

func (*ExpressionStatement) statementNode()          {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Pos() token.Token     { return es.Token }
func (es *ExpressionStatement) String() string {
	if es.Expression == nil {
		return ""
	}
	return es.Expression.String()
}

type AssignStatement struct {
	Token token.Token // 'global', 'local' or the identifier
	Scope Scope
	Name  *Identifier
	Value Expression
}

func (*AssignStatement) statementNode()          {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) Pos() token.Token     { return as.Token }
func (as *AssignStatement) String() string {
	var out bytes.Buffer
	if as.Scope != ScopeNone {
		out.WriteString(as.Scope.String())
		out.WriteString(" ")
	}
	out.WriteString(as.Name.String())
	out.WriteString(" = ")
	if as.Value != nil {
		out.WriteString(as.Value.String())
	}
	return out.String()
}

type IndexAssignStatement struct {
	Token token.Token // '='
	Left  *IndexExpression
	Value Expression
}

func (*IndexAssignStatement) statementNode()         {}
func (s *IndexAssignStatement) TokenLiteral() string { return s.Token.Literal }
func (s *IndexAssignStatement) Pos() token.Token     { return s.Token }
func (s *IndexAssignStatement) String() string {
	return s.Left.String() + " = " + s.Value.String()
}

type FunctionStatement struct {
	Token      token.Token // 'function' (or scope keyword)
	Scope      Scope
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (*FunctionStatement) statementNode()          {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) Pos() token.Token     { return fs.Token }
func (fs *FunctionStatement) String() string {
	var out bytes.Buffer
	if fs.Scope != ScopeNone {
		out.WriteString(fs.Scope.String())
		out.WriteString(" ")
	}
	params := make([]string, 0, len(fs.Parameters))
	for _, p := range fs.Parameters {
		params = append(params, p.String())
	}
	out.WriteString("function ")
	out.WriteString(fs.Name.String())
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") do\n")
	out.WriteString(fs.Body.String())
	out.WriteString("endfunction")
	return out.String()
}

type ReturnStatement struct {
	Token       token.Token // 'return'
	ReturnValue Expression  // may be nil
}

func (*ReturnStatement) statementNode()          {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Pos() token.Token     { return rs.Token }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return"
	}
	return "return " + rs.ReturnValue.String()
}

type ThrowStatement struct {
	Token token.Token // 'throw'
	Value Expression
}

func (*ThrowStatement) statementNode()          {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) Pos() token.Token     { return ts.Token }
func (ts *ThrowStatement) String() string {
	if ts.Value == nil {
		return "throw"
	}
	return "throw " + ts.Value.String()
}

type BreakStatement struct {
	Token token.Token // 'break'
}

func (*BreakStatement) statementNode()          {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Pos() token.Token     { return bs.Token }
func (bs *BreakStatement) String() string       { return "break" }

type ContinueStatement struct {
	Token token.Token // 'continue'
}

func (*ContinueStatement) statementNode()          {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Pos() token.Token     { return cs.Token }
func (cs *ContinueStatement) String() string       { return "continue" }

// BlockStatement is a statement list delimited by keywords rather than braces.
type BlockStatement struct {
	Token      token.Token // token that opened the block
	Statements []Statement
}

func (*BlockStatement) statementNode()          {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Pos() token.Token     { return bs.Token }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	for _, s := range bs.Statements {
		out.WriteString("    ")
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

type TryStatement struct {
	Token        token.Token // 'try'
	TryBlock     *BlockStatement
	CatchName    *Identifier     // optional even when CatchBlock is set
	CatchBlock   *BlockStatement // nil when there is no catch clause
	FinallyBlock *BlockStatement // nil when there is no finally clause
}

func (*TryStatement) statementNode()          {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Pos() token.Token     { return ts.Token }
func (ts *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("try\n")
	out.WriteString(ts.TryBlock.String())
	if ts.CatchBlock != nil {
		out.WriteString("catch")
		if ts.CatchName != nil {
			out.WriteString(" ")
			out.WriteString(ts.CatchName.String())
		}
		out.WriteString("\n")
		out.WriteString(ts.CatchBlock.String())
	}
	if ts.FinallyBlock != nil {
		out.WriteString("finally\n")
		out.WriteString(ts.FinallyBlock.String())
	}
	out.WriteString("endtry")
	return out.String()
}

type IfStatement struct {
	Token       token.Token // 'if'
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement // else branch; an else-if is a block holding one IfStatement
}

func (*IfStatement) statementNode()          {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() token.Token     { return is.Token }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	out.WriteString(" do\n")
	out.WriteString(is.Consequence.String())
	if is.Alternative != nil {
		out.WriteString("else\n")
		out.WriteString(is.Alternative.String())
	}
	out.WriteString("endif")
	return out.String()
}

type WhileStatement struct {
	Token     token.Token // 'while'
	Condition Expression
	Body      *BlockStatement
}

func (*WhileStatement) statementNode()          {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() token.Token     { return ws.Token }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " do\n" + ws.Body.String() + "endwhile"
}

type ForStatement struct {
	Token    token.Token // 'for'
	Vars     []*Identifier
	Iterable Expression
	Body     *BlockStatement
}

func (*ForStatement) statementNode()          {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Pos() token.Token     { return fs.Token }
func (fs *ForStatement) String() string {
	names := make([]string, 0, len(fs.Vars))
	for _, v := range fs.Vars {
		names = append(names, v.String())
	}
	return "for " + strings.Join(names, ", ") + " in " + fs.Iterable.String() + " do\n" + fs.Body.String() + "next " + names[0]
}

/* -------------------- Expressions -------------------- */

type Identifier struct {
	Token token.Token
	Value string
}

func (*Identifier) expressionNode()        {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() token.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (*NumberLiteral) expressionNode()        {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) Pos() token.Token     { return n.Token }
func (n *NumberLiteral) String() string {
	if n.Token.Literal != "" {
		return n.Token.Literal
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (*StringLiteral) expressionNode()        {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) Pos() token.Token     { return s.Token }
func (s *StringLiteral) String() string       { return strconv.Quote(s.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (*BooleanLiteral) expressionNode()        {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) Pos() token.Token     { return b.Token }
func (b *BooleanLiteral) String() string       { return b.Token.Literal }

type NullLiteral struct {
	Token token.Token
}

func (*NullLiteral) expressionNode()        {}
func (n *NullLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NullLiteral) Pos() token.Token     { return n.Token }
func (n *NullLiteral) String() string       { return "null" }

type PrefixExpression struct {
	Token    token.Token // '-' or 'not'
	Operator string
	Right    Expression
}

func (*PrefixExpression) expressionNode()         {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Pos() token.Token     { return pe.Token }
func (pe *PrefixExpression) String() string {
	if pe.Operator == "not" {
		return "(not " + pe.Right.String() + ")"
	}
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // operator
	Left     Expression
	Operator string
	Right    Expression
}

func (*InfixExpression) expressionNode()         {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Pos() token.Token     { return ie.Token }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

type MemberExpression struct {
	Token    token.Token // '.'
	Object   Expression
	Property *Identifier
}

func (*MemberExpression) expressionNode()         {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) Pos() token.Token     { return me.Token }
func (me *MemberExpression) String() string {
	return me.Object.String() + "." + me.Property.String()
}

type NamedArgument struct {
	Name  *Identifier
	Value Expression
}

type CallExpression struct {
	Token     token.Token // '('
	Function  Expression  // *Identifier for every callable DataCode form
	Arguments []Expression
	Named     []NamedArgument
}

func (*CallExpression) expressionNode()         {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Pos() token.Token     { return ce.Token }
func (ce *CallExpression) String() string {
	args := make([]string, 0, len(ce.Arguments)+len(ce.Named))
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	for _, n := range ce.Named {
		args = append(args, n.Name.String()+"="+n.Value.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

// Callee returns the called name, or "" when the callee is not an identifier.
func (ce *CallExpression) Callee() string {
	if id, ok := ce.Function.(*Identifier); ok {
		return id.Value
	}
	return ""
}

type SpreadExpression struct {
	Token token.Token // '...'
	Value Expression
}

func (*SpreadExpression) expressionNode()         {}
func (se *SpreadExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SpreadExpression) Pos() token.Token     { return se.Token }
func (se *SpreadExpression) String() string       { return "..." + se.Value.String() }

type ArrayLiteral struct {
	Token    token.Token // '['
	Elements []Expression
}

func (*ArrayLiteral) expressionNode()         {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) Pos() token.Token     { return al.Token }
func (al *ArrayLiteral) String() string {
	elems := make([]string, 0, len(al.Elements))
	for _, e := range al.Elements {
		elems = append(elems, e.String())
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

type ObjectPair struct {
	Key   string
	Value Expression
}

type ObjectLiteral struct {
	Token token.Token // '{'
	Pairs []ObjectPair
}

func (*ObjectLiteral) expressionNode()         {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) Pos() token.Token     { return ol.Token }
func (ol *ObjectLiteral) String() string {
	pairs := make([]string, 0, len(ol.Pairs))
	for _, p := range ol.Pairs {
		pairs = append(pairs, strconv.Quote(p.Key)+": "+p.Value.String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type IndexExpression struct {
	Token token.Token // '['
	Left  Expression
	Index Expression
}

func (*IndexExpression) expressionNode()         {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Pos() token.Token     { return ie.Token }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}
