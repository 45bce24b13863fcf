package ast

// Inspect walks the tree in depth-first order, calling fn for every node.
// Returning false from fn skips the node's children.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			Inspect(s, fn)
		}
	case *BlockStatement:
		if n == nil {
			return
		}
		for _, s := range n.Statements {
			Inspect(s, fn)
		}
	case *ExpressionStatement:
		inspectExpr(n.Expression, fn)
	case *AssignStatement:
		inspectExpr(n.Name, fn)
		inspectExpr(n.Value, fn)
	case *IndexAssignStatement:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Value, fn)
	case *FunctionStatement:
		for _, p := range n.Parameters {
			inspectExpr(p, fn)
		}
		inspectBlock(n.Body, fn)
	case *ReturnStatement:
		inspectExpr(n.ReturnValue, fn)
	case *ThrowStatement:
		inspectExpr(n.Value, fn)
	case *IfStatement:
		inspectExpr(n.Condition, fn)
		inspectBlock(n.Consequence, fn)
		inspectBlock(n.Alternative, fn)
	case *WhileStatement:
		inspectExpr(n.Condition, fn)
		inspectBlock(n.Body, fn)
	case *ForStatement:
		for _, v := range n.Vars {
			inspectExpr(v, fn)
		}
		inspectExpr(n.Iterable, fn)
		inspectBlock(n.Body, fn)
	case *TryStatement:
		inspectBlock(n.TryBlock, fn)
		if n.CatchName != nil {
			inspectExpr(n.CatchName, fn)
		}
		inspectBlock(n.CatchBlock, fn)
		inspectBlock(n.FinallyBlock, fn)
	case *PrefixExpression:
		inspectExpr(n.Right, fn)
	case *InfixExpression:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Right, fn)
	case *MemberExpression:
		inspectExpr(n.Object, fn)
	case *CallExpression:
		inspectExpr(n.Function, fn)
		for _, a := range n.Arguments {
			inspectExpr(a, fn)
		}
		for _, na := range n.Named {
			inspectExpr(na.Value, fn)
		}
	case *SpreadExpression:
		inspectExpr(n.Value, fn)
	case *ArrayLiteral:
		for _, e := range n.Elements {
			inspectExpr(e, fn)
		}
	case *ObjectLiteral:
		for _, p := range n.Pairs {
			inspectExpr(p.Value, fn)
		}
	case *IndexExpression:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Index, fn)
	}
}

// nil blocks and expressions never reach fn
func inspectBlock(b *BlockStatement, fn func(Node) bool) {
	if b != nil {
		Inspect(b, fn)
	}
}

func inspectExpr(e Expression, fn func(Node) bool) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *Identifier:
		if v == nil {
			return
		}
	case *IndexExpression:
		if v == nil {
			return
		}
	}
	Inspect(e, fn)
}
