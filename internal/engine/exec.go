package engine

import (
	"datacode/internal/ast"
	"datacode/internal/dcerr"
	"datacode/internal/value"
)

// step advances the top frame by one unit of work.
func (e *Engine) step() {
	f := e.stack.Top()
	if len(f.controls) == 0 {
		e.completeFrame(nil)
		return
	}
	c := f.top()
	switch c.kind {
	case ctlBlock:
		if c.ip >= len(c.stmts) {
			e.popControl(f)
			return
		}
		stmt := c.stmts[c.ip]
		sig, comp := e.execStatement(f, stmt)
		if comp != nil {
			e.unwind(comp)
			return
		}
		switch sig.Kind {
		case SignalCall:
			e.invoke(f, sig.Call)
		case SignalReturn:
			e.unwind(&completion{kind: compReturn, value: sig.Value})
		default:
			c.ip++
			f.clearSlots()
		}
	case ctlFor:
		e.stepFor(f, c)
	case ctlWhile:
		e.stepWhile(f, c)
	case ctlTry:
		e.stepTry(f, c)
	}
}

func (e *Engine) stepFor(f *CallFrame, c *control) {
	if c.next >= len(c.items) {
		e.popControl(f)
		return
	}
	item := c.items[c.next]
	c.next++
	vars := c.forStmt.Vars
	if len(vars) == 1 {
		e.scope.SetLoopVariable(vars[0].Value, item)
	} else {
		arr, ok := item.(*value.Array)
		if !ok {
			e.unwind(errorCompletion(dcerr.Runtimef(0, "Cannot unpack %s into %d variables", item.Type(), len(vars)), c.forStmt.Token.Line))
			return
		}
		for i, v := range vars {
			var el value.Value = value.NULL
			if i < len(arr.Elements) {
				el = arr.Elements[i]
			}
			e.scope.SetLoopVariable(v.Value, el)
		}
	}
	f.push(blockControl(c.forStmt.Body))
}

func (e *Engine) stepWhile(f *CallFrame, c *control) {
	sig, err := e.eval(f, c.whileStmt.Condition)
	if err != nil {
		e.unwind(errorCompletion(err, c.whileStmt.Token.Line))
		return
	}
	if sig.Kind == SignalCall {
		e.invoke(f, sig.Call)
		return
	}
	f.clearSlots()
	if !value.IsTruthy(sig.Value) {
		e.popControl(f)
		return
	}
	f.push(blockControl(c.whileStmt.Body))
}

// stepTry runs when the clause the try control pushed has finished normally.
func (e *Engine) stepTry(f *CallFrame, c *control) {
	switch c.phase {
	case phaseTry, phaseCatch:
		e.closeTry(c)
		if c.tryStmt.FinallyBlock != nil {
			e.enterFinally(f, c, nil)
			return
		}
		e.popControl(f)
	case phaseFinally:
		pending := c.pending
		c.block.State = TryClosed
		e.popControl(f)
		if pending != nil {
			e.unwind(pending)
		}
	}
}

func (e *Engine) enterFinally(f *CallFrame, c *control, pending *completion) {
	c.phase = phaseFinally
	c.pending = pending
	c.block.State = TryFinally
	f.push(blockControl(c.tryStmt.FinallyBlock))
}

// closeTry removes the control's block from the exception stack once.
func (e *Engine) closeTry(c *control) {
	if c.closed {
		return
	}
	c.closed = true
	e.exceptions.Pop(c.block)
	if c.tryStmt.FinallyBlock == nil {
		c.block.State = TryClosed
	}
	e.log.Trace().Int("block", c.block.ID).Int("level", c.block.Level).Msg("try block popped")
}

func (e *Engine) popControl(f *CallFrame) {
	c := f.pop()
	if c.kind == ctlTry {
		e.closeTry(c)
	}
	if c.loopScope {
		e.scope.ExitLoopScope()
	}
}

// unwind carries comp down the control stacks until a loop, a try clause or
// a frame boundary absorbs it.
func (e *Engine) unwind(comp *completion) {
	for {
		f := e.stack.Top()
		f.clearSlots()
		for len(f.controls) > 0 {
			c := f.top()
			switch c.kind {
			case ctlFor, ctlWhile:
				switch comp.kind {
				case compBreak:
					e.popControl(f)
					return
				case compContinue:
					return
				}
				e.popControl(f)
			case ctlTry:
				if e.handleTry(f, c, comp) {
					return
				}
			default:
				e.popControl(f)
			}
		}

		switch comp.kind {
		case compReturn:
			e.completeFrame(comp.value)
			return
		case compBreak, compContinue:
			comp = &completion{kind: compError, err: dcerr.Runtimef(0, "%s outside of loop", comp.kind)}
		}
		if !e.abandonFrame(comp.err) {
			return
		}
	}
}

// handleTry reports whether the try control absorbed comp. When it does
// not, the control has been popped.
func (e *Engine) handleTry(f *CallFrame, c *control, comp *completion) bool {
	switch c.phase {
	case phaseTry:
		if comp.kind == compError {
			if c.tryStmt.CatchBlock != nil {
				e.enterCatch(f, c, comp.err)
				return true
			}
			c.block.State = TryUncaught
		}
	case phaseFinally:
		// the new completion replaces whatever the finally was holding
		c.block.State = TryClosed
		e.popControl(f)
		return false
	}

	e.closeTry(c)
	if c.tryStmt.FinallyBlock != nil {
		e.enterFinally(f, c, comp)
		return true
	}
	e.popControl(f)
	return false
}

func (e *Engine) enterCatch(f *CallFrame, c *control, err *dcerr.Error) {
	c.phase = phaseCatch
	c.block.State = TryCaught
	body := blockControl(c.tryStmt.CatchBlock)
	if c.block.CatchVar != "" {
		e.scope.EnterLoopScope()
		body.loopScope = true
		e.scope.SetLoopVariable(c.block.CatchVar, &value.String{Value: catchMessage(err)})
	}
	e.log.Debug().Int("block", c.block.ID).Str("error", err.Error()).Msg("exception caught")
	f.push(body)
}

// catchMessage is what a catch variable holds: the thrown text for a user
// exception, the full error display otherwise.
func catchMessage(err *dcerr.Error) string {
	if err.Kind == dcerr.KindUserException {
		return err.Message
	}
	return err.Error()
}

// execStatement runs one statement of a block. A Value signal means the
// statement is finished (child blocks it opened are already pushed).
func (e *Engine) execStatement(f *CallFrame, stmt ast.Statement) (ExecSignal, *completion) {
	line := ast.Line(stmt)
	fail := func(err error) (ExecSignal, *completion) {
		return ExecSignal{}, errorCompletion(err, line)
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		sig, err := e.eval(f, s.Expression)
		if err != nil {
			return fail(err)
		}
		if sig.Kind == SignalValue && f.Function == nil {
			e.lastValue = sig.Value
		}
		return sig, nil

	case *ast.AssignStatement:
		sig, err := e.eval(f, s.Value)
		if err != nil || sig.Kind != SignalValue {
			return e.passOn(sig, err, line)
		}
		e.scope.Set(s.Name.Value, sig.Value, s.Scope == ast.ScopeGlobal)
		return sig, nil

	case *ast.IndexAssignStatement:
		return e.execIndexAssign(f, s)

	case *ast.FunctionStatement:
		e.define(s)
		return valueSignal(value.NULL), nil

	case *ast.ReturnStatement:
		if s.ReturnValue == nil {
			return returnSignal(value.NULL), nil
		}
		if req, sig, err, ok := e.tailCall(f, s); ok {
			if err != nil || sig != nil {
				return e.passOn(deref(sig), err, line)
			}
			return callSignal(req), nil
		}
		sig, err := e.eval(f, s.ReturnValue)
		if err != nil || sig.Kind != SignalValue {
			return e.passOn(sig, err, line)
		}
		return returnSignal(sig.Value), nil

	case *ast.ThrowStatement:
		msg := ""
		if s.Value != nil {
			sig, err := e.eval(f, s.Value)
			if err != nil || sig.Kind != SignalValue {
				return e.passOn(sig, err, line)
			}
			msg = sig.Value.Inspect()
		}
		return ExecSignal{}, &completion{kind: compError, err: dcerr.UserException(line, msg)}

	case *ast.BreakStatement:
		if !f.inLoop() {
			return fail(dcerr.Runtime(line, "break outside of loop"))
		}
		return ExecSignal{}, &completion{kind: compBreak}

	case *ast.ContinueStatement:
		if !f.inLoop() {
			return fail(dcerr.Runtime(line, "continue outside of loop"))
		}
		return ExecSignal{}, &completion{kind: compContinue}

	case *ast.IfStatement:
		sig, err := e.eval(f, s.Condition)
		if err != nil || sig.Kind != SignalValue {
			return e.passOn(sig, err, line)
		}
		if value.IsTruthy(sig.Value) {
			f.push(blockControl(s.Consequence))
		} else if s.Alternative != nil {
			f.push(blockControl(s.Alternative))
		}
		return valueSignal(value.NULL), nil

	case *ast.WhileStatement:
		f.push(&control{kind: ctlWhile, whileStmt: s})
		return valueSignal(value.NULL), nil

	case *ast.ForStatement:
		sig, err := e.eval(f, s.Iterable)
		if err != nil || sig.Kind != SignalValue {
			return e.passOn(sig, err, line)
		}
		items, err := iterate(sig.Value)
		if err != nil {
			return fail(err)
		}
		e.scope.EnterLoopScope()
		f.push(&control{kind: ctlFor, forStmt: s, items: items, loopScope: true})
		return valueSignal(value.NULL), nil

	case *ast.TryStatement:
		b := e.exceptions.Push(s)
		e.log.Trace().Int("block", b.ID).Int("level", b.Level).Msg("try block pushed")
		f.push(&control{kind: ctlTry, tryStmt: s, block: b})
		f.push(blockControl(s.TryBlock))
		return valueSignal(value.NULL), nil

	case *ast.BlockStatement:
		f.push(blockControl(s))
		return valueSignal(value.NULL), nil
	}
	return fail(dcerr.Runtimef(line, "Unsupported statement %T", stmt))
}

// passOn forwards an evaluation outcome that did not produce a value.
func (e *Engine) passOn(sig ExecSignal, err error, line int) (ExecSignal, *completion) {
	if err != nil {
		return ExecSignal{}, errorCompletion(err, line)
	}
	return sig, nil
}

// tailCall recognises `return f(...)` for a user function in a frame with no
// open try; such a call replaces the current frame.
func (e *Engine) tailCall(f *CallFrame, s *ast.ReturnStatement) (*CallRequest, *ExecSignal, error, bool) {
	ce, ok := s.ReturnValue.(*ast.CallExpression)
	if !ok || f.Function == nil || f.inTry() {
		return nil, nil, nil, false
	}
	if _, ok := e.functions[ce.Callee()]; !ok {
		return nil, nil, nil, false
	}
	if _, done := f.slots[ce]; done {
		return nil, nil, nil, false
	}
	req, sig, err := e.prepareCall(f, ce)
	if req != nil {
		req.Tail = true
	}
	return req, sig, err, true
}

func (e *Engine) define(s *ast.FunctionStatement) {
	name := s.Name.Value
	e.functions[name] = &value.Function{
		Name:       name,
		Parameters: s.Parameters,
		Body:       s.Body,
		Scope:      s.Scope,
		Line:       s.Token.Line,
	}
	e.purity.Invalidate()
	if e.cache != nil {
		if n := e.cache.InvalidateFunction(name); n > 0 {
			e.log.Debug().Str("function", name).Int("entries", n).Msg("cache invalidated")
		}
	}
}

func iterate(v value.Value) ([]value.Value, error) {
	switch it := v.(type) {
	case *value.Array:
		out := make([]value.Value, len(it.Elements))
		copy(out, it.Elements)
		return out, nil
	case *value.String:
		var out []value.Value
		for _, r := range it.Value {
			out = append(out, &value.String{Value: string(r)})
		}
		return out, nil
	case *value.Table:
		n := it.Len()
		out := make([]value.Value, 0, n)
		for i := 0; i < n; i++ {
			row, ok := it.RowObject(i)
			if !ok {
				break
			}
			out = append(out, row)
		}
		return out, nil
	case *value.Object:
		keys := it.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = &value.String{Value: k}
		}
		return out, nil
	}
	return nil, dcerr.TypeMismatch(0, "Array, String, Table or Object", string(v.Type()))
}

/* -------------------- index assignment -------------------- */

func (e *Engine) execIndexAssign(f *CallFrame, s *ast.IndexAssignStatement) (ExecSignal, *completion) {
	line := s.Token.Line

	var path []*ast.IndexExpression
	var target ast.Expression = s.Left
	for {
		ie, ok := target.(*ast.IndexExpression)
		if !ok {
			break
		}
		path = append([]*ast.IndexExpression{ie}, path...)
		target = ie.Left
	}
	root, ok := target.(*ast.Identifier)
	if !ok {
		return ExecSignal{}, errorCompletion(dcerr.Runtimef(line, "Cannot assign to %s", s.Left.String()), line)
	}

	keys := make([]value.Value, len(path))
	for i, ie := range path {
		sig, err := e.eval(f, ie.Index)
		if err != nil || sig.Kind != SignalValue {
			return e.passOn(sig, err, line)
		}
		keys[i] = sig.Value
	}
	sig, err := e.eval(f, s.Value)
	if err != nil || sig.Kind != SignalValue {
		return e.passOn(sig, err, line)
	}
	current, ok := e.scope.Get(root.Value)
	if !ok {
		_, err := e.lookup(root)
		return ExecSignal{}, errorCompletion(err, line)
	}
	updated, err := setIndex(current, keys, sig.Value)
	if err != nil {
		return ExecSignal{}, errorCompletion(err, line)
	}
	e.scope.Update(root.Value, updated)
	return sig, nil
}

// setIndex returns a copy of container with the value at keys replaced.
// Arrays and objects are values; tables are shared and cannot be assigned
// into by index.
func setIndex(container value.Value, keys []value.Value, v value.Value) (value.Value, error) {
	if len(keys) == 0 {
		return v, nil
	}
	switch c := container.(type) {
	case *value.Array:
		n, ok := keys[0].(*value.Number)
		if !ok {
			return nil, dcerr.Runtime(0, "Array index must be an integer")
		}
		i, err := position("Array", n.Value, len(c.Elements))
		if err != nil {
			return nil, err
		}
		inner, err := setIndex(c.Elements[i], keys[1:], v)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(c.Elements))
		copy(out, c.Elements)
		out[i] = inner
		return &value.Array{Elements: out}, nil
	case *value.Object:
		k, ok := keys[0].(*value.String)
		if !ok {
			return nil, dcerr.TypeMismatch(0, "String key", string(keys[0].Type()))
		}
		var inner value.Value = v
		if len(keys) > 1 {
			existing, ok := c.Pairs[k.Value]
			if !ok {
				return nil, dcerr.Runtimef(0, "Key '%s' not found in object", k.Value)
			}
			var err error
			if inner, err = setIndex(existing, keys[1:], v); err != nil {
				return nil, err
			}
		}
		out := value.NewObject()
		for key, val := range c.Pairs {
			out.Pairs[key] = val
		}
		out.Pairs[k.Value] = inner
		return out, nil
	}
	return nil, dcerr.Runtimef(0, "Cannot assign by index into %s", container.Type())
}
