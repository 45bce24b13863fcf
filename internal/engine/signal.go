package engine

import (
	"datacode/internal/ast"
	"datacode/internal/value"
)

type SignalKind int

const (
	SignalValue SignalKind = iota
	SignalCall
	SignalReturn
)

func (k SignalKind) String() string {
	switch k {
	case SignalCall:
		return "Call"
	case SignalReturn:
		return "Return"
	}
	return "Value"
}

// CallRequest asks the driver to run a user function before the caller
// can proceed. Slot is the call node whose value the caller is waiting for.
type CallRequest struct {
	Function *value.Function
	Args     []value.Value
	Slot     *ast.CallExpression
	Line     int
	Tail     bool
}

// ExecSignal is what evaluating an expression or statement hands back to
// the driver loop.
type ExecSignal struct {
	Kind  SignalKind
	Value value.Value
	Call  *CallRequest
}

func valueSignal(v value.Value) ExecSignal {
	return ExecSignal{Kind: SignalValue, Value: v}
}

func callSignal(req *CallRequest) ExecSignal {
	return ExecSignal{Kind: SignalCall, Call: req}
}

func returnSignal(v value.Value) ExecSignal {
	return ExecSignal{Kind: SignalReturn, Value: v}
}
