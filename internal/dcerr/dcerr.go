// Package dcerr defines the typed errors raised while running DataCode.
package dcerr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindSyntax Kind = iota
	KindRuntime
	KindType
	KindVariable
	KindFunction
	KindFileSystem
	KindExpression
	KindUserException
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "Syntax Error"
	case KindRuntime:
		return "Runtime Error"
	case KindType:
		return "Type Error"
	case KindVariable:
		return "Variable Error"
	case KindFunction:
		return "Function Error"
	case KindFileSystem:
		return "File System Error"
	case KindExpression:
		return "Expression Error"
	case KindUserException:
		return "User Exception"
	}
	return "Error"
}

// Reason narrows the Variable, Function and FileSystem kinds.
type Reason int

const (
	ReasonNone Reason = iota
	VariableNotFound
	VariableAlreadyDefined
	VariableInvalidScope
	FunctionNotFound
	WrongArgumentCount
	InvalidArgument
	InvalidReturn
	FileNotFound
	PermissionDenied
	InvalidPath
	UnsupportedFormat
	ReadError
	WriteError
)

type Error struct {
	Kind   Kind
	Reason Reason
	Line   int
	Column int

	// Name is the variable, function or path the error is about.
	Name     string
	Expected string
	Found    string
	Index    int
	Expr     string
	Message  string

	Suggestion string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	switch {
	case e.Kind == KindSyntax:
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	case e.Line > 0:
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Detail())
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean '%s'?)", e.Suggestion)
	}
	return b.String()
}

// Detail is the message without the kind and position prefix.
func (e *Error) Detail() string {
	switch e.Reason {
	case VariableNotFound:
		return fmt.Sprintf("Variable '%s' not found", e.Name)
	case VariableAlreadyDefined:
		return fmt.Sprintf("Variable '%s' already defined", e.Name)
	case VariableInvalidScope:
		return fmt.Sprintf("Invalid scope for variable '%s'", e.Name)
	case FunctionNotFound:
		return fmt.Sprintf("Function '%s' not found", e.Name)
	case WrongArgumentCount:
		return fmt.Sprintf("Function '%s' expects %s arguments, found %s", e.Name, e.Expected, e.Found)
	case InvalidArgument:
		if e.Index < 0 {
			return fmt.Sprintf("Function '%s' has no parameter '%s'", e.Name, e.Found)
		}
		return fmt.Sprintf("Function '%s' argument %d expects %s, found %s", e.Name, e.Index+1, e.Expected, e.Found)
	case InvalidReturn:
		return fmt.Sprintf("Function '%s' returned invalid value", e.Name)
	case FileNotFound:
		return fmt.Sprintf("File or directory '%s' not found", e.Name)
	case PermissionDenied:
		return fmt.Sprintf("Permission denied for '%s'", e.Name)
	case InvalidPath:
		return fmt.Sprintf("Invalid path '%s'", e.Name)
	case UnsupportedFormat:
		return fmt.Sprintf("Unsupported file format '%s'", e.Name)
	case ReadError:
		return fmt.Sprintf("Failed to read '%s': %s", e.Name, e.Message)
	case WriteError:
		return fmt.Sprintf("Failed to write '%s': %s", e.Name, e.Message)
	}
	switch e.Kind {
	case KindType:
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
	case KindExpression:
		return fmt.Sprintf("%s in '%s'", e.Message, e.Expr)
	}
	return e.Message
}

// WithLine fills in the line when the error does not carry one yet.
func (e *Error) WithLine(line int) *Error {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// As unwraps err into a *Error.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// FromError turns any error into a runtime *Error at line.
func FromError(err error, line int) *Error {
	if de, ok := As(err); ok {
		return de.WithLine(line)
	}
	return Runtime(line, err.Error())
}

/* -------------------- constructors -------------------- */

func Syntax(line, col int, msg string) *Error {
	return &Error{Kind: KindSyntax, Line: line, Column: col, Message: msg}
}

func Runtime(line int, msg string) *Error {
	return &Error{Kind: KindRuntime, Line: line, Message: msg}
}

func Runtimef(line int, format string, args ...any) *Error {
	return Runtime(line, fmt.Sprintf(format, args...))
}

func TypeMismatch(line int, expected, found string) *Error {
	return &Error{Kind: KindType, Line: line, Expected: expected, Found: found}
}

func VarNotFound(line int, name string) *Error {
	return &Error{Kind: KindVariable, Reason: VariableNotFound, Line: line, Name: name}
}

func VarAlreadyDefined(line int, name string) *Error {
	return &Error{Kind: KindVariable, Reason: VariableAlreadyDefined, Line: line, Name: name}
}

func VarInvalidScope(line int, name string) *Error {
	return &Error{Kind: KindVariable, Reason: VariableInvalidScope, Line: line, Name: name}
}

func FuncNotFound(line int, name string) *Error {
	return &Error{Kind: KindFunction, Reason: FunctionNotFound, Line: line, Name: name}
}

func ArgCount(line int, name string, expected, found int) *Error {
	return &Error{
		Kind:     KindFunction,
		Reason:   WrongArgumentCount,
		Line:     line,
		Name:     name,
		Expected: fmt.Sprint(expected),
		Found:    fmt.Sprint(found),
	}
}

// ArgCountRange reports a count outside [min, max]; max < 0 means unbounded.
func ArgCountRange(line int, name string, min, max, found int) *Error {
	var expected string
	switch {
	case max < 0:
		expected = fmt.Sprintf("at least %d", min)
	case min == max:
		expected = fmt.Sprint(min)
	default:
		expected = fmt.Sprintf("%d to %d", min, max)
	}
	return &Error{
		Kind:     KindFunction,
		Reason:   WrongArgumentCount,
		Line:     line,
		Name:     name,
		Expected: expected,
		Found:    fmt.Sprint(found),
	}
}

func InvalidArg(line int, name string, index int, expected, found string) *Error {
	return &Error{
		Kind:     KindFunction,
		Reason:   InvalidArgument,
		Line:     line,
		Name:     name,
		Index:    index,
		Expected: expected,
		Found:    found,
	}
}

// UnknownParam reports a named argument that matches no parameter.
func UnknownParam(line int, name, param string) *Error {
	return &Error{Kind: KindFunction, Reason: InvalidArgument, Line: line, Name: name, Index: -1, Found: param}
}

func BadReturn(line int, name string) *Error {
	return &Error{Kind: KindFunction, Reason: InvalidReturn, Line: line, Name: name}
}

func FileSystem(line int, reason Reason, path, detail string) *Error {
	return &Error{Kind: KindFileSystem, Reason: reason, Line: line, Name: path, Message: detail}
}

func Expression(line int, expr, msg string) *Error {
	return &Error{Kind: KindExpression, Line: line, Expr: expr, Message: msg}
}

func UserException(line int, msg string) *Error {
	return &Error{Kind: KindUserException, Line: line, Message: msg}
}
