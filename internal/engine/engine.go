// Package engine runs DataCode programs on an explicit call stack.
//
// User function calls never recurse on the Go stack: the evaluator hands a
// call back to the driver loop as a signal, the driver pushes a frame, and
// when the frame returns its value is written into the caller's slot map so
// the interrupted statement can be evaluated again to completion.
package engine

import (
	"context"
	"io"
	"sort"
	"time"

	"datacode/internal/analysis"
	"datacode/internal/ast"
	"datacode/internal/builtins"
	"datacode/internal/cache"
	"datacode/internal/dcerr"
	"datacode/internal/limits"
	"datacode/internal/parser"
	"datacode/internal/runtimeio"
	"datacode/internal/scope"
	"datacode/internal/suggest"
	"datacode/internal/value"

	"github.com/rs/zerolog"
)

// Builtins is the builtin function capability the engine calls into.
type Builtins interface {
	Has(name string) bool
	Pure(name string) bool
	Call(name string, args []value.Value, line int) (value.Value, error)
	Names() []string
}

// outputSetter is implemented by builtin sets whose print sink can move.
type outputSetter interface {
	Output() io.Writer
	SetOutput(w io.Writer)
}

// cancelCheckInterval is how many driver steps run between context checks.
const cancelCheckInterval = 1024

type Engine struct {
	scope      *scope.Manager
	functions  map[string]*value.Function
	builtins   Builtins
	cache      *cache.Cache
	purity     *analysis.Purity
	stack      *CallStack
	exceptions *ExceptionStack
	log        zerolog.Logger

	running   bool
	done      bool
	lastValue value.Value
	outcome   value.Value
	outErr    *dcerr.Error
}

type options struct {
	maxDepth     int
	cacheEnabled bool
	cacheSize    int
	cacheTTL     time.Duration
	out          io.Writer
	console      *runtimeio.Console
	now          func() time.Time
	log          zerolog.Logger
	builtins     Builtins
}

type Option func(*options)

func WithMaxCallDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithCache enables result caching with the given capacity and time to live.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheEnabled = true
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

func WithoutCache() Option {
	return func(o *options) { o.cacheEnabled = false }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithOutput sets where print writes.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func WithConsole(c *runtimeio.Console) Option {
	return func(o *options) { o.console = c }
}

// WithClock replaces time.Now for the cache and the now builtin.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBuiltins replaces the default builtin registry.
func WithBuiltins(b Builtins) Option {
	return func(o *options) { o.builtins = b }
}

func New(opts ...Option) *Engine {
	o := options{
		maxDepth:     limits.DefaultMaxCallDepth,
		cacheEnabled: true,
		cacheSize:    limits.DefaultCacheSize,
		cacheTTL:     limits.DefaultCacheTTL,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := o.builtins
	if b == nil {
		var ropts []builtins.Option
		if o.console != nil {
			ropts = append(ropts, builtins.WithConsole(o.console))
		}
		if o.now != nil {
			ropts = append(ropts, builtins.WithClock(o.now))
		}
		ropts = append(ropts, builtins.WithLogger(o.log))
		b = builtins.New(o.out, ropts...)
	}

	e := &Engine{
		scope:      scope.New(),
		functions:  map[string]*value.Function{},
		builtins:   b,
		stack:      NewCallStack(o.maxDepth),
		exceptions: NewExceptionStack(),
		log:        o.log,
	}
	if o.cacheEnabled {
		var copts []cache.Option
		if o.now != nil {
			copts = append(copts, cache.WithClock(o.now))
		}
		e.cache = cache.New(o.cacheSize, o.cacheTTL, copts...)
	}
	e.purity = analysis.NewPurity(b, func(name string) (*value.Function, bool) {
		fn, ok := e.functions[name]
		return fn, ok
	})
	return e
}

/* -------------------- embedding API -------------------- */

// Execute parses and runs source. The result is the value of a top-level
// return, or the last expression statement's value.
func (e *Engine) Execute(source string) (value.Value, error) {
	return e.ExecuteContext(context.Background(), source)
}

func (e *Engine) ExecuteContext(ctx context.Context, source string) (value.Value, error) {
	prog, diags := parser.Parse(source)
	if len(diags) > 0 {
		d := diags[0]
		return nil, dcerr.Syntax(d.Range.Line, d.Range.Col, d.Message)
	}
	return e.ExecuteProgramContext(ctx, prog)
}

func (e *Engine) ExecuteProgram(prog *ast.Program) (value.Value, error) {
	return e.ExecuteProgramContext(context.Background(), prog)
}

func (e *Engine) ExecuteProgramContext(ctx context.Context, prog *ast.Program) (value.Value, error) {
	if e.running {
		return nil, dcerr.Runtime(0, "engine is already running")
	}
	e.begin()
	defer func() { e.running = false }()

	main := newFrame(nil, nil)
	main.Entry = true
	main.push(&control{kind: ctlBlock, stmts: prog.Statements})
	_ = e.stack.Push(main)
	e.log.Debug().Int("statements", len(prog.Statements)).Msg("program started")

	return e.run(ctx)
}

// Call runs the user function name with positional arguments.
func (e *Engine) Call(name string, args ...value.Value) (value.Value, error) {
	return e.CallContext(context.Background(), name, args...)
}

func (e *Engine) CallContext(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if e.running {
		return nil, dcerr.Runtime(0, "engine is already running")
	}
	fn, ok := e.functions[name]
	if !ok {
		nf := dcerr.FuncNotFound(0, name)
		if s := suggest.Closest(name, e.callableNames()); s != "" {
			nf.WithSuggestion(s)
		}
		return nil, nf
	}
	bound, err := bindArguments(fn, args, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	e.begin()
	defer func() { e.running = false }()

	e.invoke(nil, &CallRequest{Function: fn, Args: bound})
	return e.run(ctx)
}

func (e *Engine) begin() {
	e.running = true
	e.done = false
	e.lastValue = nil
	e.outcome = nil
	e.outErr = nil
}

func (e *Engine) GetVariable(name string) (value.Value, bool) {
	return e.scope.Get(name)
}

func (e *Engine) GlobalVariables() map[string]value.Value {
	return e.scope.Globals()
}

func (e *Engine) SetVariable(name string, v value.Value, isGlobal bool) {
	e.scope.Set(name, v, isGlobal)
}

func (e *Engine) HasFunction(name string) bool {
	_, ok := e.functions[name]
	return ok
}

// Functions lists the defined user function names, sorted.
func (e *Engine) Functions() []string {
	names := make([]string, 0, len(e.functions))
	for n := range e.functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CacheStats reports zero values when caching is disabled.
func (e *Engine) CacheStats() cache.Stats {
	if e.cache == nil {
		return cache.Stats{}
	}
	return e.cache.Stats()
}

// LastValue is the value of the most recent top-level expression statement.
func (e *Engine) LastValue() value.Value {
	return e.lastValue
}

func (e *Engine) MaxCallDepth() int { return e.stack.MaxDepth() }

// Output returns the print sink, or nil when the builtins have none.
func (e *Engine) Output() io.Writer {
	if s, ok := e.builtins.(outputSetter); ok {
		return s.Output()
	}
	return nil
}

func (e *Engine) SetOutput(w io.Writer) {
	if s, ok := e.builtins.(outputSetter); ok {
		s.SetOutput(w)
	}
}

func (e *Engine) callableNames() []string {
	names := e.Functions()
	names = append(names, e.builtins.Names()...)
	return names
}

/* -------------------- driver -------------------- */

func (e *Engine) run(ctx context.Context) (value.Value, error) {
	for steps := 0; !e.done; steps++ {
		if steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				e.abort()
				return nil, dcerr.Runtimef(0, "execution cancelled: %v", err)
			}
		}
		e.step()
	}
	if e.outErr != nil {
		return nil, e.outErr
	}
	if e.outcome == nil {
		return value.NULL, nil
	}
	return e.outcome, nil
}

// abort drops every frame without storing results.
func (e *Engine) abort() {
	for e.stack.Len() > 0 {
		e.leaveFrame(e.stack.Pop(), nil, false)
	}
	e.exceptions.reset()
	e.scope.Reset()
	e.done = true
	e.log.Debug().Msg("execution aborted")
}

func (e *Engine) finish(v value.Value, err *dcerr.Error) {
	e.outcome = v
	e.outErr = err
	e.done = true
}

func (e *Engine) cacheable(name string, args []value.Value) bool {
	if e.cache == nil || !e.purity.Pure(name) {
		return false
	}
	for _, a := range args {
		if containsTable(a) {
			return false
		}
	}
	return true
}

// containsTable reports whether v is or holds a table. Tables are shared
// handles, so results involving them are never cached.
func containsTable(v value.Value) bool {
	switch x := v.(type) {
	case *value.Table, *value.RowIndex:
		return true
	case *value.Array:
		for _, el := range x.Elements {
			if containsTable(el) {
				return true
			}
		}
	case *value.Object:
		for _, el := range x.Pairs {
			if containsTable(el) {
				return true
			}
		}
	}
	return false
}

// invoke starts req on behalf of caller. A nil caller means the host is
// calling through Call and the new frame is an entry frame.
func (e *Engine) invoke(caller *CallFrame, req *CallRequest) {
	fn := req.Function
	fail := func(err error) {
		if caller == nil {
			e.finish(nil, dcerr.FromError(err, req.Line))
			return
		}
		e.unwind(errorCompletion(err, req.Line))
	}

	if !req.Tail {
		if err := e.stack.Check(fn.Name); err != nil {
			e.log.Debug().Str("function", fn.Name).Int("depth", e.stack.Depth()).Msg("call depth exceeded")
			fail(dcerr.Runtime(req.Line, err.Error()))
			return
		}
	}

	eligible := e.cacheable(fn.Name, req.Args)
	var key cache.Key
	if eligible {
		key = cache.NewKey(fn.Name, req.Args)
		if v, ok := e.cache.Get(key); ok {
			e.log.Trace().Str("function", fn.Name).Msg("cache hit")
			switch {
			case req.Tail:
				e.completeFrame(v)
			case caller == nil:
				e.finish(v, nil)
			default:
				caller.slots[req.Slot] = v
			}
			return
		}
	}

	frame := newFrame(fn, req.Args)
	frame.ReturnSlot = req.Slot
	frame.Line = req.Line
	if req.Tail {
		old := e.stack.Top()
		frame.ReturnSlot = old.ReturnSlot
		frame.Entry = old.Entry
		frame.Line = old.Line
		frame.cacheKeys = old.cacheKeys
		e.stack.ReplaceTop(frame)
		e.scope.ReplaceFunctionScope()
		e.log.Trace().Str("from", old.Name()).Str("to", fn.Name).Int("depth", frame.Depth).Msg("tail call")
	} else {
		frame.Entry = caller == nil
		if err := e.stack.Push(frame); err != nil {
			fail(dcerr.Runtime(req.Line, err.Error()))
			return
		}
		e.scope.EnterFunctionScope()
		e.log.Trace().Str("function", fn.Name).Int("depth", frame.Depth).Msg("frame pushed")
	}
	if eligible {
		e.cache.MarkInProgress(key)
		frame.cacheKeys = append(frame.cacheKeys, key)
	}

	for i, p := range fn.ParamNames() {
		e.scope.Set(p, req.Args[i], false)
	}
	frame.Locals = e.scope.Locals()
	frame.push(blockControl(fn.Body))
}

// completeFrame pops the top frame with result v (nil when the body ran off
// its end) and delivers v to the caller's slot or to the host.
func (e *Engine) completeFrame(v value.Value) {
	f := e.stack.Pop()
	if v == nil {
		v = value.NULL
		if f.Function == nil && e.lastValue != nil {
			v = e.lastValue
		}
	}
	e.leaveFrame(f, v, true)
	e.log.Trace().Str("function", f.Name()).Str("result", v.Inspect()).Msg("frame returned")
	if f.Entry {
		e.finish(v, nil)
		return
	}
	e.stack.Top().slots[f.ReturnSlot] = v
}

// abandonFrame pops the top frame after an unhandled error. It reports
// whether unwinding continues in a caller frame.
func (e *Engine) abandonFrame(err *dcerr.Error) bool {
	f := e.stack.Pop()
	e.leaveFrame(f, nil, false)
	e.log.Debug().Str("function", f.Name()).Str("error", err.Error()).Msg("frame unwound")
	if f.Entry {
		e.finish(nil, err)
		return false
	}
	return true
}

func (e *Engine) leaveFrame(f *CallFrame, v value.Value, store bool) {
	if f.Function != nil {
		e.scope.ExitFunctionScope()
	}
	if e.cache == nil {
		return
	}
	store = store && !containsTable(v)
	for _, k := range f.cacheKeys {
		e.cache.MarkCompleted(k)
		if store {
			e.cache.Put(k, v)
		}
	}
}
