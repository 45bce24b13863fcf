// Package scope resolves DataCode variable names across the loop, function
// and global tiers.
package scope

import (
	"sort"

	"datacode/internal/value"
)

type frame struct {
	locals map[string]value.Value
	loops  []map[string]value.Value
}

// Manager owns the global map and the stacks of function and loop maps.
// Loop maps belong to the function context that entered them, so a callee
// never sees its caller's loop variables.
type Manager struct {
	globals   map[string]value.Value
	functions []*frame
	topLoops  []map[string]value.Value
}

func New() *Manager {
	return &Manager{globals: map[string]value.Value{}}
}

func (m *Manager) loops() []map[string]value.Value {
	if n := len(m.functions); n > 0 {
		return m.functions[n-1].loops
	}
	return m.topLoops
}

func (m *Manager) setLoops(l []map[string]value.Value) {
	if n := len(m.functions); n > 0 {
		m.functions[n-1].loops = l
		return
	}
	m.topLoops = l
}

// Get looks up name: loop maps innermost first, then the innermost function
// locals, then globals.
func (m *Manager) Get(name string) (value.Value, bool) {
	loops := m.loops()
	for i := len(loops) - 1; i >= 0; i-- {
		if v, ok := loops[i][name]; ok {
			return v, true
		}
	}
	if n := len(m.functions); n > 0 {
		if v, ok := m.functions[n-1].locals[name]; ok {
			return v, true
		}
	}
	v, ok := m.globals[name]
	return v, ok
}

func (m *Manager) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Set writes to globals when isGlobal is true or no function is active,
// otherwise to the innermost function-local map.
func (m *Manager) Set(name string, v value.Value, isGlobal bool) {
	if isGlobal || len(m.functions) == 0 {
		m.globals[name] = v
		return
	}
	m.functions[len(m.functions)-1].locals[name] = v
}

// Update rebinds name in the tier it currently resolves to. It reports false
// when the name is not bound anywhere.
func (m *Manager) Update(name string, v value.Value) bool {
	loops := m.loops()
	for i := len(loops) - 1; i >= 0; i-- {
		if _, ok := loops[i][name]; ok {
			loops[i][name] = v
			return true
		}
	}
	if n := len(m.functions); n > 0 {
		if _, ok := m.functions[n-1].locals[name]; ok {
			m.functions[n-1].locals[name] = v
			return true
		}
	}
	if _, ok := m.globals[name]; ok {
		m.globals[name] = v
		return true
	}
	return false
}

// SetLoopVariable writes to the innermost loop map, entering one if none is active.
func (m *Manager) SetLoopVariable(name string, v value.Value) {
	loops := m.loops()
	if len(loops) == 0 {
		m.EnterLoopScope()
		loops = m.loops()
	}
	loops[len(loops)-1][name] = v
}

func (m *Manager) EnterFunctionScope() {
	m.functions = append(m.functions, &frame{locals: map[string]value.Value{}})
}

func (m *Manager) ExitFunctionScope() {
	if n := len(m.functions); n > 0 {
		m.functions[n-1] = nil
		m.functions = m.functions[:n-1]
	}
}

// ReplaceFunctionScope swaps the innermost function scope for a fresh one.
func (m *Manager) ReplaceFunctionScope() {
	if n := len(m.functions); n > 0 {
		m.functions[n-1] = &frame{locals: map[string]value.Value{}}
		return
	}
	m.EnterFunctionScope()
}

func (m *Manager) EnterLoopScope() {
	m.setLoops(append(m.loops(), map[string]value.Value{}))
}

func (m *Manager) ExitLoopScope() {
	loops := m.loops()
	if n := len(loops); n > 0 {
		loops[n-1] = nil
		m.setLoops(loops[:n-1])
	}
}

func (m *Manager) FunctionDepth() int { return len(m.functions) }
func (m *Manager) LoopDepth() int     { return len(m.loops()) }

// Locals returns the innermost function-local map, or nil at top level.
func (m *Manager) Locals() map[string]value.Value {
	if n := len(m.functions); n > 0 {
		return m.functions[n-1].locals
	}
	return nil
}

// Globals returns a snapshot of the global map.
func (m *Manager) Globals() map[string]value.Value {
	out := make(map[string]value.Value, len(m.globals))
	for k, v := range m.globals {
		out[k] = v
	}
	return out
}

// Names lists every resolvable name in the current context, sorted.
func (m *Manager) Names() []string {
	seen := map[string]bool{}
	for k := range m.globals {
		seen[k] = true
	}
	if n := len(m.functions); n > 0 {
		for k := range m.functions[n-1].locals {
			seen[k] = true
		}
	}
	for _, l := range m.loops() {
		for k := range l {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reset drops every scope except globals.
func (m *Manager) Reset() {
	m.functions = nil
	m.topLoops = nil
}
