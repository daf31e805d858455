package executor

import (
	"sort"

	"github.com/DeusData/kcl-ast/internal/ast"
)

// ProgramMemory is one lexical scope. Lookups fall through to the parent.
type ProgramMemory struct {
	parent *ProgramMemory
	vars   map[string]KclValue
}

func NewProgramMemory() *ProgramMemory {
	return &ProgramMemory{vars: make(map[string]KclValue)}
}

// Child returns a new scope nested in m.
func (m *ProgramMemory) Child() *ProgramMemory {
	c := NewProgramMemory()
	c.parent = m
	return c
}

// Get resolves name in m or any enclosing scope.
func (m *ProgramMemory) Get(name string) (KclValue, bool) {
	for s := m; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Add binds name in this scope. Rebinding a name of the same scope fails;
// shadowing an outer binding is allowed.
func (m *ProgramMemory) Add(name string, v KclValue, r ast.SourceRange) error {
	if _, ok := m.vars[name]; ok {
		return newError(ErrValueAlreadyDefined, r, "Cannot redefine `%s`", name)
	}
	m.vars[name] = v
	return nil
}

// Names returns the names bound directly in this scope, sorted.
func (m *ProgramMemory) Names() []string {
	names := make([]string, 0, len(m.vars))
	for k := range m.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the bindings of this scope keyed by name.
func (m *ProgramMemory) Snapshot() map[string]KclValue {
	out := make(map[string]KclValue, len(m.vars))
	for k, v := range m.vars {
		out[k] = v
	}
	return out
}
