package format

import "fmt"

// FormatRef is an opaque handle to a named format definition within a
// Module, used by builder code to express recursion via ItemVar instead of
// direct structural self-reference (spec.md §3.6, §9: "model the module as
// an arena... and never use direct owning pointers between formats").
type FormatRef int

// ArgSig names one formal argument of a named format, bound at each
// ItemVar call site into a fresh scope (spec.md §3.5 ItemVar).
type ArgSig struct {
	Name string
}

// Def is one entry of a Module: a name, its argument signature, and its
// body. Direct structural recursion is never expressed here; a Def's body
// refers back to itself (or to a later-defined format) only through
// ItemVar(ref).
type Def struct {
	Name string
	Args []ArgSig
	Body Format
}

// Module is an ordered vector of named format definitions (spec.md §3.6).
type Module struct {
	defs   []Def
	byName map[string]FormatRef
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{byName: make(map[string]FormatRef)}
}

// Reserve allocates a Def slot and returns its FormatRef before the body is
// known, which is what makes recursive definitions possible: the body,
// built afterward, can already refer to this ref via ItemVar. Define must
// be called on the returned ref before Compile is run.
func (m *Module) Reserve(name string, args ...string) FormatRef {
	ref := FormatRef(len(m.defs))
	sigs := make([]ArgSig, len(args))
	for i, a := range args {
		sigs[i] = ArgSig{Name: a}
	}
	m.defs = append(m.defs, Def{Name: name, Args: sigs})
	m.byName[name] = ref
	return ref
}

// Define fills in the body for a ref previously returned by Reserve.
func (m *Module) Define(ref FormatRef, body Format) {
	m.defs[ref].Body = body
}

// DefineNew is a convenience for the common non-recursive (or
// externally-recursive-via-a-later-Reserve) case: Reserve then Define in
// one call.
func (m *Module) DefineNew(name string, args []string, body Format) FormatRef {
	ref := m.Reserve(name, args...)
	m.Define(ref, body)
	return ref
}

// Lookup resolves a name to its FormatRef.
func (m *Module) Lookup(name string) (FormatRef, bool) {
	ref, ok := m.byName[name]
	return ref, ok
}

// Get returns the Def for ref. Panics if ref is out of range, which
// indicates a programming error in the module builder (an ItemVar
// referencing a ref never Reserve()d), not a malformed input.
func (m *Module) Get(ref FormatRef) *Def {
	if int(ref) < 0 || int(ref) >= len(m.defs) {
		panic(fmt.Sprintf("format: FormatRef %d out of range (module has %d defs)", ref, len(m.defs)))
	}
	return &m.defs[ref]
}

// Len returns the number of definitions registered.
func (m *Module) Len() int { return len(m.defs) }
