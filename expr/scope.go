package expr

import "github.com/doodle-lang/doodle/value"

// Entry is one (name, Value) pair bound in a Multi frame, e.g. the
// argument bindings of an ItemVar call or the accumulating fields of a
// Record (spec.md §4.4).
type Entry struct {
	Name  string
	Value value.Value
}

// frameKind tags a Frame.
type frameKind uint8

const (
	frameEmpty frameKind = iota
	frameMulti
	frameSingle
)

// Frame is one lexical scope frame. Per the design notes in spec.md §9,
// scopes are a chain of borrowed parent pointers rather than a single
// flattened map: extension is allocation-light, and because parsing is
// single-threaded and synchronous a frame never outlives the call that
// created it.
type Frame struct {
	kind    frameKind
	entries []Entry // frameMulti
	name    string  // frameSingle
	value   value.Value
	parent  *Frame
}

// rootFrame is the root scope, used at the top of a parse and whenever a Call
// installs a fresh scope with no access to its caller's bindings (spec.md
// §4.4: "install as a fresh Multi scope over Empty").
var rootFrame = &Frame{kind: frameEmpty}

// Empty returns the root scope.
func Empty() *Frame { return rootFrame }

// ExtendMulti pushes a Multi frame of entries on top of f, used for
// Record/Call argument bindings. Entries are looked up in reverse order so
// a later-pushed field shadows an earlier one with the same name (though
// well-formed formats never rely on that: field/argument names must be
// unique by construction).
func (f *Frame) ExtendMulti(entries []Entry) *Frame {
	return &Frame{kind: frameMulti, entries: entries, parent: f}
}

// ExtendSingle pushes a Single frame, used by Let and Lambda parameter
// binding.
func (f *Frame) ExtendSingle(name string, v value.Value) *Frame {
	return &Frame{kind: frameSingle, name: name, value: v, parent: f}
}

// Lookup searches f and its ancestors for name, innermost first.
func (f *Frame) Lookup(name string) (value.Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		switch cur.kind {
		case frameSingle:
			if cur.name == name {
				return cur.value, true
			}
		case frameMulti:
			for i := len(cur.entries) - 1; i >= 0; i-- {
				if cur.entries[i].Name == name {
					return cur.entries[i].Value, true
				}
			}
		}
	}
	return value.Value{}, false
}
