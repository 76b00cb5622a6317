// Package interp walks a compiled decoder.Program against an input buffer,
// producing a value.Value (Run) or a location-annotated value.ParsedValue
// (RunExt), per spec.md §4.4.
package interp

import (
	"github.com/doodle-lang/doodle/decoder"
	"github.com/doodle-lang/doodle/expr"
	"github.com/doodle-lang/doodle/value"
)

// dynFrame is a cons cell of dynamically-bound decoders (spec.md §4.4's
// Scope variant "Decoder"), kept separate from expr.Frame's value bindings
// since a compiled Huffman decoder is not itself a value.Value. The bound
// decoder is a fully compiled decoder.Decoder (a Union over the alphabet's
// per-symbol bit patterns, spec.md §4.6), not a hand-rolled lookup table.
type dynFrame struct {
	name    string
	decoder decoder.Decoder
	parent  *dynFrame
}

// Scope is the interpreter's lexical environment: an expr.Frame for
// ordinary value bindings (Record fields, Let, Call argument lists)
// layered with an independent chain of Dynamic decoder bindings.
type Scope struct {
	values *expr.Frame
	dyn    *dynFrame
}

// NewScope returns the empty scope.
func NewScope() *Scope {
	return &Scope{values: expr.Empty()}
}

// ExtendMulti pushes a Multi frame (Record fields, Call arguments).
func (s *Scope) ExtendMulti(entries []expr.Entry) *Scope {
	return &Scope{values: s.values.ExtendMulti(entries), dyn: s.dyn}
}

// ExtendSingle pushes a Single frame (Let, Match pattern bindings).
func (s *Scope) ExtendSingle(name string, v value.Value) *Scope {
	return &Scope{values: s.values.ExtendSingle(name, v), dyn: s.dyn}
}

// BindDecoder pushes a Dynamic decoder binding.
func (s *Scope) BindDecoder(name string, d decoder.Decoder) *Scope {
	return &Scope{values: s.values, dyn: &dynFrame{name: name, decoder: d, parent: s.dyn}}
}

// Lookup resolves an ordinary value binding.
func (s *Scope) Lookup(name string) (value.Value, bool) {
	return s.values.Lookup(name)
}

// LookupDecoder resolves a Dynamic decoder binding, innermost first.
func (s *Scope) LookupDecoder(name string) (decoder.Decoder, bool) {
	for f := s.dyn; f != nil; f = f.parent {
		if f.name == name {
			return f.decoder, true
		}
	}
	return decoder.Decoder{}, false
}

// Frame exposes the underlying expr.Frame for evaluating expr.Expr nodes
// (expr.Eval takes *expr.Frame, not *Scope).
func (s *Scope) Frame() *expr.Frame { return s.values }
