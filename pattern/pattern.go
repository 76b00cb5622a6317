// Package pattern implements the structural pattern language used by
// Format's Match constructor and Expr's Match operator (spec.md §3.4).
package pattern

import "github.com/doodle-lang/doodle/value"

// Kind tags the case of a Pattern.
type Kind uint8

const (
	KindBinding Kind = iota
	KindWildcard
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindChar
	KindTuple
	KindVariant
	KindSeq
)

// Pattern is a single node of the sum type documented in spec.md §3.4.
type Pattern struct {
	Kind Kind

	Name string // KindBinding

	Bool bool
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	Char rune

	Elems []Pattern // KindTuple, KindSeq

	Label string   // KindVariant
	Inner *Pattern // KindVariant
}

func Binding(name string) Pattern { return Pattern{Kind: KindBinding, Name: name} }
func Wildcard() Pattern           { return Pattern{Kind: KindWildcard} }
func Bool(b bool) Pattern         { return Pattern{Kind: KindBool, Bool: b} }
func U8(v uint8) Pattern          { return Pattern{Kind: KindU8, U8: v} }
func U16(v uint16) Pattern        { return Pattern{Kind: KindU16, U16: v} }
func U32(v uint32) Pattern        { return Pattern{Kind: KindU32, U32: v} }
func U64(v uint64) Pattern        { return Pattern{Kind: KindU64, U64: v} }
func Char(c rune) Pattern         { return Pattern{Kind: KindChar, Char: c} }
func Tuple(elems ...Pattern) Pattern { return Pattern{Kind: KindTuple, Elems: elems} }
func Seq(elems ...Pattern) Pattern   { return Pattern{Kind: KindSeq, Elems: elems} }

func Variant(label string, inner Pattern) Pattern {
	return Pattern{Kind: KindVariant, Label: label, Inner: &inner}
}

// Bindings accumulates (name -> Value) pairs discovered while matching.
// Order of insertion follows the order Binding patterns are visited during
// the match, left to right, depth first.
type Bindings struct {
	names  []string
	values []value.Value
}

// Set records a binding, appending to preserve insertion order.
func (b *Bindings) Set(name string, v value.Value) {
	b.names = append(b.names, name)
	b.values = append(b.values, v)
}

// Lookup finds the most recently set binding for name, shadowing earlier
// ones the way nested pattern scopes shadow outer ones.
func (b *Bindings) Lookup(name string) (value.Value, bool) {
	for i := len(b.names) - 1; i >= 0; i-- {
		if b.names[i] == name {
			return b.values[i], true
		}
	}
	return value.Value{}, false
}

// Names returns the bound names in the order they were set, duplicates
// included; callers that need the current value for each should use
// Lookup (which resolves shadowing) rather than the parallel values here.
func (b *Bindings) Names() []string {
	return b.names
}

// Match attempts to match p structurally against v, threading through
// value.Coerce (so Mapped/Branch wrappers are transparent, per spec.md
// §3.4) and recording every Binding encountered into bindings. It reports
// whether the match succeeded; on failure, bindings may have been
// partially populated and must be discarded by the caller.
func Match(p Pattern, v value.Value, bindings *Bindings) bool {
	v = value.Coerce(v)
	switch p.Kind {
	case KindBinding:
		bindings.Set(p.Name, v)
		return true
	case KindWildcard:
		return true
	case KindBool:
		return v.Kind == value.KindBool && v.Bool == p.Bool
	case KindU8:
		return v.Kind == value.KindU8 && v.U8 == p.U8
	case KindU16:
		return v.Kind == value.KindU16 && v.U16 == p.U16
	case KindU32:
		return v.Kind == value.KindU32 && v.U32 == p.U32
	case KindU64:
		return v.Kind == value.KindU64 && v.U64 == p.U64
	case KindChar:
		return v.Kind == value.KindChar && v.Char == p.Char
	case KindTuple:
		if v.Kind != value.KindTuple || len(v.Tuple) != len(p.Elems) {
			return false
		}
		for i, elem := range p.Elems {
			if !Match(elem, v.Tuple[i], bindings) {
				return false
			}
		}
		return true
	case KindSeq:
		if v.Kind != value.KindSeq || len(v.Tuple) != len(p.Elems) {
			return false
		}
		for i, elem := range p.Elems {
			if !Match(elem, v.Tuple[i], bindings) {
				return false
			}
		}
		return true
	case KindVariant:
		if v.Kind != value.KindVariant || v.Label != p.Label {
			return false
		}
		return Match(*p.Inner, *v.Variant, bindings)
	default:
		return false
	}
}

// FirstMatch tries each (pattern, branch) pair in order and returns the
// index of the first one whose pattern matches v, along with the bindings
// accumulated by that match (spec.md §3.3 Match, §5 ordering rule: patterns
// are tested in declaration order). Returns ok=false if none match, which
// the caller (expr.Eval, interp) treats as a fatal non-exhaustive match per
// spec.md §4.7/§7.
func FirstMatch(v value.Value, patterns []Pattern) (index int, bindings Bindings, ok bool) {
	for i, p := range patterns {
		var b Bindings
		if Match(p, v, &b) {
			return i, b, true
		}
	}
	return -1, Bindings{}, false
}
