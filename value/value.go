// Package value defines the runtime value model produced by the decoder
// interpreter: the sum-typed Value tree (spec.md §3.2) and its located
// sibling ParsedValue, which attaches parse-location metadata to every
// non-transparent node (spec.md §3.2, §4.4).
//
// Following the teacher's own style (nfa.State, nfa.StateKind), Value is
// represented as a single struct tagged by a Kind rather than an interface
// with one implementation per case: this keeps the zero value meaningful,
// avoids a boxed allocation per leaf, and matches how the rest of this
// codebase represents every other sum type (Expr, Pattern, Format, Decoder).
package value

import "fmt"

// Kind tags the case of a Value.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindChar
	KindTuple
	KindRecord
	KindVariant
	KindSeq
	KindMapped
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindU8:
		return "U8"
	case KindU16:
		return "U16"
	case KindU32:
		return "U32"
	case KindU64:
		return "U64"
	case KindChar:
		return "Char"
	case KindTuple:
		return "Tuple"
	case KindRecord:
		return "Record"
	case KindVariant:
		return "Variant"
	case KindSeq:
		return "Seq"
	case KindMapped:
		return "Mapped"
	case KindBranch:
		return "Branch"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field is one (label, Value) pair of a Record. Order is significant and
// labels are required to be unique within a Record (spec.md §3.2).
type Field struct {
	Label string
	Value Value
}

// Value is a single node of the sum-typed tree documented in spec.md §3.2.
// Exactly the fields relevant to Kind are meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Bool bool
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	Char rune

	Tuple   []Value // KindTuple, KindSeq (Seq reuses Tuple's backing slice)
	Record  []Field // KindRecord
	Label   string  // KindVariant
	Variant *Value  // KindVariant

	// KindMapped
	Original *Value
	Image    *Value

	// KindBranch
	BranchIndex int
	BranchValue *Value
}

func Bool(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func U8(v uint8) Value    { return Value{Kind: KindU8, U8: v} }
func U16(v uint16) Value  { return Value{Kind: KindU16, U16: v} }
func U32(v uint32) Value  { return Value{Kind: KindU32, U32: v} }
func U64(v uint64) Value  { return Value{Kind: KindU64, U64: v} }
func Char(v rune) Value   { return Value{Kind: KindChar, Char: v} }
func TupleOf(vs []Value) Value { return Value{Kind: KindTuple, Tuple: vs} }
func SeqOf(vs []Value) Value   { return Value{Kind: KindSeq, Tuple: vs} }
func RecordOf(fs []Field) Value { return Value{Kind: KindRecord, Record: fs} }

func VariantOf(label string, v Value) Value {
	vv := v
	return Value{Kind: KindVariant, Label: label, Variant: &vv}
}

func MappedOf(original, image Value) Value {
	o, im := original, image
	return Value{Kind: KindMapped, Original: &o, Image: &im}
}

func BranchOf(index int, v Value) Value {
	vv := v
	return Value{Kind: KindBranch, BranchIndex: index, BranchValue: &vv}
}

// Unit is the canonical empty tuple, used as the value of zero-width
// constructs such as PeekNot's success and EndOfInput's match.
func Unit() Value { return TupleOf(nil) }

// Coerce strips Mapped and Branch wrappers, exposing the underlying
// semantic value for projection, pattern matching, and equality (spec.md
// §3.2, invariant (e)). Mapped coerces to its image; Branch coerces to its
// payload. Mapped/Branch never nest on the value side, so one level of
// unwrapping per Kind suffices, but Coerce loops defensively in case a
// caller builds a value by hand that violates that invariant.
func Coerce(v Value) Value {
	for {
		switch v.Kind {
		case KindMapped:
			v = *v.Image
		case KindBranch:
			v = *v.BranchValue
		default:
			return v
		}
	}
}

// Equal reports deep, semantic equality: both sides are coerced before
// comparison, field labels and ordering matter for records, and ordering
// matters for tuples/sequences.
func Equal(a, b Value) bool {
	a, b = Coerce(a), Coerce(b)
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.Bool == b.Bool
	case KindU8:
		return a.U8 == b.U8
	case KindU16:
		return a.U16 == b.U16
	case KindU32:
		return a.U32 == b.U32
	case KindU64:
		return a.U64 == b.U64
	case KindChar:
		return a.Char == b.Char
	case KindTuple, KindSeq:
		if len(a.Tuple) != len(b.Tuple) {
			return false
		}
		for i := range a.Tuple {
			if !Equal(a.Tuple[i], b.Tuple[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(a.Record) != len(b.Record) {
			return false
		}
		for i := range a.Record {
			if a.Record[i].Label != b.Record[i].Label || !Equal(a.Record[i].Value, b.Record[i].Value) {
				return false
			}
		}
		return true
	case KindVariant:
		return a.Label == b.Label && Equal(*a.Variant, *b.Variant)
	default:
		return false
	}
}

// TupleProj returns the i'th element of a Tuple/Seq value after coercion.
func TupleProj(v Value, i int) (Value, bool) {
	v = Coerce(v)
	if v.Kind != KindTuple && v.Kind != KindSeq {
		return Value{}, false
	}
	if i < 0 || i >= len(v.Tuple) {
		return Value{}, false
	}
	return v.Tuple[i], true
}

// RecordProj returns the field named label of a Record value after coercion.
func RecordProj(v Value, label string) (Value, bool) {
	v = Coerce(v)
	if v.Kind != KindRecord {
		return Value{}, false
	}
	for _, f := range v.Record {
		if f.Label == label {
			return f.Value, true
		}
	}
	return Value{}, false
}
