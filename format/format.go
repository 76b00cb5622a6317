// Package format implements the user-facing format algebra (spec.md §3.5)
// and the Module registry that gives named formats recursion and call-site
// argument binding (spec.md §3.6). As with value.Value, pattern.Pattern and
// expr.Expr, Format is a single Kind-tagged struct rather than an interface
// hierarchy, following the teacher's nfa.State/nfa.StateKind idiom.
package format

import (
	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/expr"
	"github.com/doodle-lang/doodle/pattern"
)

// Kind tags the case of a Format (spec.md §3.5).
type Kind uint8

const (
	KindItemVar Kind = iota
	KindFail
	KindEndOfInput
	KindAlign
	KindByte
	KindVariant
	KindUnion
	KindUnionNondet
	KindTuple
	KindRecord
	KindRepeat
	KindRepeat1
	KindRepeatCount
	KindRepeatUntilLast
	KindRepeatUntilSeq
	KindPeek
	KindPeekNot
	KindSlice
	KindBits
	KindWithRelativeOffset
	KindMap
	KindCompute
	KindLet
	KindMatch
	KindDynamic
	KindApply
)

func (k Kind) String() string {
	names := [...]string{
		"ItemVar", "Fail", "EndOfInput", "Align", "Byte", "Variant", "Union",
		"UnionNondet", "Tuple", "Record", "Repeat", "Repeat1", "RepeatCount",
		"RepeatUntilLast", "RepeatUntilSeq", "Peek", "PeekNot", "Slice",
		"Bits", "WithRelativeOffset", "Map", "Compute", "Let", "Match",
		"Dynamic", "Apply",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// RecordField is one (label, Format) entry of a Record; later fields may
// reference earlier ones by name via Expr.Var (spec.md §3.5).
type RecordField struct {
	Label  string
	Format Format
}

// MatchArm is one (pattern, Format) entry of a Match.
type MatchArm struct {
	Pattern pattern.Pattern
	Format  Format
}

// DynKind tags the kind of dynamically-constructed sub-format (spec.md
// §3.5 Dynamic, §4.6). Only canonical Huffman is specified.
type DynKind uint8

const (
	DynHuffman DynKind = iota
)

// DynFormat describes how to build a decoder at parse time.
type DynFormat struct {
	Kind   DynKind
	Lengths expr.Expr  // Seq(U8) of code lengths
	Values  *expr.Expr // optional permutation of symbol values
}

// Format is a single node of the sum type in spec.md §3.5.
type Format struct {
	Kind Kind

	ItemID int        // KindItemVar: index into Module.defs
	Args   []expr.Expr // KindItemVar: call-site argument bindings

	AlignN int         // KindAlign
	Bytes  byteset.Set // KindByte

	Label string  // KindVariant, KindLet, KindDynamic, KindApply
	Body  *Format // KindVariant payload, KindRepeat*, KindPeek*, KindSlice,
	// KindBits, KindWithRelativeOffset, KindMap, KindLet, KindDynamic body

	Elems  []Format      // KindUnion, KindUnionNondet, KindTuple
	Fields []RecordField // KindRecord

	E *expr.Expr // KindRepeatCount/RepeatUntilLast/RepeatUntilSeq (predicate/count),
	// KindSlice/KindWithRelativeOffset (byte count/offset), KindCompute, KindLet (bound expr)

	Lambda *expr.Expr // KindMap

	MatchExpr *expr.Expr // KindMatch
	Arms      []MatchArm // KindMatch

	Dyn *DynFormat // KindDynamic
}

// --- builder combinators (spec.md §3.5, §6) -----------------------------

func ItemVar(ref FormatRef, args ...expr.Expr) Format {
	return Format{Kind: KindItemVar, ItemID: int(ref), Args: args}
}

func Fail() Format       { return Format{Kind: KindFail} }
func EndOfInput() Format { return Format{Kind: KindEndOfInput} }
func Align(n int) Format { return Format{Kind: KindAlign, AlignN: n} }
func Byte(bs byteset.Set) Format { return Format{Kind: KindByte, Bytes: bs} }

func Variant(label string, f Format) Format {
	return Format{Kind: KindVariant, Label: label, Body: &f}
}

func Union(elems ...Format) Format        { return Format{Kind: KindUnion, Elems: elems} }
func UnionNondet(elems ...Format) Format   { return Format{Kind: KindUnionNondet, Elems: elems} }
func Tuple(elems ...Format) Format        { return Format{Kind: KindTuple, Elems: elems} }
func Record(fields ...RecordField) Format { return Format{Kind: KindRecord, Fields: fields} }

func Repeat(f Format) Format  { return Format{Kind: KindRepeat, Body: &f} }
func Repeat1(f Format) Format { return Format{Kind: KindRepeat1, Body: &f} }

func RepeatCount(count expr.Expr, f Format) Format {
	return Format{Kind: KindRepeatCount, E: &count, Body: &f}
}

func RepeatUntilLast(pred expr.Expr, f Format) Format {
	return Format{Kind: KindRepeatUntilLast, E: &pred, Body: &f}
}

func RepeatUntilSeq(pred expr.Expr, f Format) Format {
	return Format{Kind: KindRepeatUntilSeq, E: &pred, Body: &f}
}

func Peek(f Format) Format    { return Format{Kind: KindPeek, Body: &f} }
func PeekNot(f Format) Format { return Format{Kind: KindPeekNot, Body: &f} }

func Slice(n expr.Expr, f Format) Format {
	return Format{Kind: KindSlice, E: &n, Body: &f}
}

func Bits(f Format) Format { return Format{Kind: KindBits, Body: &f} }

func WithRelativeOffset(offset expr.Expr, f Format) Format {
	return Format{Kind: KindWithRelativeOffset, E: &offset, Body: &f}
}

func Map(f Format, lambda expr.Expr) Format {
	return Format{Kind: KindMap, Body: &f, Lambda: &lambda}
}

func Compute(e expr.Expr) Format { return Format{Kind: KindCompute, E: &e} }

func Let(name string, e expr.Expr, f Format) Format {
	return Format{Kind: KindLet, Label: name, E: &e, Body: &f}
}

func Match(head expr.Expr, arms ...MatchArm) Format {
	return Format{Kind: KindMatch, MatchExpr: &head, Arms: arms}
}

func Dynamic(name string, dyn DynFormat, f Format) Format {
	return Format{Kind: KindDynamic, Label: name, Dyn: &dyn, Body: &f}
}

func Apply(name string) Format { return Format{Kind: KindApply, Label: name} }

// Huffman builds the DynFormat used by a Dynamic Huffman construct
// (spec.md §3.5, §4.6).
func Huffman(lengths expr.Expr, values *expr.Expr) DynFormat {
	return DynFormat{Kind: DynHuffman, Lengths: lengths, Values: values}
}
