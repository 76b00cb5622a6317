// Package decoder lowers a format.Format tree into a Decoder tree with
// matchtree.MatchTree installed on every Union/Repeat node that needs
// lookahead to proceed deterministically (spec.md §4.3). Decoder mirrors
// Format's shape (same Kind-tagged-struct idiom as format.Format and the
// teacher's nfa.State) but carries compiled artifacts instead of the raw
// algebra: a Union's branches are paired with the MatchTree that picks
// among them, and a Dynamic node knows how to build its sub-decoder at
// parse time instead of holding an uncompiled DynFormat.
package decoder

import (
	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/expr"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/matchtree"
	"github.com/doodle-lang/doodle/pattern"
)

// Kind tags the case of a Decoder. It is a strict subset/mirror of
// format.Kind: ItemVar is resolved away during compilation (inlined or
// turned into a Call to a compiled slot), and Union/Repeat/Repeat1 gain
// compiled MatchTree fields.
type Kind uint8

const (
	KindCall Kind = iota // compiled form of ItemVar: jump to Program slot
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
		"Call", "Fail", "EndOfInput", "Align", "Byte", "Variant", "Union",
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

// RecordField mirrors format.RecordField at the compiled level.
type RecordField struct {
	Label   string
	Decoder Decoder
}

// MatchArm mirrors format.MatchArm at the compiled level.
type MatchArm struct {
	Pattern pattern.Pattern
	Decoder Decoder
}

// Decoder is a single node of the compiled decode tree.
type Decoder struct {
	Kind Kind

	Slot int         // KindCall: index into Program.Slots
	Args []expr.Expr // KindCall: call-site argument bindings

	AlignN int
	Bytes  byteset.Set

	Label string
	Body  *Decoder

	Elems []Decoder
	Tree  *matchtree.MatchTree // installed on KindUnion/KindRepeat/KindRepeat1

	Fields []RecordField

	E *expr.Expr

	Lambda *expr.Expr

	MatchExpr *expr.Expr
	Arms      []MatchArm

	Dyn *format.DynFormat
}
