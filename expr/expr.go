// Package expr implements the pure, total expression sub-language used for
// data-dependent fields, predicates, and post-processing maps (spec.md
// §3.3, §4.5). Evaluation is side-effect-free given a Frame; the only way
// evaluation fails is a panic carrying an *errs.EvalError, which
// spec.md §7 requires to be treated as fatal (a bug in the format
// description, not the input) — callers that want to convert that into a
// recoverable error do so with Try, mirroring the teacher's own
// conv.* "panic on overflow, caller decides how hard that is" contract.
package expr

import (
	"unicode/utf8"

	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/internal/conv"
	"github.com/doodle-lang/doodle/pattern"
	"github.com/doodle-lang/doodle/value"
)

// Kind tags the case of an Expr.
type Kind uint8

const (
	KindBoolConst Kind = iota
	KindU8Const
	KindU16Const
	KindU32Const
	KindU64Const
	KindCharConst
	KindTupleConst
	KindRecordConst
	KindVariantConst
	KindSeqConst
	KindVar

	KindTupleProj
	KindRecordProj

	KindAdd
	KindSub
	KindMul
	KindDiv
	KindRem
	KindShl
	KindShr
	KindBitAnd
	KindBitOr

	KindEq
	KindNe
	KindLt
	KindGt
	KindLte
	KindGte

	KindAsU8
	KindAsU16
	KindAsU32
	KindAsU64
	KindAsChar

	KindU16Be
	KindU16Le
	KindU32Be
	KindU32Le
	KindU64Be
	KindU64Le

	KindSeqLength
	KindSubSeq
	KindDup
	KindFlatMap
	KindFlatMapAccum
	KindInflate
	KindMatch
	KindLambda
)

// FieldExpr is one (label, Expr) pair of a Record constant.
type FieldExpr struct {
	Label string
	Value Expr
}

// MatchArm is one (pattern, branch) pair of a Match expression.
type MatchArm struct {
	Pattern pattern.Pattern
	Branch  Expr
}

// Expr is a single node of the sum type in spec.md §3.3. As with Value and
// Pattern, this is a flat, Kind-tagged struct rather than an interface
// hierarchy, matching the rest of this codebase and the teacher's own
// State/StateKind idiom.
type Expr struct {
	Kind Kind

	Bool bool
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	Char rune

	Elems  []Expr      // KindTupleConst, KindSeqConst
	Fields []FieldExpr // KindRecordConst
	Label  string      // KindVariantConst, KindVar (Var's Label unused), KindLambda param name reuse avoided below
	Inner  *Expr       // KindVariantConst

	Name string // KindVar, KindLambda (parameter name)

	A, B *Expr // binary arithmetic/relational operands; A alone for TupleProj/RecordProj/casts/endian/SeqLength target
	Idx  int   // KindTupleProj

	Start, Len *Expr // KindSubSeq
	N, V       *Expr // KindDup

	Seq   *Expr // KindFlatMap, KindFlatMapAccum, KindInflate operand
	Lam   *Expr // KindFlatMap, KindFlatMapAccum: must be KindLambda
	Init  *Expr // KindFlatMapAccum

	Head  *Expr      // KindMatch
	Arms  []MatchArm // KindMatch

	Body *Expr // KindLambda body
}

// --- constructors -----------------------------------------------------

func BoolConst(b bool) Expr  { return Expr{Kind: KindBoolConst, Bool: b} }
func U8Const(v uint8) Expr   { return Expr{Kind: KindU8Const, U8: v} }
func U16Const(v uint16) Expr { return Expr{Kind: KindU16Const, U16: v} }
func U32Const(v uint32) Expr { return Expr{Kind: KindU32Const, U32: v} }
func U64Const(v uint64) Expr { return Expr{Kind: KindU64Const, U64: v} }
func CharConst(c rune) Expr  { return Expr{Kind: KindCharConst, Char: c} }
func TupleConst(elems ...Expr) Expr { return Expr{Kind: KindTupleConst, Elems: elems} }
func SeqConst(elems ...Expr) Expr   { return Expr{Kind: KindSeqConst, Elems: elems} }
func RecordConst(fields ...FieldExpr) Expr { return Expr{Kind: KindRecordConst, Fields: fields} }
func VariantConst(label string, inner Expr) Expr {
	return Expr{Kind: KindVariantConst, Label: label, Inner: &inner}
}
func Var(name string) Expr { return Expr{Kind: KindVar, Name: name} }

func TupleProj(target Expr, i int) Expr { return Expr{Kind: KindTupleProj, A: &target, Idx: i} }
func RecordProj(target Expr, label string) Expr {
	return Expr{Kind: KindRecordProj, A: &target, Label: label}
}

func binOp(k Kind, a, b Expr) Expr { return Expr{Kind: k, A: &a, B: &b} }

func Add(a, b Expr) Expr    { return binOp(KindAdd, a, b) }
func Sub(a, b Expr) Expr    { return binOp(KindSub, a, b) }
func Mul(a, b Expr) Expr    { return binOp(KindMul, a, b) }
func Div(a, b Expr) Expr    { return binOp(KindDiv, a, b) }
func Rem(a, b Expr) Expr    { return binOp(KindRem, a, b) }
func Shl(a, b Expr) Expr    { return binOp(KindShl, a, b) }
func Shr(a, b Expr) Expr    { return binOp(KindShr, a, b) }
func BitAnd(a, b Expr) Expr { return binOp(KindBitAnd, a, b) }
func BitOr(a, b Expr) Expr  { return binOp(KindBitOr, a, b) }

func Eq(a, b Expr) Expr  { return binOp(KindEq, a, b) }
func Ne(a, b Expr) Expr  { return binOp(KindNe, a, b) }
func Lt(a, b Expr) Expr  { return binOp(KindLt, a, b) }
func Gt(a, b Expr) Expr  { return binOp(KindGt, a, b) }
func Lte(a, b Expr) Expr { return binOp(KindLte, a, b) }
func Gte(a, b Expr) Expr { return binOp(KindGte, a, b) }

func unOp(k Kind, a Expr) Expr { return Expr{Kind: k, A: &a} }

func AsU8(a Expr) Expr   { return unOp(KindAsU8, a) }
func AsU16(a Expr) Expr  { return unOp(KindAsU16, a) }
func AsU32(a Expr) Expr  { return unOp(KindAsU32, a) }
func AsU64(a Expr) Expr  { return unOp(KindAsU64, a) }
func AsChar(a Expr) Expr { return unOp(KindAsChar, a) }

func U16Be(a Expr) Expr { return unOp(KindU16Be, a) }
func U16Le(a Expr) Expr { return unOp(KindU16Le, a) }
func U32Be(a Expr) Expr { return unOp(KindU32Be, a) }
func U32Le(a Expr) Expr { return unOp(KindU32Le, a) }
func U64Be(a Expr) Expr { return unOp(KindU64Be, a) }
func U64Le(a Expr) Expr { return unOp(KindU64Le, a) }

func SeqLength(a Expr) Expr { return unOp(KindSeqLength, a) }

func SubSeq(seq, start, length Expr) Expr {
	return Expr{Kind: KindSubSeq, A: &seq, Start: &start, Len: &length}
}

func Dup(n, v Expr) Expr { return Expr{Kind: KindDup, N: &n, V: &v} }

func Lambda(name string, body Expr) Expr {
	return Expr{Kind: KindLambda, Name: name, Body: &body}
}

func FlatMap(lam, seq Expr) Expr {
	return Expr{Kind: KindFlatMap, Lam: &lam, Seq: &seq}
}

func FlatMapAccum(lam, init, seq Expr) Expr {
	return Expr{Kind: KindFlatMapAccum, Lam: &lam, Init: &init, Seq: &seq}
}

func Inflate(seq Expr) Expr { return Expr{Kind: KindInflate, Seq: &seq} }

// InflateLiteral and InflateReference build the two variant shapes Inflate
// expects as elements of its input sequence (spec.md §4.5, §8 scenario 7).
func InflateLiteral(b Expr) Expr { return VariantConst("literal", b) }
func InflateReference(length, distance Expr) Expr {
	return VariantConst("reference", TupleConst(length, distance))
}

func Match(head Expr, arms ...MatchArm) Expr {
	return Expr{Kind: KindMatch, Head: &head, Arms: arms}
}

// --- evaluation ---------------------------------------------------------

func fail(op string, err error) {
	panic(&errs.EvalError{Op: op, Err: err})
}

// Eval evaluates e under scope. Panics with *errs.EvalError on any failure
// (spec.md §7); use Try to recover that into a plain error.
func Eval(e Expr, scope *Frame) value.Value {
	switch e.Kind {
	case KindBoolConst:
		return value.Bool(e.Bool)
	case KindU8Const:
		return value.U8(e.U8)
	case KindU16Const:
		return value.U16(e.U16)
	case KindU32Const:
		return value.U32(e.U32)
	case KindU64Const:
		return value.U64(e.U64)
	case KindCharConst:
		return value.Char(e.Char)
	case KindTupleConst:
		out := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			out[i] = Eval(el, scope)
		}
		return value.TupleOf(out)
	case KindSeqConst:
		out := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			out[i] = Eval(el, scope)
		}
		return value.SeqOf(out)
	case KindRecordConst:
		out := make([]value.Field, len(e.Fields))
		for i, f := range e.Fields {
			out[i] = value.Field{Label: f.Label, Value: Eval(f.Value, scope)}
		}
		return value.RecordOf(out)
	case KindVariantConst:
		return value.VariantOf(e.Label, Eval(*e.Inner, scope))
	case KindVar:
		v, ok := scope.Lookup(e.Name)
		if !ok {
			fail("Var", errs.ErrUnboundVariable)
		}
		return v

	case KindTupleProj:
		target := Eval(*e.A, scope)
		v, ok := value.TupleProj(target, e.Idx)
		if !ok {
			fail("TupleProj", errs.ErrNotATuple)
		}
		return v
	case KindRecordProj:
		target := Eval(*e.A, scope)
		v, ok := value.RecordProj(target, e.Label)
		if !ok {
			fail("RecordProj", errs.ErrNotATuple)
		}
		return v

	case KindAdd, KindSub, KindMul, KindDiv, KindRem, KindShl, KindShr, KindBitAnd, KindBitOr:
		return evalArith(e, scope)

	case KindEq, KindNe, KindLt, KindGt, KindLte, KindGte:
		return evalRelation(e, scope)

	case KindAsU8, KindAsU16, KindAsU32, KindAsU64, KindAsChar:
		return evalCast(e, scope)

	case KindU16Be, KindU16Le, KindU32Be, KindU32Le, KindU64Be, KindU64Le:
		return evalPacker(e, scope)

	case KindSeqLength:
		s := value.Coerce(Eval(*e.A, scope))
		if s.Kind != value.KindSeq && s.Kind != value.KindTuple {
			fail("SeqLength", errs.ErrNotASequence)
		}
		return value.U32(conv.IntToUint32(len(s.Tuple)))

	case KindSubSeq:
		return evalSubSeq(e, scope)

	case KindDup:
		n := requireUintAny(Eval(*e.N, scope), "Dup")
		v := Eval(*e.V, scope)
		out := make([]value.Value, n)
		for i := range out {
			out[i] = v
		}
		return value.SeqOf(out)

	case KindFlatMap:
		return evalFlatMap(e, scope)
	case KindFlatMapAccum:
		return evalFlatMapAccum(e, scope)
	case KindInflate:
		return evalInflate(e, scope)
	case KindMatch:
		return evalMatch(e, scope)
	case KindLambda:
		fail("Lambda", errs.ErrDirectLambdaEval)
		panic("unreachable")
	default:
		fail("Eval", errs.ErrTypeMismatch)
		panic("unreachable")
	}
}

// Try evaluates e and recovers any *errs.EvalError panic into a returned
// error, for callers (e.g. a hardened host embedding this engine) that
// prefer not to let format-description bugs propagate as Go panics.
// spec.md §7 is explicit that the behavioral contract stays the same
// either way: invalid format definitions never produce a wrong parse, only
// a failure.
func Try(e Expr, scope *Frame) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ee, ok := r.(*errs.EvalError); ok {
				err = ee
				return
			}
			panic(r)
		}
	}()
	return Eval(e, scope), nil
}

func requireUintAny(v value.Value, op string) uint64 {
	v = value.Coerce(v)
	switch v.Kind {
	case value.KindU8:
		return uint64(v.U8)
	case value.KindU16:
		return uint64(v.U16)
	case value.KindU32:
		return uint64(v.U32)
	case value.KindU64:
		return v.U64
	default:
		fail(op, errs.ErrTypeMismatch)
		panic("unreachable")
	}
}

func evalArith(e Expr, scope *Frame) value.Value {
	a := value.Coerce(Eval(*e.A, scope))
	b := value.Coerce(Eval(*e.B, scope))
	if a.Kind != b.Kind {
		fail("arith", errs.ErrTypeMismatch)
	}
	op := arithName(e.Kind)
	switch a.Kind {
	case value.KindU8:
		return value.U8(conv.Uint64ToUint8(arith64(op, uint64(a.U8), uint64(b.U8), 8)))
	case value.KindU16:
		return value.U16(conv.Uint64ToUint16(arith64(op, uint64(a.U16), uint64(b.U16), 16)))
	case value.KindU32:
		return value.U32(conv.Uint64ToUint32(arith64(op, uint64(a.U32), uint64(b.U32), 32)))
	case value.KindU64:
		return value.U64(arith64(op, a.U64, b.U64, 64))
	default:
		fail("arith", errs.ErrTypeMismatch)
		panic("unreachable")
	}
}

func arithName(k Kind) string {
	switch k {
	case KindAdd:
		return "Add"
	case KindSub:
		return "Sub"
	case KindMul:
		return "Mul"
	case KindDiv:
		return "Div"
	case KindRem:
		return "Rem"
	case KindShl:
		return "Shl"
	case KindShr:
		return "Shr"
	case KindBitAnd:
		return "BitAnd"
	case KindBitOr:
		return "BitOr"
	default:
		return "?"
	}
}

// arith64 performs checked arithmetic in a 64-bit accumulator and verifies
// the result still fits in `bits` bits, which is the "overflow is a
// parse-time error" rule from spec.md §3.3 applied uniformly across the
// four unsigned widths.
func arith64(op string, a, b uint64, bits uint) uint64 {
	mask := uint64(1)<<bits - 1
	if bits == 64 {
		mask = ^uint64(0)
	}
	var r uint64
	switch op {
	case "Add":
		r = a + b
		if r < a {
			fail(op, errs.ErrOverflow)
		}
	case "Sub":
		if b > a {
			fail(op, errs.ErrOverflow)
		}
		r = a - b
	case "Mul":
		r = a * b
		if a != 0 && r/a != b {
			fail(op, errs.ErrOverflow)
		}
	case "Div":
		if b == 0 {
			fail(op, errs.ErrDivideByZero)
		}
		r = a / b
	case "Rem":
		if b == 0 {
			fail(op, errs.ErrDivideByZero)
		}
		r = a % b
	case "Shl":
		if b >= uint64(bits) {
			fail(op, errs.ErrOverflow)
		}
		r = a << b
	case "Shr":
		if b >= uint64(bits) {
			fail(op, errs.ErrOverflow)
		}
		r = a >> b
	case "BitAnd":
		r = a & b
	case "BitOr":
		r = a | b
	}
	if r&^mask != 0 {
		fail(op, errs.ErrOverflow)
	}
	return r
}

func evalRelation(e Expr, scope *Frame) value.Value {
	a := value.Coerce(Eval(*e.A, scope))
	b := value.Coerce(Eval(*e.B, scope))
	if a.Kind != b.Kind {
		fail("relation", errs.ErrTypeMismatch)
	}
	var cmp int
	switch a.Kind {
	case value.KindU8:
		cmp = cmpUint(uint64(a.U8), uint64(b.U8))
	case value.KindU16:
		cmp = cmpUint(uint64(a.U16), uint64(b.U16))
	case value.KindU32:
		cmp = cmpUint(uint64(a.U32), uint64(b.U32))
	case value.KindU64:
		cmp = cmpUint(a.U64, b.U64)
	default:
		fail("relation", errs.ErrTypeMismatch)
	}
	switch e.Kind {
	case KindEq:
		return value.Bool(cmp == 0)
	case KindNe:
		return value.Bool(cmp != 0)
	case KindLt:
		return value.Bool(cmp < 0)
	case KindGt:
		return value.Bool(cmp > 0)
	case KindLte:
		return value.Bool(cmp <= 0)
	case KindGte:
		return value.Bool(cmp >= 0)
	default:
		panic("unreachable")
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evalCast(e Expr, scope *Frame) value.Value {
	a := value.Coerce(Eval(*e.A, scope))
	var src uint64
	switch a.Kind {
	case value.KindU8:
		src = uint64(a.U8)
	case value.KindU16:
		src = uint64(a.U16)
	case value.KindU32:
		src = uint64(a.U32)
	case value.KindU64:
		src = a.U64
	default:
		fail("cast", errs.ErrTypeMismatch)
	}
	switch e.Kind {
	case KindAsU8:
		if src > 0xFF {
			fail("AsU8", errs.ErrCastOverflow)
		}
		return value.U8(uint8(src))
	case KindAsU16:
		if src > 0xFFFF {
			fail("AsU16", errs.ErrCastOverflow)
		}
		return value.U16(uint16(src))
	case KindAsU32:
		if src > 0xFFFFFFFF {
			fail("AsU32", errs.ErrCastOverflow)
		}
		return value.U32(uint32(src))
	case KindAsU64:
		return value.U64(src)
	case KindAsChar:
		if !utf8.ValidRune(rune(src)) || src > utf8.MaxRune {
			return value.Char(utf8.RuneError)
		}
		return value.Char(rune(src))
	default:
		panic("unreachable")
	}
}

func evalPacker(e Expr, scope *Frame) value.Value {
	target := value.Coerce(Eval(*e.A, scope))
	if target.Kind != value.KindTuple {
		fail("packer", errs.ErrNotATuple)
	}
	bytesOf := func(n int) []byte {
		if len(target.Tuple) != n {
			fail("packer", errs.ErrTypeMismatch)
		}
		out := make([]byte, n)
		for i, el := range target.Tuple {
			el = value.Coerce(el)
			if el.Kind != value.KindU8 {
				fail("packer", errs.ErrTypeMismatch)
			}
			out[i] = el.U8
		}
		return out
	}
	switch e.Kind {
	case KindU16Be:
		b := bytesOf(2)
		return value.U16(uint16(b[0])<<8 | uint16(b[1]))
	case KindU16Le:
		b := bytesOf(2)
		return value.U16(uint16(b[1])<<8 | uint16(b[0]))
	case KindU32Be:
		b := bytesOf(4)
		return value.U32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	case KindU32Le:
		b := bytesOf(4)
		return value.U32(uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]))
	case KindU64Be:
		b := bytesOf(8)
		var r uint64
		for i := 0; i < 8; i++ {
			r = r<<8 | uint64(b[i])
		}
		return value.U64(r)
	case KindU64Le:
		b := bytesOf(8)
		var r uint64
		for i := 7; i >= 0; i-- {
			r = r<<8 | uint64(b[i])
		}
		return value.U64(r)
	default:
		panic("unreachable")
	}
}

func evalSubSeq(e Expr, scope *Frame) value.Value {
	seq := value.Coerce(Eval(*e.A, scope))
	if seq.Kind != value.KindSeq {
		fail("SubSeq", errs.ErrNotASequence)
	}
	start := int(requireUintAny(Eval(*e.Start, scope), "SubSeq"))
	length := int(requireUintAny(Eval(*e.Len, scope), "SubSeq"))
	if start < 0 || length < 0 || start+length > len(seq.Tuple) {
		fail("SubSeq", errs.ErrOverflow)
	}
	out := make([]value.Value, length)
	copy(out, seq.Tuple[start:start+length])
	return value.SeqOf(out)
}

// ApplyLambda evaluates a lambda's body with its parameter bound to arg,
// exported for callers outside this package (the decoder interpreter's
// Map, RepeatUntilLast and RepeatUntilSeq all apply a caller-supplied
// lambda to a value produced during parsing).
func ApplyLambda(lam Expr, arg value.Value, scope *Frame) value.Value {
	return applyLambda(lam, arg, scope)
}

// applyLambda evaluates a KindLambda expression's body with its parameter
// bound to arg.
func applyLambda(lam Expr, arg value.Value, scope *Frame) value.Value {
	if lam.Kind != KindLambda {
		fail("apply", errs.ErrDirectLambdaEval)
	}
	inner := scope.ExtendSingle(lam.Name, arg)
	return Eval(*lam.Body, inner)
}

func evalFlatMap(e Expr, scope *Frame) value.Value {
	seq := value.Coerce(Eval(*e.Seq, scope))
	if seq.Kind != value.KindSeq {
		fail("FlatMap", errs.ErrNotASequence)
	}
	var out []value.Value
	for _, x := range seq.Tuple {
		ys := value.Coerce(applyLambda(*e.Lam, x, scope))
		if ys.Kind != value.KindSeq {
			fail("FlatMap", errs.ErrNotASequence)
		}
		out = append(out, ys.Tuple...)
	}
	return value.SeqOf(out)
}

func evalFlatMapAccum(e Expr, scope *Frame) value.Value {
	seq := value.Coerce(Eval(*e.Seq, scope))
	if seq.Kind != value.KindSeq {
		fail("FlatMapAccum", errs.ErrNotASequence)
	}
	accum := Eval(*e.Init, scope)
	var out []value.Value
	for _, x := range seq.Tuple {
		pair := value.Coerce(applyLambda(*e.Lam, value.TupleOf([]value.Value{accum, x}), scope))
		if pair.Kind != value.KindTuple || len(pair.Tuple) != 2 {
			fail("FlatMapAccum", errs.ErrNotATuple)
		}
		accum = pair.Tuple[0]
		ys := value.Coerce(pair.Tuple[1])
		if ys.Kind != value.KindSeq {
			fail("FlatMapAccum", errs.ErrNotASequence)
		}
		out = append(out, ys.Tuple...)
	}
	// The final accum is discarded per spec.md §3.3.
	return value.SeqOf(out)
}

// evalInflate implements the LZ77 back-reference expansion documented in
// spec.md §4.5/§4.6/§8 scenario 7. Each element of seq is either
// Variant("literal", U8(b)) or Variant("reference", Tuple(U32 length, U32
// distance)). References are expanded index by index as they are
// produced (not via a bulk slice copy) so that overlapping copies — where
// distance < length — grow correctly, which is the defining property of
// the DEFLATE back-reference contract.
func evalInflate(e Expr, scope *Frame) value.Value {
	seq := value.Coerce(Eval(*e.Seq, scope))
	if seq.Kind != value.KindSeq {
		fail("Inflate", errs.ErrNotASequence)
	}
	var out []value.Value
	for _, item := range seq.Tuple {
		item = value.Coerce(item)
		if item.Kind != value.KindVariant {
			fail("Inflate", errs.ErrTypeMismatch)
		}
		switch item.Label {
		case "literal":
			b := value.Coerce(*item.Variant)
			if b.Kind != value.KindU8 {
				fail("Inflate", errs.ErrTypeMismatch)
			}
			out = append(out, b)
		case "reference":
			ref := value.Coerce(*item.Variant)
			if ref.Kind != value.KindTuple || len(ref.Tuple) != 2 {
				fail("Inflate", errs.ErrNotATuple)
			}
			length := int(requireUintAny(ref.Tuple[0], "Inflate"))
			distance := int(requireUintAny(ref.Tuple[1], "Inflate"))
			if distance <= 0 || distance > len(out) {
				fail("Inflate", errs.ErrInflateDistance)
			}
			start := len(out) - distance
			for i := 0; i < length; i++ {
				out = append(out, out[start+i])
			}
		default:
			fail("Inflate", errs.ErrNonExhaustiveMatch)
		}
	}
	return value.SeqOf(out)
}

func evalMatch(e Expr, scope *Frame) value.Value {
	head := Eval(*e.Head, scope)
	patterns := make([]pattern.Pattern, len(e.Arms))
	for i, arm := range e.Arms {
		patterns[i] = arm.Pattern
	}
	idx, bindings, ok := pattern.FirstMatch(head, patterns)
	if !ok {
		fail("Match", errs.ErrNonExhaustiveMatch)
	}
	inner := scope
	for i, name := range bindings.Names() {
		v, _ := bindings.Lookup(name)
		_ = i
		inner = inner.ExtendSingle(name, v)
	}
	return Eval(e.Arms[idx].Branch, inner)
}
