package interp

import (
	"github.com/rs/zerolog"

	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/decoder"
	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/expr"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/internal/bytescan"
	"github.com/doodle-lang/doodle/pattern"
	"github.com/doodle-lang/doodle/value"

	"github.com/doodle-lang/doodle/matchtree"
)

// PeekNotBound caps how many bytes past the cursor a PeekNot trial parse
// may read: the trial sees the buffer cut off at that point, so an operand
// that needs more bytes fails, and the PeekNot then succeeds. A
// PeekNot's operand is run only to decide rejection, never to produce a
// value, so it must not be allowed to run the rest of the buffer just to
// fail; doodle.Config's PeekNotBoundBytes overrides this before compiling.
var PeekNotBound = 1024

// runner carries the compiled program across a single parse, mirroring
// spec.md §4.4's "Program (array of compiled decoders), current Scope,
// current ReadCtxt" interpreter state.
type runner struct {
	prog *decoder.Program
}

// Run executes prog starting at the decoder slot root over buf, returning
// the unlocated value, the offset the cursor stopped at, and any parse
// error (spec.md §6: program.run). It is implemented as a thin wrapper
// over RunExt, stripping location metadata, rather than a separate
// interpreter, since spec.md §8 requires the two to agree on every
// semantic value and duplicating the per-constructor switch would only
// risk the two drifting apart.
func Run(prog *decoder.Program, root int, buf []byte, log *zerolog.Logger) (value.Value, int, error) {
	pv, offset, err := RunExt(prog, root, buf, log)
	return pv.Strip(), offset, err
}

// RunExt is the located variant (spec.md §6: program.run_ext), returning a
// ParsedValue with a ParseLoc on every non-transparent node.
func RunExt(prog *decoder.Program, root int, buf []byte, log *zerolog.Logger) (value.ParsedValue, int, error) {
	cur := NewCursor(buf)
	r := &runner{prog: prog}
	pv, err := r.execute(prog.Slots[root], cur, NewScope())
	if err != nil {
		logParseFailure(log, err)
		return value.ParsedValue{}, cur.Offset(), err
	}
	return pv, cur.Offset(), nil
}

func logParseFailure(log *zerolog.Logger, err error) {
	if log == nil {
		return
	}
	if pe, ok := err.(*errs.ParseError); ok {
		log.Error().Int("offset", pe.Offset).Str("kind", pe.Kind.String()).Msg("parse failed")
		return
	}
	log.Error().Err(err).Msg("parse failed")
}

// execute interprets a single compiled Decoder node against cur under
// scope, per the per-constructor semantics of spec.md §4.4, always
// producing a located ParsedValue internally.
func (r *runner) execute(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	switch d.Kind {
	case decoder.KindCall:
		return r.execCall(d, cur, scope)
	case decoder.KindFail:
		return value.ParsedValue{}, errs.NewFail()
	case decoder.KindEndOfInput:
		if cur.Remaining() == 0 {
			return value.Located(value.Unit(), value.InBuffer(cur.Offset(), 0)), nil
		}
		b, _ := cur.Peek(0)
		return value.ParsedValue{}, errs.NewTrailing(cur.Offset(), b)
	case decoder.KindAlign:
		start := cur.Offset()
		n, err := cur.Align(d.AlignN)
		if err != nil {
			return value.ParsedValue{}, err
		}
		return value.Located(value.Unit(), value.InBuffer(start, n)), nil
	case decoder.KindByte:
		return r.execByte(d, cur)
	case decoder.KindVariant:
		inner, err := r.execute(*d.Body, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		return value.ParsedValue{Kind: value.KindVariant, Loc: inner.Loc, Label: d.Label, Variant: &inner}, nil
	case decoder.KindUnion:
		return r.execUnion(d, cur, scope)
	case decoder.KindUnionNondet:
		return r.execParallel(d, cur, scope)
	case decoder.KindTuple:
		return r.execTuple(d, cur, scope)
	case decoder.KindRecord:
		return r.execRecord(d, cur, scope)
	case decoder.KindRepeat:
		return r.execWhile(d, cur, scope)
	case decoder.KindRepeat1:
		return r.execUntil(d, cur, scope)
	case decoder.KindRepeatCount:
		return r.execRepeatCount(d, cur, scope)
	case decoder.KindRepeatUntilLast:
		return r.execRepeatUntilLast(d, cur, scope)
	case decoder.KindRepeatUntilSeq:
		return r.execRepeatUntilSeq(d, cur, scope)
	case decoder.KindPeek:
		trial := *cur
		pv, err := r.execute(*d.Body, &trial, scope)
		return pv, err
	case decoder.KindPeekNot:
		trial := *cur
		if bound := cur.offset + PeekNotBound; bound < len(trial.buf) {
			trial.buf = trial.buf[:bound]
		}
		_, err := r.execute(*d.Body, &trial, scope)
		if err == nil {
			return value.ParsedValue{}, errs.NewFail()
		}
		return value.Located(value.Unit(), value.InBuffer(cur.Offset(), 0)), nil
	case decoder.KindSlice:
		return r.execSlice(d, cur, scope)
	case decoder.KindBits:
		return r.execBits(d, cur, scope)
	case decoder.KindWithRelativeOffset:
		return r.execWithRelativeOffset(d, cur, scope)
	case decoder.KindMap:
		return r.execMap(d, cur, scope)
	case decoder.KindCompute:
		v := expr.Eval(*d.E, scope.Frame())
		return value.Located(v, value.Synthesized()), nil
	case decoder.KindLet:
		v := expr.Eval(*d.E, scope.Frame())
		return r.execute(*d.Body, cur, scope.ExtendSingle(d.Label, v))
	case decoder.KindMatch:
		return r.execMatch(d, cur, scope)
	case decoder.KindDynamic:
		return r.execDynamic(d, cur, scope)
	case decoder.KindApply:
		return r.execApply(d, cur, scope)
	default:
		return value.ParsedValue{}, errs.NewFail()
	}
}

func (r *runner) execCall(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	names := r.prog.ArgNames[d.Slot]
	entries := make([]expr.Entry, len(d.Args))
	for i, a := range d.Args {
		entries[i] = expr.Entry{Name: names[i], Value: expr.Eval(a, scope.Frame())}
	}
	callScope := NewScope().ExtendMulti(entries)
	return r.execute(r.prog.Slots[d.Slot], cur, callScope)
}

func (r *runner) execByte(d decoder.Decoder, cur *Cursor) (value.ParsedValue, error) {
	start := cur.Offset()
	b, err := cur.ReadByte()
	if err != nil {
		return value.ParsedValue{}, err
	}
	if !d.Bytes.Contains(b) {
		return value.ParsedValue{}, errs.NewUnexpected(start, b, d.Bytes)
	}
	return value.Located(value.U8(b), value.InBuffer(start, 1)), nil
}

func (r *runner) execUnion(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	idx, err := matchtree.Walk(d.Tree, cur.Peek)
	if err != nil {
		return value.ParsedValue{}, errs.NewNoValidBranch(cur.Offset())
	}
	inner, err := r.execute(d.Elems[idx], cur, scope)
	if err != nil {
		return value.ParsedValue{}, err
	}
	return value.ParsedValue{Kind: value.KindBranch, BranchIndex: idx, BranchValue: &inner}, nil
}

func (r *runner) execParallel(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	for i, elem := range d.Elems {
		trial := *cur
		pv, err := r.execute(elem, &trial, scope)
		if err == nil {
			*cur = trial
			return value.ParsedValue{Kind: value.KindBranch, BranchIndex: i, BranchValue: &pv}, nil
		}
	}
	return value.ParsedValue{}, errs.NewFail()
}

func (r *runner) execTuple(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	elems := make([]value.ParsedValue, len(d.Elems))
	locs := make([]value.ParseLoc, len(d.Elems))
	for i, elem := range d.Elems {
		pv, err := r.execute(elem, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		elems[i] = pv
		locs[i] = pv.Loc
	}
	return value.ParsedValue{Kind: value.KindTuple, Loc: value.JoinAll(locs), Tuple: elems}, nil
}

func (r *runner) execRecord(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	fields := make([]value.LocatedField, len(d.Fields))
	locs := make([]value.ParseLoc, len(d.Fields))
	var entries []expr.Entry
	for i, fld := range d.Fields {
		fieldScope := scope.ExtendMulti(entries)
		pv, err := r.execute(fld.Decoder, cur, fieldScope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		fields[i] = value.LocatedField{Label: fld.Label, Value: pv}
		locs[i] = pv.Loc
		entries = append(entries, expr.Entry{Name: fld.Label, Value: pv.Strip()})
	}
	return value.ParsedValue{Kind: value.KindRecord, Loc: value.JoinAll(locs), Record: fields}, nil
}

// execWhile implements Repeat (spec.md's While(tree,d)): the compiled tree
// was built over [bodyFirst, afterFirst], so branch 0 means "run the body
// again" and branch 1 (or the tree's EOF fallthrough) means "stop".
func (r *runner) execWhile(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	if bs, ok := byteRunSet(d); ok {
		return r.execByteRun(cur, bs)
	}
	var items []value.ParsedValue
	var locs []value.ParseLoc
	for {
		idx, err := matchtree.Walk(d.Tree, cur.Peek)
		if err != nil {
			return value.ParsedValue{}, errs.NewNoValidBranch(cur.Offset())
		}
		if idx != 0 {
			break
		}
		pv, err := r.execute(*d.Body, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		items = append(items, pv)
		locs = append(locs, pv.Loc)
	}
	return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
}

// execUntil implements Repeat1: parse the body once unconditionally, then
// loop exactly as execWhile does.
func (r *runner) execUntil(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	first, err := r.execute(*d.Body, cur, scope)
	if err != nil {
		return value.ParsedValue{}, err
	}
	items := []value.ParsedValue{first}
	locs := []value.ParseLoc{first.Loc}
	if bs, ok := byteRunSet(d); ok {
		rest, err := r.execByteRun(cur, bs)
		if err != nil {
			return value.ParsedValue{}, err
		}
		items = append(items, rest.Tuple...)
		locs = append(locs, rest.Loc)
		return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
	}
	for {
		idx, err := matchtree.Walk(d.Tree, cur.Peek)
		if err != nil {
			return value.ParsedValue{}, errs.NewNoValidBranch(cur.Offset())
		}
		if idx != 0 {
			break
		}
		pv, err := r.execute(*d.Body, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		items = append(items, pv)
		locs = append(locs, pv.Loc)
	}
	return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
}

// byteRunSet reports whether d's body is a plain Byte(bs) whose compiled
// match tree unconditionally selects "continue the loop" for every byte in
// bs (a flat NodeDispatch with no deeper recursion), the shape
// internal/bytescan's run-length scan can fast-forward through instead of
// walking the match tree and re-entering execute once per byte.
func byteRunSet(d decoder.Decoder) (byteset.Set, bool) {
	if d.Body == nil || d.Body.Kind != decoder.KindByte || d.Tree == nil || d.Tree.Kind != matchtree.NodeDispatch {
		return byteset.Set{}, false
	}
	bs := d.Body.Bytes
	ok := true
	bs.Iterate(func(b byte) {
		child := d.Tree.ByByte[b]
		if child == nil || child.Kind != matchtree.NodeAccept || child.Branch != 0 {
			ok = false
		}
	})
	if !ok {
		return byteset.Set{}, false
	}
	return bs, true
}

// execByteRun fast-forwards over the longest run of bytes admitted by bs
// using internal/bytescan, producing the same U8 sequence and per-element
// locations a byte-by-byte loop would.
func (r *runner) execByteRun(cur *Cursor, bs byteset.Set) (value.ParsedValue, error) {
	start := cur.Offset()
	n := bytescan.Run(cur.buf[start:], bs)
	items := make([]value.ParsedValue, n)
	locs := make([]value.ParseLoc, n)
	for i := 0; i < n; i++ {
		loc := value.InBuffer(start+i, 1)
		items[i] = value.Located(value.U8(cur.buf[start+i]), loc)
		locs[i] = loc
	}
	cur.offset = start + n
	return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
}

func (r *runner) execRepeatCount(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	n := asUint64(expr.Eval(*d.E, scope.Frame()))
	items := make([]value.ParsedValue, 0, n)
	locs := make([]value.ParseLoc, 0, n)
	for i := uint64(0); i < n; i++ {
		pv, err := r.execute(*d.Body, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		items = append(items, pv)
		locs = append(locs, pv.Loc)
	}
	return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
}

func (r *runner) execRepeatUntilLast(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	var items []value.ParsedValue
	var locs []value.ParseLoc
	for {
		pv, err := r.execute(*d.Body, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		items = append(items, pv)
		locs = append(locs, pv.Loc)
		stop := expr.ApplyLambda(*d.E, pv.Strip(), scope.Frame())
		if stop.Kind == value.KindBool && stop.Bool {
			break
		}
	}
	return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
}

func (r *runner) execRepeatUntilSeq(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	var items []value.ParsedValue
	var locs []value.ParseLoc
	for {
		pv, err := r.execute(*d.Body, cur, scope)
		if err != nil {
			return value.ParsedValue{}, err
		}
		items = append(items, pv)
		locs = append(locs, pv.Loc)
		soFar := make([]value.Value, len(items))
		for i, it := range items {
			soFar[i] = it.Strip()
		}
		stop := expr.ApplyLambda(*d.E, value.SeqOf(soFar), scope.Frame())
		if stop.Kind == value.KindBool && stop.Bool {
			break
		}
	}
	return value.ParsedValue{Kind: value.KindSeq, Loc: value.JoinAll(locs), Tuple: items}, nil
}

func (r *runner) execSlice(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	n := int(asUint64(expr.Eval(*d.E, scope.Frame())))
	start := cur.Offset()
	if start+n > len(cur.buf) {
		return value.ParsedValue{}, errs.NewOverrun(start, start+n-len(cur.buf))
	}
	window := &Cursor{buf: cur.buf[:start+n], offset: start}
	pv, err := r.execute(*d.Body, window, scope)
	if err != nil {
		return value.ParsedValue{}, err
	}
	cur.offset = start + n
	return pv, nil
}

// execBits materializes a one-byte-per-bit buffer of the remaining input,
// LSB-first within each source byte (spec.md §4.4 Bits), parses the body
// over it, then advances the outer cursor by whole source bytes consumed.
// Locations produced inside the bit buffer are positions within that
// synthetic buffer, not the original byte stream.
func (r *runner) execBits(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	remaining := cur.buf[cur.offset:]
	bitbuf := make([]byte, len(remaining)*8)
	for i, b := range remaining {
		for bit := 0; bit < 8; bit++ {
			bitbuf[i*8+bit] = (b >> uint(bit)) & 1
		}
	}
	sub := NewCursor(bitbuf)
	pv, err := r.execute(*d.Body, sub, scope)
	if err != nil {
		return value.ParsedValue{}, err
	}
	cur.offset += sub.Offset() / 8
	return pv, nil
}

func (r *runner) execWithRelativeOffset(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	n := int(asUint64(expr.Eval(*d.E, scope.Frame())))
	target := cur.offset + n
	if target > len(cur.buf) {
		return value.ParsedValue{}, errs.NewOverrun(cur.offset, target-len(cur.buf))
	}
	sub := &Cursor{buf: cur.buf, offset: target}
	return r.execute(*d.Body, sub, scope)
}

func (r *runner) execMap(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	original, err := r.execute(*d.Body, cur, scope)
	if err != nil {
		return value.ParsedValue{}, err
	}
	image := expr.ApplyLambda(*d.Lambda, original.Strip(), scope.Frame())
	imagePV := value.Located(image, value.Synthesized())
	return value.ParsedValue{Kind: value.KindMapped, Original: &original, Image: &imagePV}, nil
}

func (r *runner) execMatch(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	v := expr.Eval(*d.MatchExpr, scope.Frame())
	patterns := make([]pattern.Pattern, len(d.Arms))
	for i, arm := range d.Arms {
		patterns[i] = arm.Pattern
	}
	idx, bindings, ok := pattern.FirstMatch(v, patterns)
	if !ok {
		panic(&errs.EvalError{Op: "Match", Err: errs.ErrNonExhaustiveMatch})
	}
	matched := scope
	for _, name := range bindings.Names() {
		bv, _ := bindings.Lookup(name)
		matched = matched.ExtendSingle(name, bv)
	}
	inner, err := r.execute(d.Arms[idx].Decoder, cur, matched)
	if err != nil {
		return value.ParsedValue{}, err
	}
	return value.ParsedValue{Kind: value.KindBranch, BranchIndex: idx, BranchValue: &inner}, nil
}

// execDynamic builds the canonical Huffman alphabet named by d.Dyn as an
// ordinary format.Format (decoder.HuffmanFormat), compiles it through the
// same decoder.Compile/matchtree pipeline every other Format goes through,
// and binds the resulting compiled Decoder for Apply to run (spec.md
// §4.6); there is no hand-rolled bit-range table.
func (r *runner) execDynamic(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	lengthsVal := expr.Eval(d.Dyn.Lengths, scope.Frame())
	lengths := make([]uint8, len(lengthsVal.Tuple))
	for i, lv := range lengthsVal.Tuple {
		lengths[i] = uint8(asUint64(lv))
	}
	var values []uint32
	if d.Dyn.Values != nil {
		valuesVal := expr.Eval(*d.Dyn.Values, scope.Frame())
		values = make([]uint32, len(valuesVal.Tuple))
		for i, vv := range valuesVal.Tuple {
			values[i] = uint32(asUint64(vv))
		}
	}
	alphabet, err := decoder.HuffmanFormat(lengths, values)
	if err != nil {
		return value.ParsedValue{}, &errs.EvalError{Op: "Dynamic", Err: err}
	}
	m := format.NewModule()
	ref := m.DefineNew(d.Label, nil, alphabet)
	prog, err := decoder.Compile(m, ref)
	if err != nil {
		return value.ParsedValue{}, &errs.EvalError{Op: "Dynamic", Err: err}
	}
	return r.execute(*d.Body, cur, scope.BindDecoder(d.Label, prog.Slots[ref]))
}

// execApply runs the Decoder bound by an enclosing Dynamic a single
// symbol's worth, bit-at-a-time, by flipping cur into bitMode for the
// duration of the call (cur.Peek/ReadByte then walk the compiled Union's
// MatchTree one bit per pseudo-byte, per spec.md §4.6). The bits actually
// consumed become the result's location (spec.md §4.4: Apply reads real
// input and so must be InBuffer, not Synthesized).
func (r *runner) execApply(d decoder.Decoder, cur *Cursor, scope *Scope) (value.ParsedValue, error) {
	dec, ok := scope.LookupDecoder(d.Label)
	if !ok {
		panic(&errs.EvalError{Op: "Apply", Err: errs.ErrUnboundVariable})
	}
	startByte, startBit := cur.BitPos()
	cur.bitMode = true
	pv, err := r.execute(dec, cur, scope)
	cur.bitMode = false
	if err != nil {
		return value.ParsedValue{}, err
	}
	endByte, endBit := cur.BitPos()
	sym := value.CoerceLocated(pv).Strip()
	return value.Located(sym, bitSpanLoc(startByte, startBit, endByte, endBit)), nil
}

// bitSpanLoc turns a span of consumed bits into a byte-granularity
// InBuffer location covering every byte the span touched.
func bitSpanLoc(startByte, startBit, endByte, endBit int) value.ParseLoc {
	length := endByte - startByte
	if endBit > 0 {
		length++
	}
	if length == 0 {
		length = 1
	}
	return value.InBuffer(startByte, length)
}

// asUint64 coerces any integer Value kind to a uint64, the common
// widening used everywhere a Format expression stands for a byte count,
// repeat count, or Huffman code length.
func asUint64(v value.Value) uint64 {
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
		panic(&errs.EvalError{Op: "asUint64", Err: errs.ErrTypeMismatch})
	}
}
