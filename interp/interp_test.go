package interp

import (
	"errors"
	"testing"

	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/decoder"
	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/expr"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/value"
)

func compile(t *testing.T, m *format.Module, ref format.FormatRef) *decoder.Program {
	t.Helper()
	prog, err := decoder.Compile(m, ref)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return prog
}

func TestRunTupleOfBytes(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("magic", nil, format.Tuple(
		format.Byte(byteset.Of('G')),
		format.Byte(byteset.Of('I')),
		format.Byte(byteset.Of('F')),
	))
	prog := compile(t, m, ref)
	v, offset, err := Run(prog, int(ref), []byte("GIF"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if offset != 3 {
		t.Fatalf("offset = %d, want 3", offset)
	}
	if v.Kind != value.KindTuple || len(v.Tuple) != 3 || v.Tuple[0].U8 != 'G' {
		t.Fatalf("Run() = %+v", v)
	}
}

func TestRunByteUnexpected(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("g", nil, format.Byte(byteset.Of('G')))
	prog := compile(t, m, ref)
	_, _, err := Run(prog, int(ref), []byte("X"), nil)
	var pe *errs.ParseError
	if !errors.As(err, &pe) || pe.Kind != errs.KindUnexpected {
		t.Fatalf("err = %v, want Unexpected", err)
	}
}

func TestRunByteOverByte(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("g", nil, format.Byte(byteset.Full()))
	prog := compile(t, m, ref)
	_, _, err := Run(prog, int(ref), nil, nil)
	var pe *errs.ParseError
	if !errors.As(err, &pe) || pe.Kind != errs.KindOverByte {
		t.Fatalf("err = %v, want OverByte", err)
	}
}

func TestRunEndOfInputTrailing(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("eof", nil, format.EndOfInput())
	prog := compile(t, m, ref)
	_, _, err := Run(prog, int(ref), []byte("x"), nil)
	var pe *errs.ParseError
	if !errors.As(err, &pe) || pe.Kind != errs.KindTrailing {
		t.Fatalf("err = %v, want Trailing", err)
	}
}

func TestRunUnionDispatchesAndWrapsBranch(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("tag", nil, format.Union(
		format.Variant("a", format.Byte(byteset.Of('a'))),
		format.Variant("b", format.Byte(byteset.Of('b'))),
	))
	prog := compile(t, m, ref)
	v, _, err := Run(prog, int(ref), []byte("b"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v.Kind != value.KindBranch || v.BranchIndex != 1 {
		t.Fatalf("Run() = %+v, want Branch(1, _)", v)
	}
	inner := value.Coerce(v)
	if inner.Kind != value.KindVariant || inner.Label != "b" {
		t.Fatalf("coerced = %+v, want Variant(b, _)", inner)
	}
}

func TestRunRepeatOfByte(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("digits", nil, format.Tuple(
		format.Repeat(format.Byte(byteset.Range('0', '9'))),
		format.EndOfInput(),
	))
	prog := compile(t, m, ref)
	v, _, err := Run(prog, int(ref), []byte("123"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	seq := v.Tuple[0]
	if seq.Kind != value.KindSeq || len(seq.Tuple) != 3 {
		t.Fatalf("Run() = %+v", v)
	}
}

func TestRunRepeatCount(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("three", nil, format.RepeatCount(expr.U8Const(3), format.Byte(byteset.Full())))
	prog := compile(t, m, ref)
	v, offset, err := Run(prog, int(ref), []byte("abcd"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(v.Tuple) != 3 || offset != 3 {
		t.Fatalf("Run() = %+v, offset = %d", v, offset)
	}
}

func TestRunRecordFieldsSeeEarlierBindings(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("lenPrefixed", nil, format.Record(
		format.RecordField{Label: "n", Format: format.Byte(byteset.Full())},
		format.RecordField{Label: "body", Format: format.Slice(
			expr.AsU64(expr.Var("n")),
			format.Repeat(format.Byte(byteset.Full())),
		)},
	))
	prog := compile(t, m, ref)
	v, offset, err := Run(prog, int(ref), []byte{2, 'x', 'y', 'z'}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if offset != 3 {
		t.Fatalf("offset = %d, want 3 (1 len byte + 2 sliced)", offset)
	}
	body, ok := value.RecordProj(v, "body")
	if !ok || len(body.Tuple) != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestRunLetAndCompute(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("n", nil, format.Let("x", expr.U8Const(7), format.Compute(expr.Var("x"))))
	prog := compile(t, m, ref)
	v, _, err := Run(prog, int(ref), nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v.Kind != value.KindU8 || v.U8 != 7 {
		t.Fatalf("Run() = %+v", v)
	}
}

func TestRunMapProducesMappedValue(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("doubled", nil, format.Map(
		format.Byte(byteset.Full()),
		expr.Lambda("b", expr.Mul(expr.AsU16(expr.Var("b")), expr.U16Const(2))),
	))
	prog := compile(t, m, ref)
	v, _, err := Run(prog, int(ref), []byte{21}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v.Kind != value.KindMapped || v.Image.U16 != 42 || v.Original.U8 != 21 {
		t.Fatalf("Run() = %+v", v)
	}
}

func TestRunPeekNotRejectsOnMatch(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("notA", nil, format.Tuple(
		format.PeekNot(format.Byte(byteset.Of('a'))),
		format.Byte(byteset.Full()),
	))
	prog := compile(t, m, ref)
	if _, _, err := Run(prog, int(ref), []byte("a"), nil); err == nil {
		t.Fatal("expected PeekNot to reject when the operand matches")
	}
	v, _, err := Run(prog, int(ref), []byte("b"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v.Tuple[1].U8 != 'b' {
		t.Fatalf("Run() = %+v", v)
	}
}

func TestRunAlignPadsForward(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("aligned", nil, format.Tuple(
		format.Byte(byteset.Full()),
		format.Align(4),
		format.Byte(byteset.Full()),
	))
	prog := compile(t, m, ref)
	_, offset, err := Run(prog, int(ref), []byte{1, 0, 0, 0, 9}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if offset != 5 {
		t.Fatalf("offset = %d, want 5", offset)
	}
}

func TestRunExtLocatesTopLevelByte(t *testing.T) {
	m := format.NewModule()
	ref := m.DefineNew("g", nil, format.Byte(byteset.Full()))
	prog := compile(t, m, ref)
	pv, _, err := RunExt(prog, int(ref), []byte("Z"), nil)
	if err != nil {
		t.Fatalf("RunExt() error = %v", err)
	}
	if pv.Loc.Kind != value.LocInBuffer || pv.Loc.Offset != 0 || pv.Loc.Length != 1 {
		t.Fatalf("Loc = %+v", pv.Loc)
	}
}

func TestRunDynamicHuffmanApply(t *testing.T) {
	m := format.NewModule()
	// RFC 1951 figure: lengths [2,1,3,3] yields A=10 B=0 C=110 D=111.
	lengths := expr.SeqConst(expr.U8Const(2), expr.U8Const(1), expr.U8Const(3), expr.U8Const(3))
	ref := m.DefineNew("sym", nil, format.Dynamic(
		"huff", format.Huffman(lengths, nil),
		format.Apply("huff"),
	))
	prog := compile(t, m, ref)
	// bit pattern "0" (MSB first within the byte 0x00...) decodes to B=1.
	pv, _, err := RunExt(prog, int(ref), []byte{0x00}, nil)
	if err != nil {
		t.Fatalf("RunExt() error = %v", err)
	}
	v := pv.Strip()
	if v.Kind != value.KindU32 || v.U32 != 1 {
		t.Fatalf("RunExt() = %+v, want U32(1)", v)
	}
	// Apply consumed a real bit of input, so its location must be InBuffer,
	// not Synthesized.
	if pv.Loc.Kind != value.LocInBuffer || pv.Loc.Offset != 0 || pv.Loc.Length != 1 {
		t.Fatalf("Loc = %+v, want InBuffer(0, 1)", pv.Loc)
	}
}

func TestRunCallBindsArguments(t *testing.T) {
	m := format.NewModule()
	fixed := m.DefineNew("fixed", []string{"want"}, format.Map(
		format.Byte(byteset.Full()),
		expr.Lambda("b", expr.Eq(expr.AsU8(expr.Var("b")), expr.Var("want"))),
	))
	ref := m.DefineNew("checkA", nil, format.ItemVar(fixed, expr.U8Const('a')))
	prog := compile(t, m, ref)
	v, _, err := Run(prog, int(ref), []byte("a"), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v.Kind != value.KindMapped || !v.Image.Bool {
		t.Fatalf("Run() = %+v", v)
	}
}
