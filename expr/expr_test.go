package expr

import (
	"errors"
	"testing"

	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/pattern"
	"github.com/doodle-lang/doodle/value"
)

func TestConstantsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		e    Expr
		want value.Value
	}{
		{"bool", BoolConst(true), value.Bool(true)},
		{"u8", U8Const(7), value.U8(7)},
		{"char", CharConst('x'), value.Char('x')},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Eval(tt.e, Empty())
			if !value.Equal(got, tt.want) {
				t.Errorf("Eval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVarLookup(t *testing.T) {
	scope := Empty().ExtendSingle("n", value.U8(3))
	got := Eval(Var("n"), scope)
	if got.U8 != 3 {
		t.Fatalf("Eval(Var(n)) = %v", got)
	}
}

func TestArithmeticSameTypeRequired(t *testing.T) {
	_, err := Try(Add(U8Const(1), U16Const(2)), Empty())
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	var ee *errs.EvalError
	if !errors.As(err, &ee) || !errors.Is(ee, errs.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestArithmeticOverflow(t *testing.T) {
	_, err := Try(Add(U8Const(250), U8Const(10)), Empty())
	if !errors.Is(err, errs.ErrOverflow) {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := Try(Div(U8Const(5), U8Const(0)), Empty())
	if !errors.Is(err, errs.ErrDivideByZero) {
		t.Fatalf("expected divide-by-zero error, got %v", err)
	}
}

func TestRelations(t *testing.T) {
	got := Eval(Lt(U8Const(1), U8Const(2)), Empty())
	if !got.Bool {
		t.Fatal("1 < 2 should be true")
	}
}

func TestCastTruncationChecked(t *testing.T) {
	_, err := Try(AsU8(U16Const(300)), Empty())
	if !errors.Is(err, errs.ErrCastOverflow) {
		t.Fatalf("expected cast overflow, got %v", err)
	}
	ok := Eval(AsU8(U16Const(200)), Empty())
	if ok.U8 != 200 {
		t.Fatalf("AsU8(200) = %v", ok)
	}
}

func TestEndianPackers(t *testing.T) {
	be := Eval(U16Be(TupleConst(U8Const(0x01), U8Const(0x02))), Empty())
	if be.U16 != 0x0102 {
		t.Fatalf("U16Be = %#x, want 0x0102", be.U16)
	}
	le := Eval(U16Le(TupleConst(U8Const(0x01), U8Const(0x02))), Empty())
	if le.U16 != 0x0201 {
		t.Fatalf("U16Le = %#x, want 0x0201", le.U16)
	}
}

func TestSeqLengthAndSubSeq(t *testing.T) {
	seq := SeqConst(U8Const(1), U8Const(2), U8Const(3), U8Const(4))
	n := Eval(SeqLength(seq), Empty())
	if n.U32 != 4 {
		t.Fatalf("SeqLength = %v, want 4", n)
	}
	sub := Eval(SubSeq(seq, U32Const(1), U32Const(2)), Empty())
	if len(sub.Tuple) != 2 || sub.Tuple[0].U8 != 2 || sub.Tuple[1].U8 != 3 {
		t.Fatalf("SubSeq = %v", sub)
	}
}

func TestDup(t *testing.T) {
	got := Eval(Dup(U32Const(3), U8Const(9)), Empty())
	if len(got.Tuple) != 3 {
		t.Fatalf("Dup produced %d elems, want 3", len(got.Tuple))
	}
	for _, e := range got.Tuple {
		if e.U8 != 9 {
			t.Fatalf("Dup element = %v, want U8(9)", e)
		}
	}
}

func TestFlatMap(t *testing.T) {
	// double each element: x -> [x, x]
	lam := Lambda("x", SeqConst(Var("x"), Var("x")))
	seq := SeqConst(U8Const(1), U8Const(2))
	got := Eval(FlatMap(lam, seq), Empty())
	want := []uint8{1, 1, 2, 2}
	if len(got.Tuple) != len(want) {
		t.Fatalf("FlatMap len = %d, want %d", len(got.Tuple), len(want))
	}
	for i, w := range want {
		if got.Tuple[i].U8 != w {
			t.Errorf("FlatMap[%d] = %v, want %d", i, got.Tuple[i], w)
		}
	}
}

func TestFlatMapAccum(t *testing.T) {
	// running sum prefix: accum' = accum + x, emit [accum']
	lam := Lambda("p", TupleConst(
		Add(TupleProj(Var("p"), 0), TupleProj(Var("p"), 1)),
		SeqConst(Add(TupleProj(Var("p"), 0), TupleProj(Var("p"), 1))),
	))
	seq := SeqConst(U32Const(1), U32Const(2), U32Const(3))
	got := Eval(FlatMapAccum(lam, U32Const(0), seq), Empty())
	want := []uint32{1, 3, 6}
	if len(got.Tuple) != len(want) {
		t.Fatalf("FlatMapAccum len = %d", len(got.Tuple))
	}
	for i, w := range want {
		if got.Tuple[i].U32 != w {
			t.Errorf("FlatMapAccum[%d] = %v, want %d", i, got.Tuple[i], w)
		}
	}
}

func TestInflateOverlappingCopy(t *testing.T) {
	// spec.md §8 scenario 7
	seq := SeqConst(
		InflateLiteral(U8Const(0x41)),
		InflateLiteral(U8Const(0x42)),
		InflateReference(U32Const(4), U32Const(2)),
	)
	got := Eval(Inflate(seq), Empty())
	want := []uint8{0x41, 0x42, 0x41, 0x42, 0x41, 0x42}
	if len(got.Tuple) != len(want) {
		t.Fatalf("Inflate len = %d, want %d", len(got.Tuple), len(want))
	}
	for i, w := range want {
		if got.Tuple[i].U8 != w {
			t.Errorf("Inflate[%d] = %#x, want %#x", i, got.Tuple[i].U8, w)
		}
	}
}

func TestInflateDistanceOutOfRange(t *testing.T) {
	seq := SeqConst(InflateReference(U32Const(1), U32Const(1)))
	_, err := Try(Inflate(seq), Empty())
	if !errors.Is(err, errs.ErrInflateDistance) {
		t.Fatalf("expected distance error, got %v", err)
	}
}

func TestMatchFirstArmWins(t *testing.T) {
	m := Match(U8Const(5),
		MatchArm{Pattern: pattern.U8(5), Branch: BoolConst(true)},
		MatchArm{Pattern: pattern.Wildcard(), Branch: BoolConst(false)},
	)
	got := Eval(m, Empty())
	if !got.Bool {
		t.Fatal("first matching arm should win")
	}
}

func TestMatchNonExhaustiveFatal(t *testing.T) {
	m := Match(U8Const(5), MatchArm{Pattern: pattern.U8(6), Branch: BoolConst(true)})
	_, err := Try(m, Empty())
	if !errors.Is(err, errs.ErrNonExhaustiveMatch) {
		t.Fatalf("expected non-exhaustive match error, got %v", err)
	}
}

func TestMatchBindsPatternVariables(t *testing.T) {
	m := Match(U8Const(5), MatchArm{Pattern: pattern.Binding("x"), Branch: Var("x")})
	got := Eval(m, Empty())
	if got.U8 != 5 {
		t.Fatalf("Match binding = %v, want U8(5)", got)
	}
}

func TestDirectLambdaEvalIsError(t *testing.T) {
	_, err := Try(Lambda("x", Var("x")), Empty())
	if !errors.Is(err, errs.ErrDirectLambdaEval) {
		t.Fatalf("expected direct lambda eval error, got %v", err)
	}
}

func TestUnboundVariable(t *testing.T) {
	_, err := Try(Var("missing"), Empty())
	if !errors.Is(err, errs.ErrUnboundVariable) {
		t.Fatalf("expected unbound variable error, got %v", err)
	}
}
