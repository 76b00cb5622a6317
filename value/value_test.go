package value

import "testing"

func TestCoerceStripsMappedAndBranch(t *testing.T) {
	inner := U8(7)
	mapped := MappedOf(inner, Bool(true))
	if got := Coerce(mapped); got.Kind != KindBool {
		t.Fatalf("Coerce(Mapped) = %v, want Bool", got.Kind)
	}
	branch := BranchOf(2, inner)
	if got := Coerce(branch); !Equal(got, inner) {
		t.Fatalf("Coerce(Branch) = %v, want %v", got, inner)
	}
}

func TestEqualTransparentThroughWrappers(t *testing.T) {
	a := U32(42)
	wrapped := BranchOf(0, MappedOf(U8(1), a))
	if !Equal(a, wrapped) {
		t.Fatal("Equal should see through Mapped/Branch wrappers")
	}
}

func TestRecordProjOrderAndLabels(t *testing.T) {
	rec := RecordOf([]Field{
		{Label: "n", Value: U8(3)},
		{Label: "data", Value: SeqOf([]Value{U8(1), U8(2), U8(3)})},
	})
	n, ok := RecordProj(rec, "n")
	if !ok || n.U8 != 3 {
		t.Fatalf("RecordProj(n) = %v, %v", n, ok)
	}
	data, ok := RecordProj(rec, "data")
	if !ok {
		t.Fatal("RecordProj(data) missing")
	}
	el, ok := TupleProj(data, 1)
	if !ok || el.U8 != 2 {
		t.Fatalf("TupleProj(data, 1) = %v, %v", el, ok)
	}
}

func TestParseLocJoin(t *testing.T) {
	a := InBuffer(10, 3)
	b := InBuffer(5, 2)
	got := Join(a, b)
	if got.Offset != 5 || got.Length != 5 {
		t.Fatalf("Join = %+v, want offset=5 length=5", got)
	}
	if !Less(InBuffer(0, 1), Synthesized()) {
		t.Fatal("in-buffer location should sort before synthesized")
	}
	if got := Join(Synthesized(), a); got != a {
		t.Fatalf("Synthesized should be Join identity, got %+v", got)
	}
}

func TestParseLocMinPrefersConcrete(t *testing.T) {
	got := Min(Synthesized(), InBuffer(4, 1))
	if got.Kind != LocInBuffer {
		t.Fatal("Min should prefer the in-buffer location")
	}
}

func TestLocatedStripRoundTrip(t *testing.T) {
	v := RecordOf([]Field{
		{Label: "a", Value: U8(1)},
		{Label: "b", Value: VariantOf("x", Bool(true))},
	})
	pv := Located(v, InBuffer(0, 2))
	if !Equal(pv.Strip(), v) {
		t.Fatalf("Strip(Located(v)) != v: got %+v", pv.Strip())
	}
}
