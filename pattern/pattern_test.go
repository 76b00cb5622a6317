package pattern

import (
	"testing"

	"github.com/doodle-lang/doodle/value"
)

func TestMatchBindingRecordsValue(t *testing.T) {
	var b Bindings
	ok := Match(Binding("x"), value.U8(9), &b)
	if !ok {
		t.Fatal("Binding should always match")
	}
	got, found := b.Lookup("x")
	if !found || got.U8 != 9 {
		t.Fatalf("Lookup(x) = %v, %v", got, found)
	}
}

func TestMatchStructural(t *testing.T) {
	tests := []struct {
		name string
		p    Pattern
		v    value.Value
		want bool
	}{
		{"wildcard", Wildcard(), value.Bool(false), true},
		{"u8 match", U8(5), value.U8(5), true},
		{"u8 mismatch", U8(5), value.U8(6), false},
		{"tuple len mismatch", Tuple(U8(1), U8(2)), value.TupleOf([]value.Value{value.U8(1)}), false},
		{"variant label mismatch", Variant("a", Wildcard()), value.VariantOf("b", value.Bool(true)), false},
		{"variant match", Variant("a", U8(1)), value.VariantOf("a", value.U8(1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bindings
			if got := Match(tt.p, tt.v, &b); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchTransparentThroughWrappers(t *testing.T) {
	wrapped := value.BranchOf(1, value.MappedOf(value.U8(0), value.U8(42)))
	var b Bindings
	if !Match(U8(42), wrapped, &b) {
		t.Fatal("Match should coerce through Branch/Mapped")
	}
}

func TestFirstMatchOrder(t *testing.T) {
	patterns := []Pattern{U8(1), Binding("any")}
	idx, b, ok := FirstMatch(value.U8(9), patterns)
	if !ok || idx != 1 {
		t.Fatalf("FirstMatch index = %d, ok=%v, want 1, true", idx, ok)
	}
	got, _ := b.Lookup("any")
	if got.U8 != 9 {
		t.Fatalf("binding = %v, want U8(9)", got)
	}
}

func TestFirstMatchNoneMatch(t *testing.T) {
	_, _, ok := FirstMatch(value.Bool(true), []Pattern{U8(1), U8(2)})
	if ok {
		t.Fatal("expected no match")
	}
}
