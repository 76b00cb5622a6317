package matchtree

import (
	"errors"
	"testing"

	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/format"
)

func candidatesOf(fs ...format.Format) []Candidate {
	cs := make([]Candidate, len(fs))
	for i, f := range fs {
		cs[i] = Candidate{Format: f, Next: Done()}
	}
	return cs
}

func TestBuildSingleBranchAccepts(t *testing.T) {
	m := format.NewModule()
	b := NewBuilder(m)
	tree, err := b.Build(candidatesOf(format.Byte(byteset.Of('a'))))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if tree.Kind != NodeAccept || tree.Branch != 0 {
		t.Fatalf("Build() = %+v, want NodeAccept branch 0", tree)
	}
}

func TestBuildDisjointBranchesDispatch(t *testing.T) {
	m := format.NewModule()
	b := NewBuilder(m)
	tree, err := b.Build(candidatesOf(format.Byte(byteset.Of('a')), format.Byte(byteset.Of('b'))))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	branch, err := Walk(tree, fixedPeek([]byte("a")))
	if err != nil || branch != 0 {
		t.Fatalf("Walk(a) = (%d, %v), want (0, nil)", branch, err)
	}
	branch, err = Walk(tree, fixedPeek([]byte("b")))
	if err != nil || branch != 1 {
		t.Fatalf("Walk(b) = (%d, %v), want (1, nil)", branch, err)
	}
}

func TestBuildIdenticalBranchesFail(t *testing.T) {
	m := format.NewModule()
	b := NewBuilder(m)
	_, err := b.Build(candidatesOf(format.Byte(byteset.Of('a')), format.Byte(byteset.Of('a'))))
	var ce *errs.CompileError
	if !errors.As(err, &ce) || !errors.Is(ce, errs.ErrCannotBuildMatchTree) {
		t.Fatalf("expected ErrCannotBuildMatchTree, got %v", err)
	}
}

// TestBuildRecursesIntoSecondByte is the case review comment 1 called out:
// two branches collide on their first byte but diverge on the second, so
// the builder must recurse into each branch's derivative instead of
// failing at depth 0.
func TestBuildRecursesIntoSecondByte(t *testing.T) {
	m := format.NewModule()
	b := NewBuilder(m)
	tree, err := b.Build(candidatesOf(
		format.Tuple(format.Byte(byteset.Of(0x01)), format.Byte(byteset.Of(0xAA))),
		format.Tuple(format.Byte(byteset.Of(0x01)), format.Byte(byteset.Of(0xBB))),
	))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	branch, err := Walk(tree, fixedPeek([]byte{0x01, 0xAA}))
	if err != nil || branch != 0 {
		t.Fatalf("Walk(01 AA) = (%d, %v), want (0, nil)", branch, err)
	}
	branch, err = Walk(tree, fixedPeek([]byte{0x01, 0xBB}))
	if err != nil || branch != 1 {
		t.Fatalf("Walk(01 BB) = (%d, %v), want (1, nil)", branch, err)
	}
}

func TestWalkFallsThroughToEOF(t *testing.T) {
	m := format.NewModule()
	b := NewBuilder(m)
	tree, err := b.Build(candidatesOf(format.Byte(byteset.Of('a')), format.EndOfInput()))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	branch, err := Walk(tree, fixedPeek(nil))
	if err != nil || branch != 1 {
		t.Fatalf("Walk(EOF) = (%d, %v), want (1, nil)", branch, err)
	}
}

func TestFirstSetByteLeaf(t *testing.T) {
	m := format.NewModule()
	s := FirstSet(format.Byte(byteset.Of('x')), Done(), m)
	if !s.Contains('x') || s.Len() != 1 {
		t.Fatalf("FirstSet(Byte(x)) = %v", s)
	}
}

func TestFirstSetTupleFallsThroughNullablePrefix(t *testing.T) {
	m := format.NewModule()
	f := format.Tuple(format.Align(1), format.Byte(byteset.Of('y')))
	s := FirstSet(f, Done(), m)
	if !s.Contains('y') {
		t.Fatalf("FirstSet should fall through Align to the next field's byte, got %v", s)
	}
}

func TestFirstSetEndOfInputIsEOF(t *testing.T) {
	m := format.NewModule()
	s := FirstSet(format.EndOfInput(), Done(), m)
	if !s.ContainsEOF() || s.Len() != 0 {
		t.Fatalf("FirstSet(EndOfInput) = %v, want EOF only", s)
	}
}

func fixedPeek(data []byte) func(int) (byte, bool) {
	return func(offset int) (byte, bool) {
		if offset < 0 || offset >= len(data) {
			return 0, false
		}
		return data[offset], true
	}
}
