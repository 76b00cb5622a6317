package doodle

import (
	"testing"

	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/value"
)

func gifModule() (*format.Module, format.FormatRef) {
	m := format.NewModule()
	ref := m.DefineNew("gif-magic", nil, format.Tuple(
		format.Byte(byteset.Of('G')),
		format.Byte(byteset.Of('I')),
		format.Byte(byteset.Of('F')),
	))
	return m, ref
}

func TestCompile(t *testing.T) {
	m, ref := gifModule()
	prog, err := Compile(m, ref)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if prog == nil {
		t.Fatal("Compile() returned nil")
	}
}

func TestMustCompilePanicsOnUnresolvableAmbiguity(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustCompile() did not panic on an unbuildable match tree")
		}
	}()
	m := format.NewModule()
	ref := m.DefineNew("ambiguous", nil, format.Union(
		format.Variant("a", format.Byte(byteset.Full())),
		format.Variant("b", format.Byte(byteset.Full())),
	))
	MustCompile(m, ref)
}

func TestProgramRun(t *testing.T) {
	m, ref := gifModule()
	prog, err := Compile(m, ref)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	v, offset, err := prog.Run([]byte("GIF"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if offset != 3 {
		t.Fatalf("offset = %d, want 3", offset)
	}
	if v.Kind != value.KindTuple || len(v.Tuple) != 3 {
		t.Fatalf("Run() = %+v", v)
	}
}

func TestProgramRunExtLocatesValues(t *testing.T) {
	m, ref := gifModule()
	prog, err := Compile(m, ref)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	pv, _, err := prog.RunExt([]byte("GIF"))
	if err != nil {
		t.Fatalf("RunExt() error = %v", err)
	}
	if pv.Loc.Kind != value.LocInBuffer || pv.Loc.Offset != 0 || pv.Loc.Length != 3 {
		t.Fatalf("Loc = %+v", pv.Loc)
	}
}

func TestProgramNames(t *testing.T) {
	m, ref := gifModule()
	prog, err := Compile(m, ref)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	names := prog.Names()
	if len(names) != 1 || names[0] != "gif-magic" {
		t.Fatalf("Names() = %v", names)
	}
}

func TestCompileWithConfigWidensLookahead(t *testing.T) {
	m, ref := gifModule()
	cfg := DefaultConfig()
	cfg.MaxLookaheadDepth = 64
	prog, err := CompileWithConfig(m, ref, cfg)
	if err != nil {
		t.Fatalf("CompileWithConfig() error = %v", err)
	}
	if _, _, err := prog.Run([]byte("GIF")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
