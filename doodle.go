// Package doodle parses binary formats described declaratively as a
// format.Module into structured value.Value trees.
//
// A format is described once as a format.Module, compiled into a Program,
// and then run against any number of input buffers:
//
//	m := format.NewModule()
//	ref := m.DefineNew("gif-header", nil, format.Tuple(
//		format.Byte(byteset.Of('G')),
//		format.Byte(byteset.Of('I')),
//		format.Byte(byteset.Of('F')),
//	))
//	prog, err := doodle.Compile(m, ref)
//	if err != nil {
//		// the format description itself is ambiguous or malformed
//	}
//	v, _, err := prog.Run([]byte("GIF"))
package doodle

import (
	"github.com/rs/zerolog"

	"github.com/doodle-lang/doodle/decoder"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/interp"
	"github.com/doodle-lang/doodle/value"
)

// Program is a compiled format.Module, ready to run against input buffers.
// Compiling is the expensive step (building every match tree up front); Run
// and RunExt are cheap to call repeatedly against the same Program.
type Program struct {
	compiled *decoder.Program
	root     int
	logger   *zerolog.Logger
}

// Compile lowers module into a Program using DefaultConfig, with root as
// the external entry point.
//
// Example:
//
//	prog, err := doodle.Compile(module, rootRef)
func Compile(module *format.Module, root format.FormatRef) (*Program, error) {
	return CompileWithConfig(module, root, DefaultConfig())
}

// MustCompile is Compile but panics on error, for formats known valid at
// compile time (e.g. built as package-level vars).
func MustCompile(module *format.Module, root format.FormatRef) *Program {
	prog, err := Compile(module, root)
	if err != nil {
		panic("doodle: Compile: " + err.Error())
	}
	return prog
}

// CompileWithConfig compiles module with custom configuration.
//
// Example:
//
//	cfg := doodle.DefaultConfig()
//	cfg.MaxLookaheadDepth = 64 // disambiguate deeper alternations
//	prog, err := doodle.CompileWithConfig(module, rootRef, cfg)
func CompileWithConfig(module *format.Module, root format.FormatRef, cfg Config) (*Program, error) {
	cfg.apply()
	compiled, err := decoder.Compile(module, root)
	if err != nil {
		return nil, err
	}
	return &Program{compiled: compiled, root: int(root), logger: cfg.Logger}, nil
}

// Run parses buf, returning the unlocated parsed value, the byte offset the
// cursor stopped at, and any parse error.
//
// Example:
//
//	v, _, err := prog.Run(data)
func (p *Program) Run(buf []byte) (value.Value, int, error) {
	return interp.Run(p.compiled, p.root, buf, p.logger)
}

// RunExt parses buf like Run, but every produced value additionally carries
// its source location (byte offset and length, or "synthesized" for values
// that came from a Compute/Map expression rather than raw bytes).
//
// Example:
//
//	pv, _, err := prog.RunExt(data)
//	fmt.Println(pv.Loc.Offset, pv.Loc.Length)
func (p *Program) RunExt(buf []byte) (value.ParsedValue, int, error) {
	return interp.RunExt(p.compiled, p.root, buf, p.logger)
}

// Names lists every named definition in the compiled module, in module
// definition order; Slots[i] in the underlying decoder.Program corresponds
// to Names[i].
func (p *Program) Names() []string {
	return p.compiled.Names
}
