package decoder

import (
	"fmt"

	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/matchtree"
)

// Program is the compiled output of a Module: one Decoder per named
// definition, indexed by the same FormatRef numbering the Module used, so
// a KindCall's Slot is directly usable as an index (spec.md §4.3).
type Program struct {
	Slots []Decoder
	Names []string
	// ArgNames[ref] lists the formal parameter names a KindCall to ref
	// must bind before running Slots[ref], in order (spec.md §3.5 ItemVar).
	ArgNames [][]string
}

// Compiler lowers a format.Module into a Program, memoizing each named
// definition's compiled Decoder exactly once (spec.md §4.3: "a definition
// is compiled once, regardless of how many ItemVar call sites reference
// it"), using the module's own def ordering as the memo key the way the
// teacher's dfa/onepass builder keys its nfaToDFA map on NFA state id.
type Compiler struct {
	module  *format.Module
	slots   []Decoder
	started []bool
}

// Compile lowers every definition in m into a Program. root names the
// definition that is the external entry point (its compiled Decoder is
// also available at Program.Slots[rootRef]).
func Compile(m *format.Module, root format.FormatRef) (*Program, error) {
	c := &Compiler{
		module:  m,
		slots:   make([]Decoder, m.Len()),
		started: make([]bool, m.Len()),
	}
	for ref := 0; ref < m.Len(); ref++ {
		if _, err := c.compileSlot(format.FormatRef(ref)); err != nil {
			return nil, err
		}
	}
	names := make([]string, m.Len())
	argNames := make([][]string, m.Len())
	for ref := 0; ref < m.Len(); ref++ {
		def := m.Get(format.FormatRef(ref))
		names[ref] = def.Name
		an := make([]string, len(def.Args))
		for i, a := range def.Args {
			an[i] = a.Name
		}
		argNames[ref] = an
	}
	_ = root // root is validated by the caller resolving it against Program.Names
	return &Program{Slots: c.slots, Names: names, ArgNames: argNames}, nil
}

func (c *Compiler) compileSlot(ref format.FormatRef) (Decoder, error) {
	if c.started[ref] {
		return c.slots[ref], nil
	}
	c.started[ref] = true
	def := c.module.Get(ref)
	d, err := c.compile(def.Body, matchtree.Done())
	if err != nil {
		return Decoder{}, fmt.Errorf("compiling %q: %w", def.Name, err)
	}
	c.slots[ref] = d
	return d, nil
}

// compile lowers a single Format node, given what (in the enclosing
// Tuple/Record/Repeat) follows it, into a Decoder. next is threaded
// through exactly as matchtree.FirstSet threads it, and is consulted only
// at Union/Repeat/Repeat1 boundaries where a MatchTree must be built.
func (c *Compiler) compile(f format.Format, next *matchtree.Next) (Decoder, error) {
	switch f.Kind {
	case format.KindItemVar:
		if _, err := c.compileSlot(format.FormatRef(f.ItemID)); err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindCall, Slot: f.ItemID, Args: f.Args}, nil

	case format.KindFail:
		return Decoder{Kind: KindFail}, nil
	case format.KindEndOfInput:
		return Decoder{Kind: KindEndOfInput}, nil
	case format.KindAlign:
		return Decoder{Kind: KindAlign, AlignN: f.AlignN}, nil
	case format.KindByte:
		return Decoder{Kind: KindByte, Bytes: f.Bytes}, nil

	case format.KindVariant:
		body, err := c.compile(*f.Body, next)
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindVariant, Label: f.Label, Body: &body}, nil

	case format.KindUnion:
		return c.compileUnion(f, next, KindUnion)
	case format.KindUnionNondet:
		return c.compileUnion(f, next, KindUnionNondet)

	case format.KindTuple:
		return c.compileSeq(f.Elems, next, func(elems []Decoder) Decoder {
			return Decoder{Kind: KindTuple, Elems: elems}
		})

	case format.KindRecord:
		elems := make([]format.Format, len(f.Fields))
		for i, fld := range f.Fields {
			elems[i] = fld.Format
		}
		seq, err := c.compileSeqRaw(elems, next)
		if err != nil {
			return Decoder{}, err
		}
		fields := make([]RecordField, len(seq))
		for i, fld := range f.Fields {
			fields[i] = RecordField{Label: fld.Label, Decoder: seq[i]}
		}
		return Decoder{Kind: KindRecord, Fields: fields}, nil

	case format.KindRepeat:
		return c.compileRepeat(f, next, KindRepeat)
	case format.KindRepeat1:
		return c.compileRepeat(f, next, KindRepeat1)

	case format.KindRepeatCount:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindRepeatCount, E: f.E, Body: &body}, nil

	case format.KindRepeatUntilLast:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindRepeatUntilLast, E: f.E, Body: &body}, nil

	case format.KindRepeatUntilSeq:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindRepeatUntilSeq, E: f.E, Body: &body}, nil

	case format.KindPeek:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindPeek, Body: &body}, nil

	case format.KindPeekNot:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		if f.Body.Kind != format.KindByte && format.IsNullable(*f.Body, c.module) {
			return Decoder{}, &errs.CompileError{Err: errs.ErrPeekNotTooWide, Description: "PeekNot operand is nullable"}
		}
		return Decoder{Kind: KindPeekNot, Body: &body}, nil

	case format.KindSlice:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindSlice, E: f.E, Body: &body}, nil

	case format.KindBits:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindBits, Body: &body}, nil

	case format.KindWithRelativeOffset:
		body, err := c.compile(*f.Body, matchtree.Done())
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindWithRelativeOffset, E: f.E, Body: &body}, nil

	case format.KindMap:
		body, err := c.compile(*f.Body, next)
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindMap, Body: &body, Lambda: f.Lambda}, nil

	case format.KindCompute:
		return Decoder{Kind: KindCompute, E: f.E}, nil

	case format.KindLet:
		body, err := c.compile(*f.Body, next)
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindLet, Label: f.Label, E: f.E, Body: &body}, nil

	case format.KindMatch:
		arms := make([]MatchArm, len(f.Arms))
		for i, arm := range f.Arms {
			d, err := c.compile(arm.Format, next)
			if err != nil {
				return Decoder{}, err
			}
			arms[i] = MatchArm{Pattern: arm.Pattern, Decoder: d}
		}
		return Decoder{Kind: KindMatch, MatchExpr: f.MatchExpr, Arms: arms}, nil

	case format.KindDynamic:
		body, err := c.compile(*f.Body, next)
		if err != nil {
			return Decoder{}, err
		}
		return Decoder{Kind: KindDynamic, Label: f.Label, Dyn: f.Dyn, Body: &body}, nil

	case format.KindApply:
		return Decoder{Kind: KindApply, Label: f.Label}, nil

	default:
		return Decoder{}, fmt.Errorf("decoder: unhandled format kind %v", f.Kind)
	}
}

// compileSeq compiles a Tuple's elements, threading each element's "next"
// continuation to be the rest of the sequence followed by the outer next,
// exactly mirroring matchtree.firstSetSeq.
func (c *Compiler) compileSeq(elems []format.Format, next *matchtree.Next, wrap func([]Decoder) Decoder) (Decoder, error) {
	ds, err := c.compileSeqRaw(elems, next)
	if err != nil {
		return Decoder{}, err
	}
	return wrap(ds), nil
}

func (c *Compiler) compileSeqRaw(elems []format.Format, next *matchtree.Next) ([]Decoder, error) {
	out := make([]Decoder, len(elems))
	for i := len(elems) - 1; i >= 0; i-- {
		tail := next
		if i+1 < len(elems) {
			tail = matchtree.Then(format.Format{Kind: format.KindTuple, Elems: elems[i+1:]}, next)
		}
		d, err := c.compile(elems[i], tail)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// compileRepeat compiles a Repeat/Repeat1 body and builds the two-way
// MatchTree ("run the body again" vs. "stop here") that the interpreter
// consults before each iteration (spec.md §4.2, §4.3). A nullable body
// would make that choice undecidable from lookahead alone (every
// iteration would look identical to stopping), so it is rejected at
// compile time per spec.md §4.2's Repeat1 invariant, generalized here to
// Repeat as well since an infinite empty-matching loop is never useful.
func (c *Compiler) compileRepeat(f format.Format, next *matchtree.Next, kind Kind) (Decoder, error) {
	if format.IsNullable(*f.Body, c.module) {
		return Decoder{}, &errs.CompileError{Err: errs.ErrCannotRepeatNullable, Description: "repeat body can match empty"}
	}
	loop := matchtree.Then(f, next)
	body, err := c.compile(*f.Body, loop)
	if err != nil {
		return Decoder{}, err
	}

	b := matchtree.NewBuilder(c.module)
	tree, err := b.Build([]matchtree.Candidate{
		{Format: *f.Body, Next: loop},
		matchtree.ContinuationCandidate(next),
	})
	if err != nil {
		return Decoder{}, fmt.Errorf("compiling %v: %w", kind, err)
	}
	return Decoder{Kind: kind, Body: &body, Tree: tree}, nil
}

func (c *Compiler) compileUnion(f format.Format, next *matchtree.Next, kind Kind) (Decoder, error) {
	elems := make([]Decoder, len(f.Elems))
	candidates := make([]matchtree.Candidate, len(f.Elems))
	for i, elem := range f.Elems {
		d, err := c.compile(elem, next)
		if err != nil {
			return Decoder{}, err
		}
		elems[i] = d
		candidates[i] = matchtree.Candidate{Format: elem, Next: next}
	}

	var tree *matchtree.MatchTree
	if kind == KindUnion {
		b := matchtree.NewBuilder(c.module)
		t, err := b.Build(candidates)
		if err != nil {
			return Decoder{}, fmt.Errorf("compiling Union: %w", err)
		}
		tree = t
	}
	return Decoder{Kind: kind, Elems: elems, Tree: tree}, nil
}
