package matchtree

import (
	"github.com/coregx/ahocorasick"
	"github.com/doodle-lang/doodle/errs"
)

// AhoCorasickThreshold is the sibling count at or above which the builder prefers
// a single Aho-Corasick automaton over a deep chain of per-byte dispatch
// maps, mirroring the teacher's own cutover point for literal alternations
// (meta/compile.go: "large literal alternations (>32 patterns)"). A var
// rather than a const so a Config with a non-default AhoCorasickThreshold
// can override it before compiling.
var AhoCorasickThreshold = 32

// AhoDispatch resolves a branch by running a multi-pattern automaton over
// the upcoming bytes instead of a hand-built per-byte tree. This is the
// fast path for a Union whose branches are all fixed, literal byte strings
// (spec.md §4.6: the per-symbol byte sequences a canonical Huffman table
// generates) and where ordinary determinization would otherwise need one
// dispatch level per shared prefix byte.
type AhoDispatch struct {
	automaton *ahocorasick.Automaton
	literals  [][]byte
	branches  []int // literals[i] is the required byte string for branches[i]
}

// BuildAhoDispatch indexes literal branch byte strings (literals[i] is the
// exact bytes branches[i] requires) into a single automaton. It returns
// ok=false when there are too few branches to be worth it, in which case
// the caller should fall back to the ordinary byte-map dispatch.
func BuildAhoDispatch(literals [][]byte, branches []int) (*AhoDispatch, bool) {
	if len(literals) < AhoCorasickThreshold {
		return nil, false
	}
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, false
	}
	return &AhoDispatch{automaton: auto, literals: literals, branches: branches}, true
}

// Resolve drains peek into a buffer long enough to run the automaton and
// returns the original branch index of whichever literal matched at
// position 0. Canonical Huffman code tables are prefix-free by
// construction (spec.md §4.6), so at most one literal can match here; the
// automaton only tells us a span matched, so Resolve confirms which
// literal it was by exact comparison rather than assuming the library
// exposes a pattern-id field beyond the Start/End the teacher itself
// consumes (meta/find.go). Resolve never advances the real parse cursor.
func (a *AhoDispatch) Resolve(peek func(offset int) (byte, bool)) (int, error) {
	maxLen := 0
	for _, lit := range a.literals {
		if len(lit) > maxLen {
			maxLen = len(lit)
		}
	}
	buf := make([]byte, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		b, ok := peek(i)
		if !ok {
			break
		}
		buf = append(buf, b)
	}
	m := a.automaton.Find(buf, 0)
	if m == nil || m.Start != 0 {
		return -1, &errs.CompileError{Err: errs.ErrCannotBuildMatchTree, Description: "no literal branch matched the upcoming bytes"}
	}
	span := buf[m.Start:m.End]
	for i, lit := range a.literals {
		if len(lit) == len(span) && string(lit) == string(span) {
			return a.branches[i], nil
		}
	}
	return -1, &errs.CompileError{Err: errs.ErrCannotBuildMatchTree, Description: "aho-corasick match did not correspond to a known literal"}
}
