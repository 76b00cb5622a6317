package matchtree

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/errs"
	"github.com/doodle-lang/doodle/format"
	"github.com/doodle-lang/doodle/internal/sparse"
)

// Logger receives one Debug event per node built by Builder.build (live
// branch count, depth reached), following SPEC_FULL.md's ambient logging
// section. Nil (the default) disables this entirely; doodle.Config sets it
// from Config.Logger before compiling.
var Logger *zerolog.Logger

// NodeKind tags a MatchTree node.
type NodeKind uint8

const (
	// NodeAccept means the branch has already been uniquely determined;
	// no further lookahead is needed.
	NodeAccept NodeKind = iota
	// NodeDispatch means the next byte (or EOF) must be inspected to
	// narrow down further.
	NodeDispatch
	// NodeReject means none of the original branches can possibly match
	// here (reachable only when the Byte sets themselves don't cover the
	// whole alphabet, which itself is a normal, non-exhaustive Union).
	NodeReject
)

// MatchTree is the compiled disambiguation structure for a Union's branches
// (spec.md §4.2): an interpreter walks it byte by byte against the input
// cursor, without consuming those bytes from the real parse, until it
// reaches a NodeAccept telling it which branch to actually run.
type MatchTree struct {
	Kind NodeKind

	// NodeAccept
	Branch int

	// NodeDispatch
	ByByte map[byte]*MatchTree
	ByEOF  *MatchTree

	// Aho is set instead of ByByte when the builder found it profitable to
	// replace a wide byte-keyed fan-out with a single Aho-Corasick
	// automaton over the (fixed-length, literal) remaining branches —
	// typical of a canonical-Huffman-generated symbol table (spec.md §4.6).
	Aho *AhoDispatch
}

// Builder constructs MatchTrees via bounded-lookahead determinization
// (spec.md §4.2): at each depth, a byte shared by two or more branches is
// resolved by recursing one level deeper into each colliding branch's
// derivative (its residual continuation after consuming that byte), up to
// MaxLookahead. Live branches are tracked with a sparse.SparseSet, the same
// small-integer-id membership structure the teacher's own DFA/NFA builders
// use for their live-state worklists.
//
// Unlike a conventional DFA builder, nodes are not memoized across the
// whole construction: two different byte paths reaching the same set of
// live branch indices at the same depth can carry different residual
// Candidates (Brzozowski derivatives, not raw states), so a memo keyed on
// (live, depth) alone would be unsound. Termination instead relies solely
// on the MaxLookahead depth bound, matching spec.md §4.2's "lookahead is
// bounded, not unbounded backtracking".
type Builder struct {
	module *format.Module
}

// NewBuilder creates a Builder resolving ItemVar references against m.
func NewBuilder(m *format.Module) *Builder {
	return &Builder{module: m}
}

// Build compiles a MatchTree disambiguating candidates, each one a Format
// still to be matched followed by what comes after it (spec.md §4.2:
// disambiguation must account for what follows a branch, not just the
// branch body in isolation).
func (b *Builder) Build(candidates []Candidate) (*MatchTree, error) {
	live := sparse.NewSparseSet(uint32(len(candidates)))
	states := make([][]Candidate, len(candidates))
	for i, c := range candidates {
		live.Insert(uint32(i))
		states[i] = []Candidate{c}
	}
	return b.build(states, live, 0)
}

func (b *Builder) build(states [][]Candidate, live *sparse.SparseSet, depth int) (*MatchTree, error) {
	if live.IsEmpty() {
		return &MatchTree{Kind: NodeReject}, nil
	}
	liveIdx := make([]int, 0, live.Size())
	for _, v := range live.Values() {
		liveIdx = append(liveIdx, int(v))
	}
	sort.Ints(liveIdx)

	if len(liveIdx) == 1 {
		return &MatchTree{Kind: NodeAccept, Branch: liveIdx[0]}, nil
	}
	if depth >= MaxLookahead {
		return nil, &errs.CompileError{
			Err:         errs.ErrCannotBuildMatchTree,
			Description: "ambiguous branches could not be resolved within the bounded lookahead window",
		}
	}
	if Logger != nil {
		Logger.Debug().Int("branches", len(liveIdx)).Int("depth", depth).Msg("match tree node")
	}

	byByte := make(map[byte][]int)
	var eofBranches []int
	for _, idx := range liveIdx {
		set := byteset.Empty()
		for _, c := range states[idx] {
			set = byteset.Union(set, FirstSet(c.Format, c.Next, b.module))
		}
		if set.ContainsEOF() {
			eofBranches = append(eofBranches, idx)
		}
		set.Iterate(func(bt byte) {
			byByte[bt] = append(byByte[bt], idx)
		})
	}
	if len(eofBranches) > 1 {
		return nil, &errs.CompileError{
			Err:         errs.ErrCannotBuildMatchTree,
			Description: "multiple branches admit end-of-input ambiguously",
		}
	}

	node := &MatchTree{Kind: NodeDispatch, ByByte: make(map[byte]*MatchTree, len(byByte))}
	if len(eofBranches) == 1 {
		node.ByEOF = &MatchTree{Kind: NodeAccept, Branch: eofBranches[0]}
	}

	if aho, ok := b.tryAho(depth, states, liveIdx); ok {
		node.Aho = aho
		return node, nil
	}

	for bt, branches := range byByte {
		if len(branches) == 1 {
			node.ByByte[bt] = &MatchTree{Kind: NodeAccept, Branch: branches[0]}
			continue
		}
		childLive := sparse.NewSparseSet(uint32(len(states)))
		childStates := make([][]Candidate, len(states))
		for _, idx := range branches {
			var residuals []Candidate
			for _, c := range states[idx] {
				residuals = append(residuals, derivative(c.Format, c.Next, b.module, bt)...)
			}
			if len(residuals) == 0 {
				return nil, &errs.CompileError{
					Err:         errs.ErrCannotBuildMatchTree,
					Description: "first-set and derivative disagree on an admitted byte",
				}
			}
			childStates[idx] = residuals
			childLive.Insert(uint32(idx))
		}
		child, err := b.build(childStates, childLive, depth+1)
		if err != nil {
			return nil, err
		}
		node.ByByte[bt] = child
	}

	return node, nil
}

// tryAho attempts to replace a wide per-byte dispatch with a single
// Aho-Corasick automaton scan (spec.md §4.6, typically a canonical Huffman
// symbol table). It only fires at depth 0: AhoDispatch.Resolve reads bytes
// from the cursor's own current position (peek(0), peek(1), ...), which
// only lines up with the real input when nothing has been consumed by an
// enclosing dispatch level yet.
func (b *Builder) tryAho(depth int, states [][]Candidate, liveIdx []int) (*AhoDispatch, bool) {
	if depth != 0 || len(liveIdx) < AhoCorasickThreshold {
		return nil, false
	}
	literals := make([][]byte, 0, len(liveIdx))
	branches := make([]int, 0, len(liveIdx))
	for _, idx := range liveIdx {
		if len(states[idx]) != 1 {
			return nil, false
		}
		lit, ok := literalBytes(states[idx][0].Format, states[idx][0].Next, b.module)
		if !ok || len(lit) == 0 {
			return nil, false
		}
		literals = append(literals, lit)
		branches = append(branches, idx)
	}
	return BuildAhoDispatch(literals, branches)
}

// Walk follows t against a lookahead function peek(offset) that returns
// (byte, ok) for the byte at the given forward offset from the current
// cursor position, ok=false meaning end of input. It returns the branch
// index the tree resolved to.
func Walk(t *MatchTree, peek func(offset int) (byte, bool)) (int, error) {
	offset := 0
	for {
		switch t.Kind {
		case NodeAccept:
			return t.Branch, nil
		case NodeReject:
			return -1, &errs.CompileError{Err: errs.ErrCannotBuildMatchTree, Description: "no branch admits this input"}
		case NodeDispatch:
			bt, ok := peek(offset)
			if !ok {
				if t.ByEOF != nil {
					t = t.ByEOF
					continue
				}
				return -1, &errs.CompileError{Err: errs.ErrCannotBuildMatchTree, Description: "end of input reached with no matching branch"}
			}
			if t.Aho != nil {
				return t.Aho.Resolve(peek)
			}
			next, ok := t.ByByte[bt]
			if !ok {
				return -1, &errs.CompileError{Err: errs.ErrCannotBuildMatchTree, Description: "no branch admits the observed byte"}
			}
			t = next
			offset++
		default:
			return -1, &errs.CompileError{Err: errs.ErrCannotBuildMatchTree, Description: "malformed match tree node"}
		}
	}
}
