// Package matchtree compiles the static lookahead needed to disambiguate a
// Union's branches into a decision tree over the next few bytes of input
// (spec.md §4.2). The construction mirrors the teacher's one-pass DFA
// builder: a depth-bounded depth-first walk (without a memo map), refusing to
// produce a tree rather than silently merging two branches that admit the
// same byte.
package matchtree

import (
	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/format"
)

// NextKind tags what follows the position a FirstSet/MatchTree computation
// is being done at: nothing more (end of the enclosing construct), or
// another Format to continue parsing once the current one finishes.
type NextKind uint8

const (
	NextEmpty NextKind = iota
	NextThen
)

// Next is a cons cell of "what comes after this point in the format tree",
// used so lookahead can see past the end of the branch currently under
// consideration into whatever follows it in an enclosing Tuple/Record/
// Repeat (spec.md §4.2: "the match tree for a branch must account for
// what must follow it, not just the branch in isolation").
type Next struct {
	Kind NextKind
	Body *format.Format
	Rest *Next
}

// Done is the empty continuation: nothing follows.
func Done() *Next { return &Next{Kind: NextEmpty} }

// Then prepends body to rest: "parse body, then continue with rest".
func Then(body format.Format, rest *Next) *Next {
	return &Next{Kind: NextThen, Body: &body, Rest: rest}
}

// MaxLookahead bounds how many bytes of static lookahead the builder will
// attempt before giving up (spec.md §4.2: lookahead is bounded, not
// unbounded backtracking). A var rather than a const so a Config with a
// non-default MaxLookaheadDepth can widen or narrow it before compiling.
var MaxLookahead = 32

// FirstSet computes the set of bytes (and possibly EOF) that may be the
// very next byte consumed when parsing f followed by next, guarding against
// non-terminating recursion through self-referential ItemVars the same way
// format.IsNullable does.
func FirstSet(f format.Format, next *Next, m *format.Module) byteset.Set {
	return firstSet(f, next, m, make(map[int]bool))
}

func firstSet(f format.Format, next *Next, m *format.Module, seen map[int]bool) byteset.Set {
	switch f.Kind {
	case format.KindItemVar:
		if seen[f.ItemID] {
			return byteset.Empty()
		}
		seen[f.ItemID] = true
		def := m.Get(format.FormatRef(f.ItemID))
		return firstSet(def.Body, next, m, seen)
	case format.KindFail:
		return byteset.Empty()
	case format.KindEndOfInput:
		return continuation(next, m, seen, byteset.EOFOnly())
	case format.KindByte:
		return f.Bytes
	case format.KindAlign, format.KindPeek, format.KindPeekNot, format.KindSlice,
		format.KindWithRelativeOffset, format.KindCompute, format.KindLet:
		// These are nullable from the cursor's point of view for lookahead
		// purposes: Align/Slice/offset constructs don't fix a concrete next
		// byte statically, and Peek/PeekNot/Compute/Let don't consume.
		if f.Kind == format.KindLet {
			return continuation(next, m, seen, firstSet(*f.Body, Done(), m, seen))
		}
		if f.Kind == format.KindPeek || f.Kind == format.KindPeekNot {
			return continuation(next, m, seen, firstSet(*f.Body, Done(), m, seen))
		}
		return continuation(next, m, seen, byteset.Empty())
	case format.KindVariant:
		return firstSet(*f.Body, next, m, seen)
	case format.KindUnion, format.KindUnionNondet:
		out := byteset.Empty()
		for _, elem := range f.Elems {
			out = byteset.Union(out, firstSet(elem, next, m, seen))
		}
		return out
	case format.KindTuple:
		return firstSetSeq(f.Elems, next, m, seen)
	case format.KindRecord:
		elems := make([]format.Format, len(f.Fields))
		for i, field := range f.Fields {
			elems[i] = field.Format
		}
		return firstSetSeq(elems, next, m, seen)
	case format.KindRepeat:
		bodyFirst := firstSet(*f.Body, Done(), m, seen)
		return byteset.Union(bodyFirst, continuation(next, m, seen, byteset.Empty()))
	case format.KindRepeat1:
		return firstSet(*f.Body, next, m, seen)
	case format.KindRepeatCount, format.KindRepeatUntilLast, format.KindRepeatUntilSeq:
		bodyFirst := firstSet(*f.Body, Done(), m, seen)
		return byteset.Union(bodyFirst, continuation(next, m, seen, byteset.Empty()))
	case format.KindBits:
		return firstSet(*f.Body, next, m, seen)
	case format.KindMap:
		return firstSet(*f.Body, next, m, seen)
	case format.KindMatch:
		out := byteset.Empty()
		for _, arm := range f.Arms {
			out = byteset.Union(out, firstSet(arm.Format, next, m, seen))
		}
		return out
	case format.KindDynamic:
		return firstSet(*f.Body, next, m, seen)
	case format.KindApply:
		return byteset.Empty()
	default:
		return byteset.Empty()
	}
}

// firstSetSeq computes the first-set of a sequence of fields (Tuple/Record),
// falling through to the next field whenever the current one is nullable,
// and finally to the continuation once every field is exhausted.
func firstSetSeq(elems []format.Format, next *Next, m *format.Module, seen map[int]bool) byteset.Set {
	if len(elems) == 0 {
		return continuation(next, m, seen, byteset.Empty())
	}
	head, rest := elems[0], elems[1:]
	tail := &Next{Kind: NextThen, Body: &format.Format{Kind: format.KindTuple, Elems: rest}, Rest: next}
	if len(rest) == 0 {
		tail = next
	}
	return firstSet(head, tail, m, seen)
}

// continuation returns own if it is non-empty, otherwise falls through to
// whatever next admits; this is the mechanism by which nullable constructs
// let lookahead see past themselves.
func continuation(next *Next, m *format.Module, seen map[int]bool, own byteset.Set) byteset.Set {
	if !own.IsEmpty() {
		return own
	}
	return ContinuationFirstSet(next, m)
}

// ContinuationFirstSet computes the first-set admitted by next alone, with
// no format of its own to consider first — the set an empty/nullable node
// falls through to. Used directly by callers (the decoder compiler's
// Repeat/Repeat1 disambiguation) that need "what happens if the body
// doesn't run again" without constructing a placeholder Format.
func ContinuationFirstSet(next *Next, m *format.Module) byteset.Set {
	if next == nil || next.Kind == NextEmpty {
		return byteset.EOFOnly()
	}
	return firstSet(*next.Body, next.Rest, m, make(map[int]bool))
}
