package matchtree

import "github.com/doodle-lang/doodle/format"

// Candidate is one branch still being disambiguated: a Format not yet
// matched, followed by its continuation. A live Builder branch is a slice
// of Candidates rather than a single pair, since taking the derivative of a
// nested Union/Match can split one branch into several residual
// continuations that all need to stay live (spec.md §4.2).
type Candidate struct {
	Format format.Format
	Next   *Next
}

// headCandidate converts a continuation into the Candidate representing
// "nothing more to match at the current position, proceed with next" —
// used whenever a derivative fully consumes the format it was examining.
// EndOfInput paired with Done() stands in for "only end-of-input can
// follow", giving the expected byteset.EOFOnly() first-set at the next
// depth without inventing a new Format kind.
func headCandidate(next *Next) Candidate {
	if next == nil || next.Kind == NextEmpty {
		return Candidate{Format: format.Format{Kind: format.KindEndOfInput}, Next: Done()}
	}
	return Candidate{Format: *next.Body, Next: next.Rest}
}

// ContinuationCandidate builds the Candidate for "nothing more to match
// here, proceed with next" — what a Repeat/Repeat1 disambiguation resolves
// to when the body doesn't run (again), exposed for decoder.Compiler's
// compileRepeat since it needs the same state headCandidate computes
// internally for a matched Byte's residual.
func ContinuationCandidate(next *Next) Candidate {
	return headCandidate(next)
}

// derivative returns every way of continuing after consuming byte b as the
// very first byte of f followed by next, mirroring firstSet's recursive
// structure but producing residual states instead of a byteset. More than
// one Candidate can come back when f itself branches (Union, Match) and
// more than one arm admits b.
func derivative(f format.Format, next *Next, m *format.Module, b byte) []Candidate {
	return deriv(f, next, m, b, make(map[int]bool))
}

func deriv(f format.Format, next *Next, m *format.Module, b byte, seen map[int]bool) []Candidate {
	switch f.Kind {
	case format.KindItemVar:
		if seen[f.ItemID] {
			return nil
		}
		seen2 := make(map[int]bool, len(seen)+1)
		for k, v := range seen {
			seen2[k] = v
		}
		seen2[f.ItemID] = true
		def := m.Get(format.FormatRef(f.ItemID))
		return deriv(def.Body, next, m, b, seen2)

	case format.KindFail, format.KindEndOfInput, format.KindApply:
		return nil

	case format.KindByte:
		if !f.Bytes.Contains(b) {
			return nil
		}
		return []Candidate{headCandidate(next)}

	case format.KindAlign, format.KindSlice, format.KindWithRelativeOffset, format.KindCompute:
		// Nullable from lookahead's point of view: these never fix a
		// concrete next byte statically, so whatever consumes b must live
		// in the continuation (mirrors firstSet's treatment).
		return derivContinuation(next, m, b)

	case format.KindPeek, format.KindPeekNot, format.KindLet:
		if !FirstSet(*f.Body, Done(), m).IsEmpty() {
			return deriv(*f.Body, Done(), m, b, seen)
		}
		return derivContinuation(next, m, b)

	case format.KindVariant:
		return deriv(*f.Body, next, m, b, seen)

	case format.KindUnion, format.KindUnionNondet:
		var out []Candidate
		for _, elem := range f.Elems {
			out = append(out, deriv(elem, next, m, b, seen)...)
		}
		return out

	case format.KindTuple:
		return derivSeq(f.Elems, next, m, b, seen)

	case format.KindRecord:
		elems := make([]format.Format, len(f.Fields))
		for i, field := range f.Fields {
			elems[i] = field.Format
		}
		return derivSeq(elems, next, m, b, seen)

	case format.KindRepeat:
		out := deriv(*f.Body, Then(f, next), m, b, seen)
		return append(out, derivContinuation(next, m, b)...)

	case format.KindRepeat1:
		return deriv(*f.Body, Then(format.Repeat(*f.Body), next), m, b, seen)

	case format.KindRepeatCount, format.KindRepeatUntilLast, format.KindRepeatUntilSeq:
		out := deriv(*f.Body, Done(), m, b, seen)
		return append(out, derivContinuation(next, m, b)...)

	case format.KindBits, format.KindMap, format.KindDynamic:
		return deriv(*f.Body, next, m, b, seen)

	case format.KindMatch:
		var out []Candidate
		for _, arm := range f.Arms {
			out = append(out, deriv(arm.Format, next, m, b, seen)...)
		}
		return out

	default:
		return nil
	}
}

// derivContinuation consumes b from next alone, with a fresh recursion
// guard, mirroring ContinuationFirstSet's behavior of resetting seen once
// lookahead moves into a structurally different part of the grammar.
func derivContinuation(next *Next, m *format.Module, b byte) []Candidate {
	if next == nil || next.Kind == NextEmpty {
		return nil
	}
	return deriv(*next.Body, next.Rest, m, b, make(map[int]bool))
}

// derivSeq is derivative's counterpart to firstSetSeq.
func derivSeq(elems []format.Format, next *Next, m *format.Module, b byte, seen map[int]bool) []Candidate {
	if len(elems) == 0 {
		return derivContinuation(next, m, b)
	}
	head, rest := elems[0], elems[1:]
	tail := &Next{Kind: NextThen, Body: &format.Format{Kind: format.KindTuple, Elems: rest}, Rest: next}
	if len(rest) == 0 {
		tail = next
	}
	return deriv(head, tail, m, b, seen)
}

// literalBytes reads off the complete, fixed-length byte string a Candidate
// requires, unwrapping Variant/Map/ItemVar layers that don't affect which
// bytes are consumed. It fails (ok=false) as soon as it meets any
// branching, repetition, or dynamic construct, since those don't reduce to
// a single literal — the shape matchtree.BuildAhoDispatch needs for its
// fixed-pattern automaton (spec.md §4.6).
func literalBytes(f format.Format, next *Next, m *format.Module) ([]byte, bool) {
	switch f.Kind {
	case format.KindItemVar:
		def := m.Get(format.FormatRef(f.ItemID))
		return literalBytes(def.Body, next, m)
	case format.KindByte:
		b, ok := f.Bytes.Single()
		if !ok {
			return nil, false
		}
		rest, ok := literalBytesContinuation(next, m)
		if !ok {
			return nil, false
		}
		return append([]byte{b}, rest...), true
	case format.KindVariant, format.KindMap:
		return literalBytes(*f.Body, next, m)
	case format.KindTuple:
		return literalBytesSeq(f.Elems, next, m)
	default:
		return nil, false
	}
}

func literalBytesContinuation(next *Next, m *format.Module) ([]byte, bool) {
	if next == nil || next.Kind == NextEmpty {
		return nil, true
	}
	return literalBytes(*next.Body, next.Rest, m)
}

func literalBytesSeq(elems []format.Format, next *Next, m *format.Module) ([]byte, bool) {
	if len(elems) == 0 {
		return literalBytesContinuation(next, m)
	}
	head, rest := elems[0], elems[1:]
	tail := &Next{Kind: NextThen, Body: &format.Format{Kind: format.KindTuple, Elems: rest}, Rest: next}
	if len(rest) == 0 {
		tail = next
	}
	return literalBytes(head, tail, m)
}
