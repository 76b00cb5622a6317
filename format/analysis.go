package format

// IsNullable reports whether f can match the empty byte string (spec.md
// §4.2), the property the decoder compiler uses to reject ambiguous
// Repeat bodies (errs.ErrCannotRepeatNullable) and nullable PeekNot
// operands. ItemVar recurses into the named
// definition; seen guards against the recursion non-terminating on a
// genuinely self-referential format (treated conservatively as
// non-nullable, matching the teacher's fixpoint-guard idiom in
// nfa/firstbytes.go).
func IsNullable(f Format, m *Module) bool {
	return isNullable(f, m, make(map[int]bool))
}

func isNullable(f Format, m *Module, seen map[int]bool) bool {
	switch f.Kind {
	case KindItemVar:
		if seen[f.ItemID] {
			return false
		}
		seen[f.ItemID] = true
		def := m.Get(FormatRef(f.ItemID))
		return isNullable(def.Body, m, seen)
	case KindFail:
		return false
	case KindEndOfInput, KindPeek, KindPeekNot, KindSlice, KindWithRelativeOffset,
		KindCompute, KindLet, KindAlign:
		return true
	case KindByte:
		return false
	case KindVariant:
		return isNullable(*f.Body, m, seen)
	case KindUnion, KindUnionNondet:
		for _, elem := range f.Elems {
			if isNullable(elem, m, seen) {
				return true
			}
		}
		return false
	case KindTuple:
		for _, elem := range f.Elems {
			if !isNullable(elem, m, seen) {
				return false
			}
		}
		return true
	case KindRecord:
		for _, field := range f.Fields {
			if !isNullable(field.Format, m, seen) {
				return false
			}
		}
		return true
	case KindRepeat:
		return true
	case KindRepeat1:
		return isNullable(*f.Body, m, seen)
	case KindRepeatCount:
		// Nullable only when statically zero is possible; count is a
		// runtime Expr, so conservatively treat as nullable (the body
		// may run zero times).
		return true
	case KindRepeatUntilLast, KindRepeatUntilSeq:
		return true
	case KindBits:
		return isNullable(*f.Body, m, seen)
	case KindMap:
		return isNullable(*f.Body, m, seen)
	case KindMatch:
		for _, arm := range f.Arms {
			if isNullable(arm.Format, m, seen) {
				return true
			}
		}
		return false
	case KindDynamic:
		return isNullable(*f.Body, m, seen)
	case KindApply:
		return false
	default:
		return false
	}
}

// RequiredPrefix best-effort extracts a static sequence of leading bytes
// that every successful parse of f must begin with. ok is true only when f
// matches exactly that fixed byte string; a false ok means the returned
// bytes (possibly none) are only the start of what f can match, not that
// the format is malformed. It is never used for parse semantics, and the
// match-tree builder does not call it (its Aho-Corasick decision uses
// matchtree's own literal extraction).
func RequiredPrefix(f Format, m *Module) ([]byte, bool) {
	return requiredPrefix(f, m, make(map[int]bool))
}

func requiredPrefix(f Format, m *Module, seen map[int]bool) ([]byte, bool) {
	switch f.Kind {
	case KindItemVar:
		if seen[f.ItemID] {
			return nil, false
		}
		seen[f.ItemID] = true
		def := m.Get(FormatRef(f.ItemID))
		return requiredPrefix(def.Body, m, seen)
	case KindByte:
		if f.Bytes.Len() == 1 && !f.Bytes.ContainsEOF() {
			var b byte
			f.Bytes.Iterate(func(x byte) { b = x })
			return []byte{b}, true
		}
		return nil, false
	case KindVariant:
		return requiredPrefix(*f.Body, m, seen)
	case KindTuple:
		var out []byte
		for _, elem := range f.Elems {
			prefix, ok := requiredPrefix(elem, m, seen)
			out = append(out, prefix...)
			if !ok {
				return out, false
			}
		}
		return out, true
	case KindRecord:
		var out []byte
		for _, field := range f.Fields {
			prefix, ok := requiredPrefix(field.Format, m, seen)
			out = append(out, prefix...)
			if !ok {
				return out, false
			}
		}
		return out, true
	case KindRepeat1:
		// Only the first iteration's bytes are fixed; what follows is not.
		prefix, _ := requiredPrefix(*f.Body, m, seen)
		return prefix, false
	case KindBits:
		return nil, false
	default:
		return nil, false
	}
}
