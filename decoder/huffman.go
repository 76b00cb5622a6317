package decoder

import (
	"fmt"
	"sort"

	"github.com/doodle-lang/doodle/byteset"
	"github.com/doodle-lang/doodle/expr"
	"github.com/doodle-lang/doodle/format"
)

// HuffmanFormat builds the canonical Huffman symbol alphabet described by
// lengths (a 0 length means the symbol is unused) and an optional values
// permutation as an ordinary format.Format (spec.md §3.5 Dynamic, §4.6):
// "The final format is a Union of all such per-symbol formats,
// disambiguated by the same match-tree mechanism." Each symbol's canonical
// code becomes a Tuple of single-bit Byte formats (MSB-first, per RFC 1951
// §3.2.2) wrapped in a Map that produces the symbol's value; the whole
// alphabet is their Union, so building it reuses the ordinary compiler and
// match-tree builder instead of a hand-rolled bit-range lookup — this is
// the construction _examples/original_source/src/decoder.rs's
// make_huffman_codes performs.
func HuffmanFormat(lengths []uint8, values []uint32) (format.Format, error) {
	maxLen := 0
	counts := map[int]int{}
	for _, l := range lengths {
		if int(l) > maxLen {
			maxLen = int(l)
		}
		if l > 0 {
			counts[int(l)]++
		}
	}
	if maxLen == 0 {
		return format.Format{}, fmt.Errorf("huffman: no symbols have a non-zero code length")
	}

	type entry struct {
		length int
		symbol uint32
		order  int
	}
	entries := make([]entry, 0, len(lengths))
	for i, l := range lengths {
		if l == 0 {
			continue
		}
		sym := uint32(i)
		if values != nil {
			sym = values[i]
		}
		entries = append(entries, entry{length: int(l), symbol: sym, order: i})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].length != entries[j].length {
			return entries[i].length < entries[j].length
		}
		return entries[i].order < entries[j].order
	})

	// RFC 1951 §3.2.2 canonical-code assignment: next_code[] walks the
	// length classes in order, assigning consecutive numeric codes within
	// each class.
	nextCode := make([]uint32, maxLen+1)
	code := uint32(0)
	for l := 1; l <= maxLen; l++ {
		code = (code + uint32(counts[l-1])) << 1
		nextCode[l] = code
	}

	codes := make([]format.Format, 0, len(entries))
	assigned := make([]uint32, maxLen+1)
	for _, e := range entries {
		c := nextCode[e.length] + assigned[e.length]
		assigned[e.length]++
		codes = append(codes, bitPatternFormat(c, e.length, e.symbol))
	}
	return format.Union(codes...), nil
}

// bitPatternFormat builds the Tuple-of-single-bit-Bytes matching code's
// low `length` bits, MSB-first (bitRange/isBit in
// _examples/original_source/src/decoder.rs), mapped to the constant symbol
// value once all bits have matched.
func bitPatternFormat(code uint32, length int, symbol uint32) format.Format {
	bits := make([]format.Format, length)
	for i := 0; i < length; i++ {
		bit := (code >> uint(length-1-i)) & 1
		bits[i] = format.Byte(byteset.Of(byte(bit)))
	}
	lambda := expr.Lambda("_", expr.U32Const(symbol))
	return format.Map(format.Tuple(bits...), lambda)
}
