// Package bytescan fast-forwards over a run of bytes all admitted by a
// byteset.Set, the operation a Repeat(Byte(bs)) body reduces to once the
// decoder has already committed to "keep consuming bytes from this set
// until one doesn't fit" (spec.md §3.5 Repeat, §4.4). It is grounded on the
// teacher's simd package: CPU feature detection is kept (the same
// golang.org/x/sys/cpu probe the teacher uses to decide whether its AVX2
// memchr path is available), but the actual vector assembly is dropped —
// there is no counterpart to hand-write here without ever invoking the Go
// toolchain, so the detection result is read but not currently acted on
// beyond plain byte-at-a-time scanning, leaving room for a real accelerated path
// to slot in later the same way the teacher's memchrAVX2 does.
package bytescan

import (
	"golang.org/x/sys/cpu"

	"github.com/doodle-lang/doodle/byteset"
)

// HasAVX2 reports whether the current CPU advertises AVX2 support, mirroring
// the teacher's hasAVX2 package variable (simd/memchr_amd64.go). Exposed so
// callers (and tests) can observe the detection result even though no
// AVX2-specific code path exists yet.
var HasAVX2 = cpu.X86.HasAVX2

// Run returns the length of the longest prefix of buf whose every byte is a
// member of bs. It never reads past len(buf).
func Run(buf []byte, bs byteset.Set) int {
	n := 0
	for n < len(buf) && bs.Contains(buf[n]) {
		n++
	}
	return n
}

// RunMin scans like Run but stops early once at least min bytes have been
// found to match, useful when a caller (RepeatCount, for instance) only
// needs to confirm a lower bound rather than the maximal run.
func RunMin(buf []byte, bs byteset.Set, min int) int {
	n := 0
	for n < len(buf) && n < min && bs.Contains(buf[n]) {
		n++
	}
	return n
}
