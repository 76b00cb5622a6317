package doodle

import (
	"github.com/rs/zerolog"

	"github.com/doodle-lang/doodle/interp"
	"github.com/doodle-lang/doodle/matchtree"
)

// Config tunes compilation and lets a caller attach a logger, mirroring the
// teacher's own meta.Config: a plain value type with doc-commented defaults,
// constructed via DefaultConfig and then selectively overridden.
type Config struct {
	// MaxLookaheadDepth bounds how many bytes of static lookahead the
	// match-tree builder will try before reporting an unresolved ambiguity
	// (spec.md §4.2). Default: 32.
	MaxLookaheadDepth int

	// PeekNotBoundBytes caps how far a PeekNot trial parse is allowed to
	// read past the cursor before it is aborted as non-terminating, since
	// PeekNot's operand is run for rejection only and must never be allowed
	// to run away. Default: 1024.
	PeekNotBoundBytes int

	// AhoCorasickThreshold is the sibling branch count at or above which the
	// match-tree builder replaces a deep per-byte dispatch chain with a
	// single Aho-Corasick automaton (spec.md §4.6, typically reached by a
	// canonical Huffman symbol table's branches). Default: 16.
	AhoCorasickThreshold int

	// Logger receives one Error-level event per failed top-level parse and
	// one Debug-level event per match-tree dispatch node built. Nil disables logging
	// entirely.
	Logger *zerolog.Logger
}

// DefaultConfig returns the configuration Compile uses when none is given.
func DefaultConfig() Config {
	return Config{
		MaxLookaheadDepth:    32,
		PeekNotBoundBytes:    1024,
		AhoCorasickThreshold: 16,
	}
}

// apply pushes the config's compile-time knobs into the matchtree and interp
// packages' tunables. Both packages expose them as plain vars rather than per-call
// parameters (see matchtree.MaxLookahead, matchtree.AhoCorasickThreshold,
// interp.PeekNotBound),
// so this must run before Compile/CompileWithConfig builds any match tree.
func (c Config) apply() {
	if c.MaxLookaheadDepth > 0 {
		matchtree.MaxLookahead = c.MaxLookaheadDepth
	}
	if c.AhoCorasickThreshold > 0 {
		matchtree.AhoCorasickThreshold = c.AhoCorasickThreshold
	}
	if c.PeekNotBoundBytes > 0 {
		interp.PeekNotBound = c.PeekNotBoundBytes
	}
	matchtree.Logger = c.Logger
}
