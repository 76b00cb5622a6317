// Package errs collects the engine's error types: compile-time errors
// (matchtree/decoder construction, spec.md §7), parse-time errors (spec.md
// §4.7) and evaluation errors (spec.md §3.3, §7). All are plain Go values
// implementing error, following the teacher's CompileError/BuildError
// pattern (nfa/error.go): a concrete struct wrapping a package-level
// sentinel plus positional context, with Unwrap exposing the sentinel for
// errors.Is/errors.As.
package errs

import (
	"fmt"

	"github.com/doodle-lang/doodle/byteset"
)

// Sentinels for evaluation failures (spec.md §3.3, §7). These indicate a
// bug in the format description, not in the input being parsed.
var (
	ErrOverflow           = fmt.Errorf("integer overflow")
	ErrDivideByZero       = fmt.Errorf("division by zero")
	ErrNonExhaustiveMatch = fmt.Errorf("non-exhaustive match")
	ErrCastOverflow       = fmt.Errorf("cast overflow")
	ErrNotATuple          = fmt.Errorf("value is not a tuple")
	ErrNotASequence       = fmt.Errorf("value is not a sequence")
	ErrTypeMismatch       = fmt.Errorf("operand type mismatch")
	ErrDirectLambdaEval   = fmt.Errorf("lambda evaluated outside a higher-order operator")
	ErrUnboundVariable    = fmt.Errorf("unbound variable")
	ErrInflateDistance    = fmt.Errorf("inflate: back-reference distance exceeds decoded length")
)

// EvalError wraps an evaluation-time sentinel with the name of the
// operator that raised it.
type EvalError struct {
	Op  string
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error in %s: %v", e.Op, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Sentinels for compile-time failures (spec.md §7).
var (
	ErrCannotBuildMatchTree = fmt.Errorf("cannot build match tree")
	ErrCannotRepeatNullable = fmt.Errorf("cannot repeat nullable format")
	ErrPeekNotTooWide       = fmt.Errorf("PeekNot operand exceeds lookahead bound")
)

// CompileError reports a construct that failed to compile, citing a
// human-readable description of the offending format (spec.md §7).
type CompileError struct {
	Err         error
	Description string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v for `%s`", e.Err, e.Description)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ParseErrorKind tags the case of a ParseError (spec.md §4.7).
type ParseErrorKind uint8

const (
	KindFail ParseErrorKind = iota
	KindTrailing
	KindOverByte
	KindOverrun
	KindUnexpected
	KindNoValidBranch
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindFail:
		return "Fail"
	case KindTrailing:
		return "Trailing"
	case KindOverByte:
		return "OverByte"
	case KindOverrun:
		return "Overrun"
	case KindUnexpected:
		return "Unexpected"
	case KindNoValidBranch:
		return "NoValidBranch"
	default:
		return "Unknown"
	}
}

// ParseError is the single error type returned by a failed parse,
// covering the six kinds in spec.md §4.7. Only the fields relevant to
// Kind are populated.
type ParseError struct {
	Kind    ParseErrorKind
	Offset  int
	Byte    byte        // KindOverByte is EOF so Byte is unset there; KindUnexpected/KindTrailing carry it
	Allowed byteset.Set // KindUnexpected
	Needed  int         // KindOverrun
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindFail:
		return "parse failed"
	case KindTrailing:
		return fmt.Sprintf("trailing byte %#02x at offset %d", e.Byte, e.Offset)
	case KindOverByte:
		return fmt.Sprintf("unexpected end of input at offset %d", e.Offset)
	case KindOverrun:
		return fmt.Sprintf("need %d more byte(s) past end of input at offset %d", e.Needed, e.Offset)
	case KindUnexpected:
		return fmt.Sprintf("unexpected byte %#02x at offset %d, allowed %v", e.Byte, e.Offset, e.Allowed)
	case KindNoValidBranch:
		return fmt.Sprintf("no valid branch at offset %d", e.Offset)
	default:
		return "parse error"
	}
}

func NewFail() *ParseError {
	return &ParseError{Kind: KindFail}
}

func NewTrailing(offset int, b byte) *ParseError {
	return &ParseError{Kind: KindTrailing, Offset: offset, Byte: b}
}

func NewOverByte(offset int) *ParseError {
	return &ParseError{Kind: KindOverByte, Offset: offset}
}

func NewOverrun(offset, needed int) *ParseError {
	return &ParseError{Kind: KindOverrun, Offset: offset, Needed: needed}
}

func NewUnexpected(offset int, b byte, allowed byteset.Set) *ParseError {
	return &ParseError{Kind: KindUnexpected, Offset: offset, Byte: b, Allowed: allowed}
}

func NewNoValidBranch(offset int) *ParseError {
	return &ParseError{Kind: KindNoValidBranch, Offset: offset}
}
