// Package ioerr defines the error taxonomy shared by the segment, buffer,
// bytestring, streamio, cancel, asynctimeout and taskrunner packages. It
// exists to avoid import cycles between those packages and their tests,
// the same role internal/errors plays for altmount's importer subpackages.
package ioerr

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure the way the core's callers need to branch on:
// EOF and Timeout are typically retried upstream, Bounds never is.
type Kind int

const (
	// GenericIO covers any upstream/downstream failure that doesn't fit
	// a more specific kind below.
	GenericIO Kind = iota
	// EOF means an expected byte count was not met before the stream ended.
	EOF
	// Timeout means a deadline or timeout elapsed, from a CancelScope or
	// the AsyncTimeout watchdog.
	Timeout
	// Interrupted means the calling goroutine's cancellation token fired,
	// either from Context cancellation or a manual CancelScope.Cancel.
	Interrupted
	// Closed means the operation targeted a resource whose owner already
	// called Close or Cancel.
	Closed
	// Protocol means malformed input for an external wire protocol; the
	// core itself never produces this, it exists for consumers layered
	// on top of Reader/Writer.
	Protocol
	// CharacterCoding means malformed encoded text where no replacement
	// character is permitted (e.g. Utf8Length validation on invalid input).
	CharacterCoding
	// NumericFormat means an integer/decimal parse failed.
	NumericFormat
	// Bounds means an index or length argument violated an invariant.
	// Bounds errors are programmer errors and are never retried or wrapped.
	Bounds
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Timeout:
		return "TIMEOUT"
	case Interrupted:
		return "INTERRUPTED"
	case Closed:
		return "CLOSED"
	case Protocol:
		return "PROTOCOL"
	case CharacterCoding:
		return "CHARACTER-CODING"
	case NumericFormat:
		return "NUMERIC-FORMAT"
	case Bounds:
		return "BOUNDS"
	default:
		return "GENERIC-IO"
	}
}

// Error is the concrete error type returned across the core. It carries a
// Kind for cheap branching via Is/As and an optional wrapped cause,
// mirroring altmount's NonRetryableError shape (message + cause + Is).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, ioerr.New(ioerr.EOF, "")) to test the category alone.
func (e *Error) Is(target error) bool {
	var o *Error
	if !errors.As(target, &o) {
		return false
	}
	return o.Kind == e.Kind
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error with the given kind and message that wraps cause;
// cause may be nil, in which case the error carries no wrapped cause.
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or anything in its Unwrap chain) carries the
// given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Sentinel errors for the taxonomy's most common zero-cause cases, in the
// style of altmount's ErrNoVideoFiles/ErrFallbackNotConfigured exported vars.
var (
	ErrEOF             = New(EOF, "end of stream")
	ErrClosed          = New(Closed, "resource closed")
	ErrTimeout         = New(Timeout, "deadline or timeout elapsed")
	ErrInterrupted     = New(Interrupted, "interrupted")
	ErrBounds          = New(Bounds, "index out of bounds")
	ErrMalformedUTF8   = New(CharacterCoding, "malformed UTF-8 sequence")
	ErrNumericOverflow = New(NumericFormat, "numeric value out of range")
)
