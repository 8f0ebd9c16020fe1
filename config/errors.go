// Package config defines the module's shared error-kind taxonomy and the
// top-level configuration object aggregating each component's options.
package config

import "github.com/pkg/errors"

// ErrorKind classifies a surfaced failure per the error handling design:
// every fallible operation converts its error to one of these kinds
// before it crosses a goroutine boundary, rather than letting an
// exception-style panic unwind across threads.
type ErrorKind int

const (
	// Configuration errors: missing required values or impossible values.
	// Surfaced at startup; the process exits.
	Configuration ErrorKind = iota
	// TransientIO errors: socket timeouts, transport send/receive
	// failures. Logged; the operation is retried on the next loop
	// iteration.
	TransientIO
	// MessageValidity errors: malformed or wrong-type wire messages.
	// Logged with the offending message type; the message is dropped.
	MessageValidity
	// DataPlaneSoft failures: gapped interpolation, a pick too close to
	// a window edge, an inference service timeout. Logged at debug/warn;
	// a partial result is surfaced.
	DataPlaneSoft
	// AlgorithmicFailure: the threshold detector could not locate a
	// matching sample within tolerance even with a linear scan. Logged
	// at error; the packet is skipped but state is not reset.
	AlgorithmicFailure
)

func (k ErrorKind) String() string {
	switch k {
	case Configuration:
		return "Configuration"
	case TransientIO:
		return "TransientIO"
	case MessageValidity:
		return "MessageValidity"
	case DataPlaneSoft:
		return "DataPlaneSoft"
	case AlgorithmicFailure:
		return "AlgorithmicFailure"
	default:
		return "Unknown"
	}
}

// Error pairs a wrapped cause with the ErrorKind a caller should branch
// on, so component boundaries can convert any error to a typed variant
// once and let downstream code inspect Kind instead of the message text.
type Error struct {
	Kind  ErrorKind
	cause error
}

// New wraps err as an Error of the given kind. Callers typically do this
// once, immediately before returning across a package boundary.
func New(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, cause: err}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Kind extracts the ErrorKind from err, if it (or a wrapped cause) is an
// *Error; ok is false otherwise.
func Kind(err error) (kind ErrorKind, ok bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return 0, false
}
