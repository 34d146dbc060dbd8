// Package errs defines the error taxonomy shared by the load, verify and
// clean steps.
//
// An *Error carries a Kind, the operation that failed and the wrapped cause.
// Callers classify failures with KindOf or errors.Is against the sentinel
// kinds, e.g.
//
//	if errs.KindOf(err) == errs.SourceMissing { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies errors into the buckets the pipeline reacts to.
type Kind string

const (
	// Unknown is returned by KindOf for errors that carry no Kind.
	Unknown Kind = ""
	// ConfigError is a bad or missing mapping/settings file. Fatal to a run.
	ConfigError Kind = "ConfigError"
	// SourceMissing means the expected object is absent from the blob store.
	SourceMissing Kind = "SourceMissing"
	// PartialLoadError means some rows were rejected during a load.
	PartialLoadError Kind = "PartialLoadError"
	// ConnectivityError means the warehouse or blob store could not be reached
	// or refused the operation.
	ConnectivityError Kind = "ConnectivityError"
	// EncodingError means input text could not be decoded under any fallback.
	EncodingError Kind = "EncodingError"
	// SchemaError means the source header does not satisfy the mapping.
	SchemaError Kind = "SchemaError"
)

// Error is a structured error with a Kind, an operation name and a cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error. A nil err produces an error whose message is the kind.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error from a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Error implements the error interface as "Kind: op: cause".
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind when the target carries no Op and no cause,
// so errors.Is(err, errs.E(errs.SourceMissing, "", nil)) works as a kind test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
