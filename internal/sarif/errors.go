package sarif

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a parse terminated.
type ErrorKind string

const (
	KindMalformedInput   ErrorKind = "MalformedInput"
	KindInvalidSchema    ErrorKind = "InvalidSchema"
	KindTransportFailure ErrorKind = "TransportFailure"
)

// Sentinels usable with errors.Is against any *ParseError of the same kind.
var (
	ErrMalformedInput   = &ParseError{Kind: KindMalformedInput}
	ErrInvalidSchema    = &ParseError{Kind: KindInvalidSchema}
	ErrTransportFailure = &ParseError{Kind: KindTransportFailure}
)

const invalidSchemaMessage = "invalid SARIF format"

// ParseError terminates a parse. Message is user facing; Detail carries the
// diagnostic (decoder position, failing check, recovered panic).
type ParseError struct {
	Kind    ErrorKind
	Message string
	Detail  string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches any ParseError with the same kind.
func (e *ParseError) Is(target error) bool {
	var t *ParseError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewMalformedInput reports input that is not a JSON document. The
// decoder's own message is surfaced as is.
func NewMalformedInput(err error) *ParseError {
	return &ParseError{
		Kind:    KindMalformedInput,
		Message: err.Error(),
		Err:     err,
	}
}

func newInvalidSchema(format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:    KindInvalidSchema,
		Message: invalidSchemaMessage,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// NewTransportFailure reports a crashed or terminated background task.
func NewTransportFailure(detail string, err error) *ParseError {
	return &ParseError{
		Kind:    KindTransportFailure,
		Message: "worker error",
		Detail:  detail,
		Err:     err,
	}
}

// KindOf returns the kind of a ParseError in err's chain. Any other error is
// reported as a transport failure.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransportFailure
}

// VersionWarning is reported when the document targets a different
// major.minor SARIF version. Parsing continues.
type VersionWarning struct {
	Found    string
	Expected string
}

func (w *VersionWarning) String() string {
	return fmt.Sprintf("SARIF version %s may not be fully compatible, expected %s.x", w.Found, w.Expected)
}
