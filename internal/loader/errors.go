package loader

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies a failed load attempt.
type Kind int

const (
	// KindLoad is a read or transport failure.
	KindLoad Kind = iota + 1
	// KindParse is invalid JSON.
	KindParse
	// KindSchema is well-formed JSON with the wrong top-level shape or a failure code.
	KindSchema
	// KindValidation is an upload rejected before it was read.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is the single error type the loader returns. Msg is safe to show to users.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNoValidOrders is wrapped by the schema error raised when every row was skipped.
var ErrNoValidOrders = errors.New("no valid orders")

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of a loader error, or 0 if err did not come from the loader.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

// Message renders err as the one line shown to the user.
func Message(err error) string {
	var le *Error
	if !errors.As(err, &le) {
		return "unexpected error: " + err.Error()
	}
	// schema and validation messages already name the offending value
	if (le.Kind == KindParse || le.Kind == KindLoad) && le.Err != nil {
		return fmt.Sprintf("%s: %v", le.Msg, le.Err)
	}
	return le.Msg
}
