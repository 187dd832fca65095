package form

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for transport mapping.
type Kind string

const (
	// KindInputValidation marks a rejected payload (bad media type,
	// unreadable document, missing values).
	KindInputValidation Kind = "input_validation"
	// KindRecognition marks a recognizer that is unavailable or failed
	// for the whole document.
	KindRecognition Kind = "recognition"
	// KindOverlayMapping marks a value set that could not be matched to
	// any fillable field.
	KindOverlayMapping Kind = "overlay_mapping"
	// KindInternal marks everything else.
	KindInternal Kind = "internal"
)

// Error carries a failure kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind; non-service errors are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
