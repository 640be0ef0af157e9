package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyQueued = errors.New("session already queued")
	ErrNotQueued     = errors.New("session not queued")
)

// InputError marks a validation failure detected before any state mutation.
// Handlers map it to a 400 response; the orchestrator never sees one because
// requests are validated before a session is created.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// NewInputError builds an InputError for the given field.
func NewInputError(field, msg string) *InputError {
	return &InputError{Field: field, Msg: msg}
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
