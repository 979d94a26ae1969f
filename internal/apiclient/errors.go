package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds. Every error returned by Client matches exactly one of them
// with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication required")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrServer         = errors.New("server error")
	ErrNetwork        = errors.New("network error")
	ErrUnknown        = errors.New("unknown error")
)

// Error is a failed request. Message is the server's error text when it
// sent one.
type Error struct {
	Kind    error
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Status != 0 && msg == "":
		return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
	case e.Status != 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
	case msg == "":
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// statusKinds maps response statuses to failure kinds. Statuses not listed
// fall back by class.
var statusKinds = map[int]error{
	http.StatusBadRequest:          ErrValidation,
	http.StatusUnauthorized:        ErrAuthentication,
	http.StatusForbidden:           ErrAuthorization,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrValidation,
	http.StatusUnprocessableEntity: ErrValidation,
}

func kindForStatus(status int) error {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	if status >= 500 {
		return ErrServer
	}
	return ErrUnknown
}

// Message returns the server-provided message carried by err, or fallback
// when there is none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}
