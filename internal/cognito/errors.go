package cognito

import (
	"errors"
	"net/http"
)

var (
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserNotConfirmed      = errors.New("user not confirmed")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrTooManyRequests       = errors.New("too many requests")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrPasswordResetRequired = errors.New("password reset required")
	ErrInvalidParameter      = errors.New("invalid parameter")
)

// ErrorInfo is the HTTP rendering of a sentinel error. Message is safe to
// show to clients.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

var errorMap = map[error]ErrorInfo{
	ErrUserAlreadyExists:     {http.StatusConflict, "USER_ALREADY_EXISTS", "a user with this email already exists"},
	ErrUserNotFound:          {http.StatusUnauthorized, "NOT_AUTHORIZED", "Invalid email or password"},
	ErrUserNotConfirmed:      {http.StatusForbidden, "USER_NOT_CONFIRMED", "email address not confirmed"},
	ErrInvalidPassword:       {http.StatusBadRequest, "INVALID_PASSWORD", "password does not meet requirements"},
	ErrTooManyRequests:       {http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests, please try again later"},
	ErrNotAuthorized:         {http.StatusUnauthorized, "NOT_AUTHORIZED", "Invalid email or password"},
	ErrPasswordResetRequired: {http.StatusForbidden, "PASSWORD_RESET_REQUIRED", "password reset is required"},
	ErrInvalidParameter:      {http.StatusBadRequest, "INVALID_PARAMETER", "invalid request parameter"},
}

// LookupError reports the ErrorInfo of the sentinel err wraps, if any.
func LookupError(err error) (ErrorInfo, bool) {
	for sentinel, info := range errorMap {
		if errors.Is(err, sentinel) {
			return info, true
		}
	}
	return ErrorInfo{}, false
}
