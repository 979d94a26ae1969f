package service

import (
	"errors"

	"github.com/jaekwang-park/todo-console/internal/validate"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = validate.ErrInvalid
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)
