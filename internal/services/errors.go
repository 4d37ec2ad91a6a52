package services

import "errors"

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotMounted   = errors.New("chat list not mounted")
	ErrNotFound     = errors.New("not found")
)
