package service

import (
	"errors"

	"studioapi/internal/repository"
)

var (
	ErrIDRequired = errors.New("id is required")
	// ErrNotFound aliases the repository sentinel so callers need only one.
	ErrNotFound           = repository.ErrNotFound
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidSort        = errors.New("invalid sort")
	ErrInvalidPatch       = errors.New("patch must be a JSON object")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoFiles            = errors.New("at least one file is required")
	ErrInvalidFolder      = errors.New("invalid media folder")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrFileTooLarge       = errors.New("file too large")
)
