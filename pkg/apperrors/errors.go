package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrSiteConfigNotFound = errors.New("site config not found")
	ErrEmptyGeneration    = errors.New("generator returned no content")
	ErrUnknownJob         = errors.New("unknown job")
)
