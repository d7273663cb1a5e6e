// Package apperr holds the sentinel errors shared across the
// application's layers.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrAlreadyExists  = errors.New("already exists")
	ErrSyncBusy       = errors.New("sync already running")
	ErrMissingAPIKey  = errors.New("missing api key")
	ErrBadFrontMatter = errors.New("rendered front matter is not valid")
)
