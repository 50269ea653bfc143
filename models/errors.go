package models

import "github.com/cockroachdb/errors"

// Domain errors shared by repositories, services and handlers. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicatePick     = errors.New("pick already exists for this user and game")
	ErrGameLocked        = errors.New("game is locked")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("concurrent modification")
	ErrProviderTransient = errors.New("score provider transient failure")
)
