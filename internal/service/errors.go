package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("no user in context")
	ErrNotOwner           = errors.New("tournament belongs to another user")
	ErrTournamentClosed   = errors.New("tournament is not in progress")
	ErrRegistrationClosed = errors.New("tournament is not open for registration")
	ErrAlreadyRegistered  = errors.New("already registered for this tournament")
	ErrTournamentFull     = errors.New("tournament is full")
)
