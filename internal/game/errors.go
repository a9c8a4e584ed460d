package game

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid game configuration")
	ErrInputSuppressed = errors.New("input suppressed while tracking is unavailable")
	ErrSessionFailed   = errors.New("tracking session failed")
	ErrSessionStopped  = errors.New("session is not running")
	ErrNotPlaced       = errors.New("wall has not been placed")
	ErrAlreadyPlaced   = errors.New("wall is already placed")
	ErrWallBuilt       = errors.New("wall is already built")
	ErrAnchorMismatch  = errors.New("anchor does not belong to the wall")
	ErrUnknownBrick    = errors.New("unknown brick")
	ErrNoBricks        = errors.New("no bricks remain")
)
