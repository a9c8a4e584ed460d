package spectator

import "errors"

var (
	ErrUnauthorized  = errors.New("spectator: unauthorized")
	ErrAlreadyServed = errors.New("spectator: server already running")
	ErrNoState       = errors.New("spectator: no state source")
)
