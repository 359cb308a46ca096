package websocket

import "errors"

var (
	ErrInvalidEvent = errors.New("invalid event format")
	ErrNotInRoom    = errors.New("not subscribed to conversation")
)
