package server

import "errors"

// Server-specific errors
var (
	ErrServerRunning    = errors.New("server is already running")
	ErrMaxClients       = errors.New("maximum clients reached")
	ErrUnknownKeyAction = errors.New("unknown key action")
	ErrInvalidMessage   = errors.New("invalid message")
)
