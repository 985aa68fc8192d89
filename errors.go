package uvw

import (
	"github.com/pkg/errors"
)

var (
	// ErrLoopClosed is returned when operating on a loop after Close.
	ErrLoopClosed = errors.New("loop has been closed")

	// ErrHandleClosed is returned when operating on a handle after Close.
	ErrHandleClosed = errors.New("handle has been closed")

	// ErrUnsupported is returned by operations the current platform has
	// no poller support for.
	ErrUnsupported = errors.New("operation not supported on this platform")

	// ErrNoRepeat is returned by TimerHandle.Again when the timer has no
	// repeat interval to rearm with.
	ErrNoRepeat = errors.New("timer has no repeat interval")

	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")

	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrNotConnected     = errors.New("connection not established")
	ErrAlreadyConnected = errors.New("connection already established")
	ErrRateLimit        = errors.New("rate limit exceeded")
)
