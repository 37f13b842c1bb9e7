package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUserEvents indicates a second userEvents subscription while one is active.
	ErrDuplicateUserEvents = errors.New("stream: duplicate userEvents subscription")
	// ErrNotReady indicates an operation that requires an open connection.
	ErrNotReady = errors.New("stream: connection not ready")
	// ErrUnknownChannel indicates an inbound message on an unrecognised channel.
	ErrUnknownChannel = errors.New("stream: unknown channel")
	// ErrClosed indicates the manager has been closed.
	ErrClosed = errors.New("stream: manager closed")
	// ErrInvalidSubscription indicates a subscription without a derivable identifier.
	ErrInvalidSubscription = errors.New("stream: invalid subscription")
)

// UnknownChannelError carries the unrecognised channel tag.
type UnknownChannelError struct {
	Channel string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("stream: unknown channel %q", e.Channel)
}

// Unwrap lets errors.Is match ErrUnknownChannel.
func (e *UnknownChannelError) Unwrap() error {
	return ErrUnknownChannel
}
