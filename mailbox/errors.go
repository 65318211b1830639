package mailbox

import "errors"

var (
	// ErrClosedChannel is returned by any pipe operation after the pipe was released
	ErrClosedChannel = errors.New("channel closed")

	// ErrUnknownAddress is returned when sending to an address that has no directory entry
	ErrUnknownAddress = errors.New("unknown address")

	// ErrEmptyAddress is returned when registering a client without an address
	ErrEmptyAddress = errors.New("empty address")

	// ErrReservedAddress is returned when the role and the reserved observer address disagree
	ErrReservedAddress = errors.New("reserved address")
)
