package mailbox

import (
	"fmt"
	"time"
)

// Address names one client. Addresses are unique within a Registry.
type Address = string

// ObserverAddress is the reserved address of the observer client.
const ObserverAddress Address = "OBSERVER"

// Forever makes Poll block until mail arrives or the pipe is released.
const Forever time.Duration = -1

// Message is an opaque payload. The mailbox never inspects it.
type Message = any

// Mail is what every receive operation produces: who sent it and what.
type Mail struct {
	From    Address
	Message Message
}

// String returns a human-readable representation of the mail for debugging.
func (m Mail) String() string {
	return fmt.Sprintf("Mail{From:%s, Message:%v}", m.From, m.Message)
}

// Role selects which directory a client is bound to.
type Role uint8

const (
	// RoleOrdinary clients are bound to the peer directory.
	RoleOrdinary Role = iota

	// RoleObserver clients are bound to the observer directory.
	RoleObserver
)

// String returns the string representation of Role.
func (r Role) String() string {
	switch r {
	case RoleOrdinary:
		return "ordinary"
	case RoleObserver:
		return "observer"
	default:
		return "unknown"
	}
}
