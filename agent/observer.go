package agent

import (
	"fmt"

	"github.com/aixgo-dev/amas/mailbox"
)

// NewObserver creates the observer agent at mailbox.ObserverAddress.
func NewObserver(opts ...Option) *Agent {
	return newAgent(mailbox.ObserverAddress, mailbox.RoleObserver, opts)
}

// IsObserver reports whether the agent has the observer role.
func (a *Agent) IsObserver() bool {
	return a.role == mailbox.RoleObserver
}

// Broadcast sends msg to the observer-inbound channel of every registered
// agent, the observer included. Sending continues past failures; the first
// error is returned.
//
// Only the observer is bound to the directory of observer-inbound senders, so
// an ordinary agent has no way to reach those channels. Calling Broadcast on
// one reports ErrNotObserver instead of mailing peer inboxes.
func (a *Agent) Broadcast(msg mailbox.Message) error {
	if !a.IsObserver() {
		return fmt.Errorf("%w: %s", ErrNotObserver, a.addr)
	}

	targets := a.Destinations()
	if targets == nil {
		return fmt.Errorf("%w: %s", ErrNotBound, a.addr)
	}

	var firstErr error
	for _, to := range targets {
		if err := a.Send(to, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
