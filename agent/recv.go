package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/aixgo-dev/amas/internal/observability"
	"github.com/aixgo-dev/amas/mailbox"
)

// channel selects one of the two receivers an agent holds.
type channel uint8

const (
	peerChannel channel = iota
	observerChannel
)

func (c channel) label() string {
	if c == observerChannel {
		return observability.ChannelObserver
	}
	return observability.ChannelPeer
}

func (a *Agent) receiver(ch channel) (*mailbox.Receiver, error) {
	a.mu.RLock()
	rx := a.inbox
	if ch == observerChannel {
		rx = a.observer
	}
	a.mu.RUnlock()

	if rx == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, a.addr)
	}
	return rx, nil
}

// Poll reports whether inbox mail arrives within timeout, without consuming it.
// The wait runs off the caller's goroutine, outside the offload limit, and ends
// early with ErrNotWorking when the agent is finished.
func (a *Agent) Poll(ctx context.Context, timeout time.Duration) (bool, error) {
	return a.poll(ctx, peerChannel, timeout)
}

// PollFromObserver is Poll on the observer-inbound channel.
func (a *Agent) PollFromObserver(ctx context.Context, timeout time.Duration) (bool, error) {
	return a.poll(ctx, observerChannel, timeout)
}

// Recv waits for inbox mail, polling with the agent's receive timeout.
func (a *Agent) Recv(ctx context.Context) (mailbox.Mail, error) {
	return a.recv(ctx, peerChannel, a.recvTimeout)
}

// RecvWithin is Recv with an explicit poll timeout.
func (a *Agent) RecvWithin(ctx context.Context, timeout time.Duration) (mailbox.Mail, error) {
	return a.recv(ctx, peerChannel, timeout)
}

// TryRecv makes a single poll attempt on the inbox. It returns false when no
// mail arrived within timeout and the agent is still working.
func (a *Agent) TryRecv(ctx context.Context, timeout time.Duration) (mailbox.Mail, bool, error) {
	return a.tryRecv(ctx, peerChannel, timeout)
}

// RecvFromObserver waits for observer mail, polling with the agent's receive timeout.
func (a *Agent) RecvFromObserver(ctx context.Context) (mailbox.Mail, error) {
	return a.recv(ctx, observerChannel, a.recvTimeout)
}

// RecvFromObserverWithin is RecvFromObserver with an explicit poll timeout.
func (a *Agent) RecvFromObserverWithin(ctx context.Context, timeout time.Duration) (mailbox.Mail, error) {
	return a.recv(ctx, observerChannel, timeout)
}

// TryRecvFromObserver is TryRecv on the observer-inbound channel.
func (a *Agent) TryRecvFromObserver(ctx context.Context, timeout time.Duration) (mailbox.Mail, bool, error) {
	return a.tryRecv(ctx, observerChannel, timeout)
}

func (a *Agent) poll(ctx context.Context, ch channel, timeout time.Duration) (bool, error) {
	rx, err := a.receiver(ch)
	if err != nil {
		return false, err
	}
	if !a.Working() {
		return false, a.errNotWorking()
	}

	pctx, cancel := a.untilHalted(ctx)
	defer cancel()

	ok, err := runAsync(pctx, func() (bool, error) {
		return rx.Poll(pctx, timeout)
	})
	if err != nil {
		if ctx.Err() == nil && !a.Working() {
			return false, a.errNotWorking()
		}
		return false, err
	}
	return ok, nil
}

func (a *Agent) recv(ctx context.Context, ch channel, timeout time.Duration) (mailbox.Mail, error) {
	// A zero timeout would spin; poll one clock tick at a time instead.
	if timeout == 0 {
		timeout = a.ClockSpeed()
	}

	for {
		if !a.Working() {
			return mailbox.Mail{}, a.errNotWorking()
		}

		ok, err := a.poll(ctx, ch, timeout)
		if err != nil {
			return mailbox.Mail{}, err
		}
		if !ok {
			continue
		}

		mail, got, err := a.take(ch)
		if err != nil || got {
			return mail, err
		}
	}
}

func (a *Agent) tryRecv(ctx context.Context, ch channel, timeout time.Duration) (mailbox.Mail, bool, error) {
	ok, err := a.poll(ctx, ch, timeout)
	if err != nil {
		return mailbox.Mail{}, false, err
	}
	if !ok {
		if !a.Working() {
			return mailbox.Mail{}, false, a.errNotWorking()
		}
		return mailbox.Mail{}, false, nil
	}
	return a.take(ch)
}

func (a *Agent) take(ch channel) (mailbox.Mail, bool, error) {
	rx, err := a.receiver(ch)
	if err != nil {
		return mailbox.Mail{}, false, err
	}

	mail, ok, err := rx.TryRecv()
	if err != nil || !ok {
		return mailbox.Mail{}, false, err
	}

	observability.RecordMailReceived(a.addr, ch.label())
	a.logger.Debug("mail received", "from", mail.From, "channel", ch.label())
	return mail, true, nil
}

// untilHalted derives a context that is also cancelled when the agent finishes.
func (a *Agent) untilHalted(ctx context.Context) (context.Context, context.CancelFunc) {
	hctx, cancel := context.WithCancel(ctx)
	halt := a.halted()
	if halt == nil {
		return hctx, cancel
	}

	go func() {
		select {
		case <-halt:
			cancel()
		case <-hctx.Done():
		}
	}()
	return hctx, cancel
}
