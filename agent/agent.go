package agent

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aixgo-dev/amas/internal/observability"
	"github.com/aixgo-dev/amas/mailbox"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultClockSpeed is the interval at which Sleep re-checks the working flag.
	DefaultClockSpeed = 100 * time.Microsecond

	// MaxClockSpeed is the largest accepted clock speed.
	MaxClockSpeed = 10 * time.Millisecond

	// DefaultRecvTimeout is the poll timeout used by Recv and RecvFromObserver.
	DefaultRecvTimeout = time.Second
)

// State is the lifecycle state of an Agent.
type State int32

const (
	// StateIdle means the agent was constructed but never started
	StateIdle State = iota

	// StateWorking means the agent's tasks may run and wait
	StateWorking

	// StateStopped means Finish was called
	StateStopped
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWorking:
		return "working"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Agent is an addressable actor. Its zero value is not usable; construct it
// with New or NewObserver and register it with a mailbox.Registry before
// running it.
type Agent struct {
	addr mailbox.Address
	role mailbox.Role

	mu       sync.RWMutex
	inbox    *mailbox.Receiver
	dest     *mailbox.Directory
	observer *mailbox.Receiver
	tasks    []Task
	halt     chan struct{} // Closed by Finish

	state       atomic.Int32
	clock       atomic.Int64
	recvTimeout time.Duration
	offload     *semaphore.Weighted
	logger      *slog.Logger
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithClockSpeed sets the Sleep check interval.
// Values outside (0, MaxClockSpeed] leave DefaultClockSpeed in place.
func WithClockSpeed(d time.Duration) Option {
	return func(a *Agent) {
		_ = a.SetClock(d)
	}
}

// WithRecvTimeout sets the poll timeout used by Recv and RecvFromObserver.
func WithRecvTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.recvTimeout = d
	}
}

// WithOffloadLimit bounds the number of concurrent CallAsync calls of the agent.
// Channel polls are not counted against it.
// Zero means unlimited.
func WithOffloadLimit(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.offload = semaphore.NewWeighted(int64(n))
		} else {
			a.offload = nil
		}
	}
}

// WithLogger sets the logger. The agent address is added to every record.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an ordinary agent with the given address.
func New(addr mailbox.Address, opts ...Option) *Agent {
	return newAgent(addr, mailbox.RoleOrdinary, opts)
}

func newAgent(addr mailbox.Address, role mailbox.Role, opts []Option) *Agent {
	a := &Agent{
		addr:        addr,
		role:        role,
		tasks:       make([]Task, 0),
		recvTimeout: DefaultRecvTimeout,
		logger:      slog.Default(),
	}
	a.clock.Store(int64(DefaultClockSpeed))

	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("agent", addr)

	return a
}

// Address returns the agent's address.
func (a *Agent) Address() mailbox.Address {
	return a.addr
}

// Role returns the agent's role.
func (a *Agent) Role() mailbox.Role {
	return a.role
}

// Logger returns the agent's logger.
func (a *Agent) Logger() *slog.Logger {
	return a.logger
}

// String returns a human-readable representation of the agent for debugging.
func (a *Agent) String() string {
	return fmt.Sprintf("Agent{Address:%s, Role:%s, State:%s}", a.addr, a.role, a.State())
}

// Bind is called by mailbox.Registry to hand the agent its channels.
func (a *Agent) Bind(inbox *mailbox.Receiver, dest *mailbox.Directory, observer *mailbox.Receiver) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inbox = inbox
	a.dest = dest
	a.observer = observer
}

// Start marks the agent working. Starting a working agent is a no-op.
func (a *Agent) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if State(a.state.Load()) == StateWorking {
		return
	}
	a.halt = make(chan struct{})
	a.state.Store(int32(StateWorking))
	a.logger.Debug("agent started")
}

// Finish stops the agent. Pending and future waits fail with ErrNotWorking.
func (a *Agent) Finish() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch State(a.state.Load()) {
	case StateIdle:
		return a.errNotWorking()
	case StateStopped:
		return fmt.Errorf("%w: %s", ErrAlreadyFinished, a.addr)
	}

	a.state.Store(int32(StateStopped))
	close(a.halt)
	a.logger.Debug("agent finished")
	return nil
}

// Working reports whether the agent is in StateWorking.
func (a *Agent) Working() bool {
	return State(a.state.Load()) == StateWorking
}

// State returns the current lifecycle state.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// SetClock sets the interval at which Sleep re-checks the working flag.
func (a *Agent) SetClock(d time.Duration) error {
	if d <= 0 || d > MaxClockSpeed {
		return fmt.Errorf("%w: %s must be in (0, %s]", ErrInvalidClockSpeed, d, MaxClockSpeed)
	}
	a.clock.Store(int64(d))
	return nil
}

// ClockSpeed returns the Sleep check interval.
func (a *Agent) ClockSpeed() time.Duration {
	return time.Duration(a.clock.Load())
}

// RecvTimeout returns the poll timeout used by Recv.
func (a *Agent) RecvTimeout() time.Duration {
	return a.recvTimeout
}

// Send mails msg to the agent at to through the bound directory.
// For the observer that is the target's observer-inbound channel, for every
// other agent the target's inbox.
func (a *Agent) Send(to mailbox.Address, msg mailbox.Message) error {
	a.mu.RLock()
	dest := a.dest
	a.mu.RUnlock()

	if dest == nil {
		return fmt.Errorf("%w: %s", ErrNotBound, a.addr)
	}
	if err := dest.Send(a.addr, to, msg); err != nil {
		return err
	}

	observability.RecordMailSent(a.addr, a.sendChannel())
	a.logger.Debug("mail sent", "to", to)
	return nil
}

// Destinations returns every address the agent can send to.
func (a *Agent) Destinations() []mailbox.Address {
	a.mu.RLock()
	dest := a.dest
	a.mu.RUnlock()

	if dest == nil {
		return nil
	}
	return dest.Addresses()
}

func (a *Agent) sendChannel() string {
	if a.role == mailbox.RoleObserver {
		return observability.ChannelObserver
	}
	return observability.ChannelPeer
}

func (a *Agent) errNotWorking() error {
	return fmt.Errorf("%w: %s", ErrNotWorking, a.addr)
}

// halted returns the channel Finish closes. It is nil before the first Start.
func (a *Agent) halted() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.halt
}
