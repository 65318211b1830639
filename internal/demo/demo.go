package demo

import (
	"io"

	"github.com/aixgo-dev/amas/agent"
	"github.com/aixgo-dev/amas/mailbox"
)

// System is a registered set of demo agents.
type System struct {
	Agents   []*agent.Agent
	Registry *mailbox.Registry
}

// Build creates the sender, the receiver and the observer, assigns their
// tasks and registers them. Received mail is written to out, which may be nil.
func Build(cfg Config, out io.Writer, opts ...agent.Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	quit := agent.Args{ArgSignal: cfg.Signal}

	sender := agent.New(cfg.Sender, opts...).
		Assign(SendEvery, agent.Args{
			ArgTo:       cfg.Receiver,
			ArgMessage:  cfg.Message,
			ArgInterval: cfg.Interval,
		}).
		Assign(QuitOnSignal, quit)

	printArgs := agent.Args{}
	if out != nil {
		printArgs[ArgOut] = out
	}
	receiver := agent.New(cfg.Receiver, opts...).
		Assign(PrintMail, printArgs).
		Assign(QuitOnSignal, quit)

	observer := agent.NewObserver(opts...).
		Assign(BroadcastAfter, agent.Args{
			ArgDelay:  cfg.QuitAfter,
			ArgSignal: cfg.Signal,
		})

	agents := []*agent.Agent{sender, receiver, observer}
	clients := make([]mailbox.Client, len(agents))
	for i, a := range agents {
		clients[i] = a
	}

	reg, err := mailbox.NewRegistry(clients...)
	if err != nil {
		return nil, err
	}
	return &System{Agents: agents, Registry: reg}, nil
}

// Close releases the channels of the system.
func (s *System) Close() error {
	return s.Registry.Close()
}
