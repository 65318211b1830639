// Package demo assembles the sample foo/bar/observer system run by the CLI.
package demo

import (
	"context"
	"fmt"
	"io"

	"github.com/aixgo-dev/amas/agent"
)

// Argument keys understood by the demo tasks.
const (
	ArgTo       = "to"
	ArgMessage  = "message"
	ArgInterval = "interval"
	ArgDelay    = "delay"
	ArgSignal   = "signal"
	ArgOut      = "out"
)

// SendEvery mails args[message] to args[to], then sleeps args[interval], until
// the agent stops.
func SendEvery(ctx context.Context, self *agent.Agent, args agent.Args) error {
	to := args.String(ArgTo, "")
	msg := args.Get(ArgMessage)
	interval := args.Duration(ArgInterval, self.ClockSpeed())

	for self.Working() {
		if err := self.Send(to, msg); err != nil {
			return err
		}
		if err := self.Sleep(ctx, interval); err != nil {
			return err
		}
	}
	return self.Sleep(ctx, 0)
}

// PrintMail logs every inbox mail and writes it as "(from, message)" to
// args[out] when that is an io.Writer.
func PrintMail(ctx context.Context, self *agent.Agent, args agent.Args) error {
	out, _ := args.Get(ArgOut).(io.Writer)

	for {
		mail, err := self.Recv(ctx)
		if err != nil {
			return err
		}

		self.Logger().Info("mail", "from", mail.From, "message", mail.Message)
		if out != nil {
			fmt.Fprintf(out, "(%s, %v)\n", mail.From, mail.Message)
		}
	}
}

// QuitOnSignal finishes the agent once args[signal] arrives from the observer.
// Other observer mail is ignored.
func QuitOnSignal(ctx context.Context, self *agent.Agent, args agent.Args) error {
	signal := args.Get(ArgSignal)

	for {
		mail, err := self.RecvFromObserver(ctx)
		if err != nil {
			return err
		}
		if mail.Message == signal {
			self.Logger().Info("signal received", "signal", signal)
			return self.Finish()
		}
	}
}

// BroadcastAfter sleeps args[delay], broadcasts args[signal] to every agent
// and finishes the observer.
func BroadcastAfter(ctx context.Context, self *agent.Agent, args agent.Args) error {
	if err := self.Sleep(ctx, args.Duration(ArgDelay, 0)); err != nil {
		return err
	}

	signal := args.Get(ArgSignal)
	if err := self.Broadcast(signal); err != nil {
		return err
	}
	self.Logger().Info("signal broadcast", "signal", signal)
	return self.Finish()
}
