// Package agent provides the addressable actors of amas.
//
// An Agent owns an inbox, an observer-inbound channel and an ordered list of
// tasks. It is idle when constructed, working once Run (or Start) is called,
// and stopped after Finish. Every wait operation (Recv, TryRecv, Poll, Sleep
// and their observer variants) fails with ErrNotWorking once the agent is
// stopped, which is how tasks learn they should return.
//
// # Tasks
//
// A task is a TaskFunc plus a bundle of bound arguments:
//
//	func sendEvery(ctx context.Context, self *agent.Agent, args agent.Args) error {
//	    for self.Working() {
//	        if err := self.Sleep(ctx, args.Duration("interval", time.Second)); err != nil {
//	            return err
//	        }
//	        if err := self.Send(args.String("to", ""), args.Get("message")); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	}
//
//	foo := agent.New("foo").Assign(sendEvery, agent.Args{"to": "bar", "interval": time.Second})
//
// Run turns the task list into Jobs for an environment to drive; it does not
// execute anything itself.
//
// # Observer
//
// NewObserver returns the one agent that a mailbox.Registry binds to the
// observer directory. Only it can Broadcast to every agent's observer-inbound
// channel.
//
// # Blocking calls
//
// Channel polls run through CallAsync, which executes the blocking function on
// its own goroutine so sibling tasks are never held up by one agent's wait.
package agent
