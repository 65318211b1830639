// Package mailbox provides the in-memory channels agents use to talk to each other.
//
// A Pipe is a linked Sender/Receiver pair backed by an unbounded FIFO queue.
// A Registry wires two independent sets of pipes among a group of clients:
//
//   - the peer set: one inbox per address, and a shared Directory of every
//     inbox Sender that all ordinary clients are bound to, so anyone can mail
//     anyone (including itself and the observer).
//   - the observer set: one observer-inbound pipe per address. Each client only
//     ever holds the Receiver of its own pipe; the Directory of all the Senders
//     is bound to the observer client alone.
//
// The second set is what makes observer broadcast a capability rather than a
// permission check: an ordinary client simply has no handle that can write to
// another client's observer-inbound pipe.
//
//	reg, err := mailbox.NewRegistry(foo, bar, observer)
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
package mailbox
