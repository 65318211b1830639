package mailbox

import (
	"fmt"
	"sync"
)

// Directory maps addresses to the Sender of their pipe.
// Clients share a Directory read-only; only the Registry that created it adds
// or replaces entries.
type Directory struct {
	mu      sync.RWMutex
	senders map[Address]*Sender
	order   []Address // Registration order
}

func newDirectory() *Directory {
	return &Directory{
		senders: make(map[Address]*Sender),
		order:   make([]Address, 0),
	}
}

// put stores s under addr, keeping the position of an existing entry.
func (d *Directory) put(addr Address, s *Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.senders[addr]; !exists {
		d.order = append(d.order, addr)
	}
	d.senders[addr] = s
}

// Lookup returns the Sender registered for addr.
func (d *Directory) Lookup(addr Address) (*Sender, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.senders[addr]
	return s, ok
}

// Addresses returns every registered address in registration order.
func (d *Directory) Addresses() []Address {
	d.mu.RLock()
	defer d.mu.RUnlock()

	addrs := make([]Address, len(d.order))
	copy(addrs, d.order)
	return addrs
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.senders)
}

// Send delivers msg to the pipe registered for to, signed as from.
func (d *Directory) Send(from, to Address, msg Message) error {
	s, ok := d.Lookup(to)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, to)
	}
	return s.Send(from, msg)
}
