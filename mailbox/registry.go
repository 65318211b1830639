package mailbox

import (
	"fmt"
	"sync"
)

// Client is anything the Registry can wire: an address, a role and a way to
// receive its view of the channels.
type Client interface {
	// Address returns the unique address of the client.
	Address() Address

	// Role selects the directory the client is bound to.
	Role() Role

	// Bind hands the client its own inbox, the directory it may send through,
	// and its own observer-inbound receiver.
	Bind(inbox *Receiver, dest *Directory, observer *Receiver)
}

// endpoints holds the receivers of the two pipes created for one address.
// Closing a receiver releases its whole pipe.
type endpoints struct {
	inbox    *Receiver
	observed *Receiver
}

func (e endpoints) close() {
	e.inbox.Close()
	e.observed.Close()
}

// Registry creates and owns the peer and observer pipe sets of a group of clients.
// Every client must be registered before any of them starts running.
type Registry struct {
	mu        sync.Mutex
	peers     *Directory
	observers *Directory
	pipes     map[Address]endpoints
}

// NewRegistry creates a registry and registers clients in order.
// It behaves exactly like calling Register for each client.
func NewRegistry(clients ...Client) (*Registry, error) {
	r := &Registry{
		peers:     newDirectory(),
		observers: newDirectory(),
		pipes:     make(map[Address]endpoints),
	}

	for _, c := range clients {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register creates the inbox and observer-inbound pipes of c and binds c.
// Observers are bound to the observer directory, every other client to the
// peer directory. Registering an address again replaces its pipes.
func (r *Registry) Register(c Client) error {
	addr := c.Address()
	if addr == "" {
		return ErrEmptyAddress
	}

	role := c.Role()
	if (role == RoleObserver) != (addr == ObserverAddress) {
		return fmt.Errorf("%w: %s cannot use role %s", ErrReservedAddress, addr, role)
	}

	inboxSend, inbox := Pipe()
	observeSend, observed := Pipe()

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.pipes[addr]; exists {
		old.close()
	}
	r.pipes[addr] = endpoints{inbox: inbox, observed: observed}
	r.peers.put(addr, inboxSend)
	r.observers.put(addr, observeSend)

	dest := r.peers
	if role == RoleObserver {
		dest = r.observers
	}
	c.Bind(inbox, dest, observed)

	return nil
}

// Addresses returns every registered address in registration order.
func (r *Registry) Addresses() []Address {
	return r.peers.Addresses()
}

// Close releases every pipe the registry created.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.pipes {
		e.close()
	}
	return nil
}
