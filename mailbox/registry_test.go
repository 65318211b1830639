package mailbox

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient records the view the registry bound it to.
type stubClient struct {
	addr     Address
	role     Role
	inbox    *Receiver
	dest     *Directory
	observer *Receiver
	binds    int
}

func newStub(addr Address) *stubClient {
	role := RoleOrdinary
	if addr == ObserverAddress {
		role = RoleObserver
	}
	return &stubClient{addr: addr, role: role}
}

func (c *stubClient) Address() Address { return c.addr }
func (c *stubClient) Role() Role       { return c.role }

func (c *stubClient) Bind(inbox *Receiver, dest *Directory, observer *Receiver) {
	c.inbox = inbox
	c.dest = dest
	c.observer = observer
	c.binds++
}

func stubs(addrs ...Address) []*stubClient {
	out := make([]*stubClient, len(addrs))
	for i, a := range addrs {
		out[i] = newStub(a)
	}
	return out
}

func asClients(cs []*stubClient) []Client {
	out := make([]Client, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

func TestRegistryPeerMesh(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d agents", n), func(t *testing.T) {
			addrs := make([]Address, n)
			for i := range addrs {
				addrs[i] = fmt.Sprintf("agent-%d", i)
			}
			clients := stubs(addrs...)

			reg, err := NewRegistry(asClients(clients)...)
			require.NoError(t, err)
			defer reg.Close()

			assert.Equal(t, addrs, reg.Addresses())

			for _, from := range clients {
				require.Equal(t, n, from.dest.Len())
				for _, to := range clients {
					require.NoError(t, from.dest.Send(from.addr, to.addr, "ping"))

					mail, err := to.inbox.Recv(ctx)
					require.NoError(t, err)
					assert.Equal(t, Mail{From: from.addr, Message: "ping"}, mail)
				}
			}
		})
	}
}

func TestRegistryObserverBinding(t *testing.T) {
	ctx := context.Background()
	clients := stubs("foo", "bar", ObserverAddress)
	foo, bar, obs := clients[0], clients[1], clients[2]

	reg, err := NewRegistry(asClients(clients)...)
	require.NoError(t, err)
	defer reg.Close()

	t.Run("ordinary agents share the peer directory", func(t *testing.T) {
		assert.Same(t, foo.dest, bar.dest)
		assert.NotSame(t, foo.dest, obs.dest)
	})

	t.Run("observer directory reaches observer-inbound pipes", func(t *testing.T) {
		for _, c := range clients {
			require.NoError(t, obs.dest.Send(obs.addr, c.addr, "quit"))

			mail, err := c.observer.Recv(ctx)
			require.NoError(t, err)
			assert.Equal(t, Mail{From: ObserverAddress, Message: "quit"}, mail)

			_, ok, err := c.inbox.TryRecv()
			require.NoError(t, err)
			assert.False(t, ok, "observer broadcast must not reach the peer inbox")
		}
	})

	t.Run("ordinary directory only reaches inboxes", func(t *testing.T) {
		require.NoError(t, foo.dest.Send(foo.addr, bar.addr, "hello"))

		ok, err := bar.observer.Poll(ctx, 0)
		require.NoError(t, err)
		assert.False(t, ok)

		mail, err := bar.inbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hello", mail.Message)
	})

	t.Run("agents can mail the observer inbox", func(t *testing.T) {
		require.NoError(t, foo.dest.Send(foo.addr, ObserverAddress, "report"))

		mail, err := obs.inbox.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, Mail{From: "foo", Message: "report"}, mail)
	})
}

func TestRegistryIncrementalMatchesBulk(t *testing.T) {
	bulkClients := stubs("foo", "bar", ObserverAddress)
	bulk, err := NewRegistry(asClients(bulkClients)...)
	require.NoError(t, err)
	defer bulk.Close()

	incClients := stubs("foo", "bar", ObserverAddress)
	inc, err := NewRegistry()
	require.NoError(t, err)
	defer inc.Close()
	for _, c := range incClients {
		require.NoError(t, inc.Register(c))
	}

	assert.Equal(t, bulk.Addresses(), inc.Addresses())
	for i := range bulkClients {
		assert.Equal(t, bulkClients[i].dest.Addresses(), incClients[i].dest.Addresses())
		assert.Equal(t, 1, incClients[i].binds)
	}

	// Earlier registrations see later ones.
	assert.Equal(t, 3, incClients[0].dest.Len())
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
		want   error
	}{
		{"empty address", &stubClient{addr: "", role: RoleOrdinary}, ErrEmptyAddress},
		{"ordinary agent on observer address", &stubClient{addr: ObserverAddress, role: RoleOrdinary}, ErrReservedAddress},
		{"observer on ordinary address", &stubClient{addr: "foo", role: RoleObserver}, ErrReservedAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry()
			require.NoError(t, err)

			err = reg.Register(tt.client)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, tt.client.binds)
		})
	}

	t.Run("NewRegistry stops at the first invalid client", func(t *testing.T) {
		_, err := NewRegistry(newStub("foo"), &stubClient{addr: ""})
		assert.ErrorIs(t, err, ErrEmptyAddress)
	})
}

func TestRegistryReRegister(t *testing.T) {
	ctx := context.Background()
	foo := newStub("foo")
	bar := newStub("bar")

	reg, err := NewRegistry(foo, bar)
	require.NoError(t, err)
	defer reg.Close()

	oldInbox := bar.inbox
	require.NoError(t, reg.Register(bar))

	assert.Equal(t, []Address{"foo", "bar"}, reg.Addresses())
	_, err = oldInbox.Poll(ctx, 0)
	assert.ErrorIs(t, err, ErrClosedChannel)

	require.NoError(t, foo.dest.Send("foo", "bar", "again"))
	mail, err := bar.inbox.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "again", mail.Message)
}

func TestRegistryClose(t *testing.T) {
	foo := newStub("foo")
	reg, err := NewRegistry(foo)
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	assert.ErrorIs(t, foo.dest.Send("foo", "foo", "x"), ErrClosedChannel)
	assert.ErrorIs(t, foo.dest.Send("foo", "nobody", "x"), ErrUnknownAddress)
}
