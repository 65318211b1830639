package demo

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aixgo-dev/amas/agent"
	"github.com/aixgo-dev/amas/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, agents ...*agent.Agent) {
	t.Helper()

	clients := make([]mailbox.Client, len(agents))
	for i, a := range agents {
		clients[i] = a
	}
	reg, err := mailbox.NewRegistry(clients...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
}

func TestSendEvery(t *testing.T) {
	ctx := context.Background()
	foo, bar := agent.New("foo"), agent.New("bar")
	register(t, foo, bar)
	foo.Start()
	bar.Start()
	defer bar.Finish()

	errCh := make(chan error, 1)
	go func() {
		errCh <- SendEvery(ctx, foo, agent.Args{ArgTo: "bar", ArgMessage: "hello", ArgInterval: 5 * time.Millisecond})
	}()

	for i := 0; i < 3; i++ {
		mail, err := bar.RecvWithin(ctx, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, mailbox.Mail{From: "foo", Message: "hello"}, mail)
	}

	require.NoError(t, foo.Finish())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, agent.ErrNotWorking)
	case <-time.After(time.Second):
		t.Fatal("SendEvery did not stop")
	}
}

func TestPrintMail(t *testing.T) {
	ctx := context.Background()
	foo, bar := agent.New("foo"), agent.New("bar")
	register(t, foo, bar)
	bar.Start()

	var out bytes.Buffer
	errCh := make(chan error, 1)
	go func() {
		errCh <- PrintMail(ctx, bar, agent.Args{ArgOut: &out})
	}()

	require.NoError(t, foo.Send("bar", "hello"))
	require.NoError(t, foo.Send("bar", 42))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, bar.Finish())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, agent.ErrNotWorking)
	case <-time.After(time.Second):
		t.Fatal("PrintMail did not stop")
	}
	assert.Equal(t, "(foo, hello)\n(foo, 42)\n", out.String())
}

func TestQuitOnSignal(t *testing.T) {
	ctx := context.Background()
	foo, obs := agent.New("foo"), agent.NewObserver()
	register(t, foo, obs)
	foo.Start()
	obs.Start()
	defer obs.Finish()

	require.NoError(t, obs.Send("foo", "noise"))
	require.NoError(t, obs.Send("foo", "quit"))

	require.NoError(t, QuitOnSignal(ctx, foo, agent.Args{ArgSignal: "quit"}))
	assert.Equal(t, agent.StateStopped, foo.State())
}

func TestBroadcastAfter(t *testing.T) {
	ctx := context.Background()
	foo, obs := agent.New("foo"), agent.NewObserver()
	register(t, foo, obs)
	foo.Start()
	obs.Start()
	defer foo.Finish()

	start := time.Now()
	require.NoError(t, BroadcastAfter(ctx, obs, agent.Args{ArgDelay: 10 * time.Millisecond, ArgSignal: "quit"}))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.False(t, obs.Working())

	mail, ok, err := foo.TryRecvFromObserver(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mailbox.Mail{From: mailbox.ObserverAddress, Message: "quit"}, mail)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty sender", func(c *Config) { c.Sender = "" }, "demo.sender must not be empty"},
		{"observer receiver", func(c *Config) { c.Receiver = mailbox.ObserverAddress }, "demo.receiver must not be OBSERVER"},
		{"same agents", func(c *Config) { c.Receiver = c.Sender }, "must differ"},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "demo.interval"},
		{"negative quit", func(c *Config) { c.QuitAfter = -time.Second }, "demo.quit_after"},
		{"no signal", func(c *Config) { c.Signal = "" }, "demo.signal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
