package demo_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aixgo-dev/amas"
	"github.com/aixgo-dev/amas/agent"
	"github.com/aixgo-dev/amas/internal/demo"
	"github.com/aixgo-dev/amas/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() demo.Config {
	cfg := demo.DefaultConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.QuitAfter = 40 * time.Millisecond
	return cfg
}

func TestDemoEndToEnd(t *testing.T) {
	var out bytes.Buffer
	sys, err := demo.Build(fastConfig(), &out)
	require.NoError(t, err)
	defer sys.Close()

	env := amas.NewEnvironment(sys.Agents)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.Run(ctx))
	require.NoError(t, ctx.Err(), "environment must end on its own")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, "(foo, hello)", line)
	}
	assert.NotContains(t, out.String(), "quit")

	for _, a := range sys.Agents {
		assert.Equal(t, agent.StateStopped, a.State(), a.Address())
	}
}

func TestDemoParallelize(t *testing.T) {
	cfg := fastConfig()
	cfg.QuitAfter = time.Hour

	sys, err := demo.Build(cfg, nil)
	require.NoError(t, err)
	defer sys.Close()

	env := amas.NewEnvironment(sys.Agents)
	require.NoError(t, env.Parallelize(context.Background()))

	assert.ErrorIs(t, env.Join(20*time.Millisecond), amas.ErrJoinTimeout)

	env.Kill()
	select {
	case <-env.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("environment did not stop after Kill")
	}
	assert.NoError(t, env.Join(-1))
}

func TestBuild(t *testing.T) {
	sys, err := demo.Build(demo.DefaultConfig(), nil)
	require.NoError(t, err)
	defer sys.Close()

	assert.Equal(t, []mailbox.Address{"foo", "bar", mailbox.ObserverAddress}, sys.Registry.Addresses())
	require.Len(t, sys.Agents, 3)
	assert.Len(t, sys.Agents[0].Tasks(), 2)
	assert.Len(t, sys.Agents[1].Tasks(), 2)
	assert.Len(t, sys.Agents[2].Tasks(), 1)
	assert.True(t, sys.Agents[2].IsObserver())

	_, err = demo.Build(demo.Config{}, nil)
	assert.Error(t, err)
}
