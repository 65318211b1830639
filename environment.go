package amas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aixgo-dev/amas/agent"
	"github.com/aixgo-dev/amas/internal/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyRunning is returned by Parallelize while a background run is active
	ErrAlreadyRunning = errors.New("environment is already running")

	// ErrJoinTimeout is returned by Join when the background run outlives the timeout
	ErrJoinTimeout = errors.New("timed out waiting for environment")
)

// Environment drives the tasks of a group of agents in one scheduling domain.
type Environment struct {
	id     string
	agents []*agent.Agent
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// EnvOption configures an Environment.
type EnvOption func(*Environment)

// WithLogger sets the environment logger.
func WithLogger(l *slog.Logger) EnvOption {
	return func(e *Environment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithID overrides the generated environment ID.
func WithID(id string) EnvOption {
	return func(e *Environment) {
		if id != "" {
			e.id = id
		}
	}
}

// NewEnvironment creates an environment over agents. The agents must already
// be registered with a mailbox.Registry.
func NewEnvironment(agents []*agent.Agent, opts ...EnvOption) *Environment {
	e := &Environment{
		id:     uuid.New().String(),
		agents: append([]*agent.Agent(nil), agents...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("env", e.id)
	return e
}

// ID returns the environment ID.
func (e *Environment) ID() string {
	return e.id
}

// Agents returns the supervised agents.
func (e *Environment) Agents() []*agent.Agent {
	return append([]*agent.Agent(nil), e.agents...)
}

// Run starts every agent, drives all their jobs concurrently and waits for
// every job to return. Jobs ending with agent.ErrNotWorking, or with the
// cancellation of ctx, terminated normally. Any other job error is logged and
// the first one is returned once all jobs are done.
func (e *Environment) Run(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "amas.environment.run",
		trace.WithAttributes(
			attribute.String("env.id", e.id),
			attribute.Int("env.agents", len(e.agents)),
		),
	)
	defer span.End()

	jobs, err := e.collect()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	observability.EnvironmentStarted()
	defer observability.EnvironmentStopped()

	e.logger.Info("environment started", "agents", len(e.agents), "jobs", len(jobs))
	start := time.Now()

	var g errgroup.Group
	for _, job := range jobs {
		g.Go(func() error {
			return e.runJob(ctx, job)
		})
	}
	err = g.Wait()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("environment failed", "error", err, "duration", time.Since(start))
		return err
	}

	e.logger.Info("environment stopped", "duration", time.Since(start))
	return nil
}

// collect gathers the jobs of every agent. On failure the agents started so
// far are finished again.
func (e *Environment) collect() ([]agent.Job, error) {
	var jobs []agent.Job
	for i, a := range e.agents {
		js, err := a.Run()
		if err != nil {
			for _, started := range e.agents[:i] {
				_ = started.Finish()
			}
			return nil, fmt.Errorf("environment %s: %w", e.id, err)
		}
		jobs = append(jobs, js...)
	}
	return jobs, nil
}

func (e *Environment) runJob(ctx context.Context, job agent.Job) error {
	name := job.String()
	addr := job.Agent().Address()

	ctx, span := observability.StartSpan(ctx, "amas.job",
		trace.WithAttributes(
			attribute.String("job.name", name),
			attribute.String("agent.address", addr),
		),
	)
	defer span.End()

	start := time.Now()
	err := job.Run(ctx)
	outcome := jobOutcome(ctx, err)
	observability.RecordJob(addr, outcome, time.Since(start))
	span.SetAttributes(attribute.String("job.outcome", outcome))

	switch outcome {
	case observability.OutcomeFailed:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("job failed", "job", name, "error", err)
		return fmt.Errorf("job %s: %w", name, err)
	case observability.OutcomeStopped:
		e.logger.Debug("job stopped", "job", name)
	default:
		e.logger.Debug("job done", "job", name)
	}
	return nil
}

func jobOutcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return observability.OutcomeDone
	case errors.Is(err, agent.ErrNotWorking):
		return observability.OutcomeStopped
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return observability.OutcomeStopped
	default:
		return observability.OutcomeFailed
	}
}

// Parallelize starts Run on a background goroutine under its own cancellable
// context derived from ctx. Use Join to wait for it and Kill to stop it.
func (e *Environment) Parallelize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done != nil {
		select {
		case <-e.done:
		default:
			return fmt.Errorf("%w: %s", ErrAlreadyRunning, e.id)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.err = nil

	go func() {
		defer cancel()
		err := e.Run(runCtx)

		e.mu.Lock()
		e.err = err
		e.mu.Unlock()
		close(done)
	}()

	e.logger.Debug("environment parallelized")
	return nil
}

// Join waits for the background run started by Parallelize and returns its
// error. A negative timeout waits forever. Without Parallelize it returns nil.
func (e *Environment) Join(timeout time.Duration) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return nil
	}

	if timeout < 0 {
		<-done
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
			return fmt.Errorf("%w: %s after %s", ErrJoinTimeout, e.id, timeout)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Kill stops the background run: its context is cancelled and every working
// agent is finished. Without Parallelize it does nothing.
func (e *Environment) Kill() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	for _, a := range e.agents {
		if a.Working() {
			_ = a.Finish()
		}
	}
	e.logger.Info("environment killed")
}

// Done returns a channel closed when the background run ends. It is already
// closed when Parallelize was never called.
func (e *Environment) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.done
}
