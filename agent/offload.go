package agent

import (
	"context"
	"time"
)

type result[T any] struct {
	value T
	err   error
}

// CallAsync runs fn on its own goroutine and waits for its result or for ctx.
// When the agent has an offload limit, the call first waits for a free slot.
// If ctx ends first, fn keeps running to completion in the background.
func CallAsync[T any](ctx context.Context, a *Agent, fn func() (T, error)) (T, error) {
	if a.offload == nil {
		return runAsync(ctx, fn)
	}

	if err := a.offload.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}
	return runAsync(ctx, func() (T, error) {
		defer a.offload.Release(1)
		return fn()
	})
}

// runAsync runs fn on its own goroutine without taking an offload slot.
// Channel polls use it directly so a long wait never holds a slot.
func runAsync[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan result[T], 1)
	go func() {
		v, err := fn()
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CallAfter sleeps for delay on a and then runs fn through CallAsync.
func CallAfter[T any](ctx context.Context, a *Agent, delay time.Duration, fn func() (T, error)) (T, error) {
	if err := a.Sleep(ctx, delay); err != nil {
		var zero T
		return zero, err
	}
	return CallAsync(ctx, a, fn)
}
