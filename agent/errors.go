package agent

import "errors"

var (
	// ErrNotWorking is returned by wait operations on an agent that is not working.
	// Tasks treat it as their termination signal.
	ErrNotWorking = errors.New("agent is not working")

	// ErrAlreadyFinished is returned by Finish on a stopped agent. It is a usage
	// error, not a termination signal, and does not match ErrNotWorking.
	ErrAlreadyFinished = errors.New("agent already finished")

	// ErrNotAssigned is returned by Run when no task was assigned
	ErrNotAssigned = errors.New("no task assigned")

	// ErrNoSuchTask is returned by Rebind for an index outside the task list
	ErrNoSuchTask = errors.New("no such task")

	// ErrNotObserver is returned by Broadcast on an ordinary agent
	ErrNotObserver = errors.New("agent is not the observer")

	// ErrNotBound is returned by channel operations before the agent was registered
	ErrNotBound = errors.New("agent is not bound to a registry")

	// ErrInvalidClockSpeed is returned for a clock speed outside (0, MaxClockSpeed]
	ErrInvalidClockSpeed = errors.New("invalid clock speed")
)
