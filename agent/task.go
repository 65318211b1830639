package agent

import (
	"context"
	"fmt"
	"time"
)

// Args is the bundle of named arguments bound to a task.
type Args map[string]any

// Lookup returns the value bound to key.
func (a Args) Lookup(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// Get returns the value bound to key, or nil.
func (a Args) Get(key string) any {
	return a[key]
}

// String returns the string bound to key, or def.
func (a Args) String(key, def string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return def
}

// Int returns the integer bound to key, or def.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Duration returns the duration bound to key, or def.
// Strings are parsed with time.ParseDuration.
func (a Args) Duration(key string, def time.Duration) time.Duration {
	switch v := a[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func (a Args) clone() Args {
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// merge returns a copy of a overlaid with b.
func (a Args) merge(b Args) Args {
	out := a.clone()
	for k, v := range b {
		out[k] = v
	}
	return out
}

// TaskFunc is the body of a task. It receives the owning agent and its bound
// arguments, and is expected to loop while self.Working() and return once a
// wait fails with ErrNotWorking.
type TaskFunc func(ctx context.Context, self *Agent, args Args) error

// Task is a task function with its bound arguments.
type Task struct {
	Fn   TaskFunc
	Args Args
}

// Job is one task of one agent, ready to be driven. It does nothing until Run.
type Job struct {
	agent *Agent
	index int
	fn    TaskFunc
	args  Args
}

// Agent returns the agent the job belongs to.
func (j Job) Agent() *Agent {
	return j.agent
}

// Index returns the position of the job's task in the agent's task list.
func (j Job) Index() int {
	return j.index
}

// Run invokes the task with the agent and the arguments bound when the job was created.
func (j Job) Run(ctx context.Context) error {
	return j.fn(ctx, j.agent, j.args)
}

// String returns the job name, e.g. "foo#1".
func (j Job) String() string {
	return fmt.Sprintf("%s#%d", j.agent.addr, j.index)
}

// Assign appends a task with the given bound arguments and returns the agent
// for chaining. Tasks must be assigned before Run.
func (a *Agent) Assign(fn TaskFunc, args Args) *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tasks = append(a.tasks, Task{Fn: fn, Args: args.clone()})
	return a
}

// Rebind merges args into the bundle of the task at index; new values win.
func (a *Agent) Rebind(index int, args Args) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if index < 0 || index >= len(a.tasks) {
		return fmt.Errorf("%w: %s has %d tasks, got index %d", ErrNoSuchTask, a.addr, len(a.tasks), index)
	}
	a.tasks[index].Args = a.tasks[index].Args.merge(args)
	return nil
}

// Tasks returns a copy of the assigned tasks.
func (a *Agent) Tasks() []Task {
	a.mu.RLock()
	defer a.mu.RUnlock()

	tasks := make([]Task, len(a.tasks))
	for i, t := range a.tasks {
		tasks[i] = Task{Fn: t.Fn, Args: t.Args.clone()}
	}
	return tasks
}

// Run starts the agent and returns one Job per assigned task, in assignment order.
func (a *Agent) Run() ([]Job, error) {
	tasks := a.Tasks()
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotAssigned, a.addr)
	}

	a.Start()

	jobs := make([]Job, len(tasks))
	for i, t := range tasks {
		jobs[i] = Job{agent: a, index: i, fn: t.Fn, args: t.Args}
	}
	return jobs, nil
}
