package mailbox

import (
	"context"
	"sync"
	"time"
)

// pipe is the shared state behind a Sender/Receiver pair.
type pipe struct {
	mu     sync.Mutex
	queue  []Mail
	ready  chan struct{} // closed and replaced on every enqueue
	closed bool
	done   chan struct{}
	once   sync.Once
}

// Pipe creates a linked Sender/Receiver pair.
// The queue is unbounded, so Send never blocks.
func Pipe() (*Sender, *Receiver) {
	p := &pipe{
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	return &Sender{p: p}, &Receiver{p: p}
}

func (p *pipe) push(m Mail) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosedChannel
	}
	p.queue = append(p.queue, m)
	close(p.ready)
	p.ready = make(chan struct{})
	return nil
}

// state reports whether mail is queued and returns the channel that is
// closed on the next enqueue.
func (p *pipe) state() (bool, <-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, nil, ErrClosedChannel
	}
	return len(p.queue) > 0, p.ready, nil
}

func (p *pipe) pop() (Mail, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Mail{}, false, ErrClosedChannel
	}
	if len(p.queue) == 0 {
		return Mail{}, false, nil
	}
	m := p.queue[0]
	p.queue[0] = Mail{}
	p.queue = p.queue[1:]
	return m, true, nil
}

func (p *pipe) release() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.queue = nil
		close(p.done)
		p.mu.Unlock()
	})
}

// poll waits up to timeout for mail. A negative timeout waits forever.
func (p *pipe) poll(ctx context.Context, timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		ok, ready, err := p.state()
		if err != nil || ok {
			return ok, err
		}
		if timeout == 0 {
			return false, nil
		}

		select {
		case <-ready:
		case <-p.done:
			return false, ErrClosedChannel
		case <-expired:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// Sender is the write-only half of a pipe.
type Sender struct {
	p *pipe
}

// Send enqueues Mail{From: from, Message: msg}.
func (s *Sender) Send(from Address, msg Message) error {
	return s.p.push(Mail{From: from, Message: msg})
}

// Close releases the pipe. Closing twice, or closing both halves, is a no-op.
func (s *Sender) Close() error {
	s.p.release()
	return nil
}

// Receiver is the read-only half of a pipe.
type Receiver struct {
	p *pipe
}

// Recv blocks until mail is available and dequeues it.
func (r *Receiver) Recv(ctx context.Context) (Mail, error) {
	for {
		m, ok, err := r.p.pop()
		if err != nil {
			return Mail{}, err
		}
		if ok {
			return m, nil
		}
		if _, err := r.p.poll(ctx, Forever); err != nil {
			return Mail{}, err
		}
	}
}

// TryRecv dequeues mail if any is queued, without waiting.
func (r *Receiver) TryRecv() (Mail, bool, error) {
	return r.p.pop()
}

// Poll reports whether mail becomes available within timeout without consuming it.
// Use Forever to wait without a bound and 0 for an instantaneous check.
func (r *Receiver) Poll(ctx context.Context, timeout time.Duration) (bool, error) {
	return r.p.poll(ctx, timeout)
}

// Len returns the number of queued mails, or 0 once released.
func (r *Receiver) Len() int {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	return len(r.p.queue)
}

// Close releases the pipe. Closing twice, or closing both halves, is a no-op.
func (r *Receiver) Close() error {
	r.p.release()
	return nil
}
