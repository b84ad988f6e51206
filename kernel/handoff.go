package kernel

import (
	"context"
	"errors"
	"sync"
)

// ErrHandoffClosed is returned by Handoff operations after Close.
var ErrHandoffClosed = errors.New("kernel: handoff closed")

// Handoff carries messages between a component stepped by the scheduler and a
// goroutine doing blocking work on its behalf.
//
// The scheduler side uses Put and Drain; the goroutine side uses Take,
// TryTake and Emit. Emit wakes the owning component through Scheduler.Notify.
type Handoff struct {
	mu     sync.Mutex
	toWork []any
	toSch  []any
	ready  chan struct{}
	closed bool
	inDone bool

	sched *Scheduler
	id    TaskID
}

// NewHandoff returns an open handoff. Attach binds it to a task before the
// goroutine first emits.
func NewHandoff() *Handoff {
	return &Handoff{ready: make(chan struct{}, 1)}
}

// Attach sets the task woken by Emit.
func (h *Handoff) Attach(s *Scheduler, id TaskID) {
	h.mu.Lock()
	h.sched, h.id = s, id
	h.mu.Unlock()
}

// Put queues msg for the goroutine.
func (h *Handoff) Put(msg any) error {
	h.mu.Lock()
	if h.closed || h.inDone {
		h.mu.Unlock()
		return ErrHandoffClosed
	}
	h.toWork = append(h.toWork, msg)
	h.signal()
	h.mu.Unlock()
	return nil
}

// Take blocks until a message is available, the handoff is closed, or ctx is
// done.
func (h *Handoff) Take(ctx context.Context) (any, error) {
	for {
		msg, ok, err := h.TryTake()
		if ok || err != nil {
			return msg, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-h.ready:
		}
	}
}

// TryTake returns the oldest message for the goroutine without blocking.
func (h *Handoff) TryTake() (any, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.toWork) > 0 {
		msg := h.toWork[0]
		h.toWork[0] = nil
		h.toWork = h.toWork[1:]
		return msg, true, nil
	}
	if h.closed || h.inDone {
		return nil, false, ErrHandoffClosed
	}
	return nil, false, nil
}

// Emit queues msg for the scheduler side and wakes the attached task.
func (h *Handoff) Emit(msg any) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHandoffClosed
	}
	h.toSch = append(h.toSch, msg)
	s, id := h.sched, h.id
	h.mu.Unlock()
	if s != nil {
		s.Notify(id)
	}
	return nil
}

// Drain returns every message emitted since the last Drain, oldest first.
func (h *Handoff) Drain() []any {
	h.mu.Lock()
	out := h.toSch
	h.toSch = nil
	h.mu.Unlock()
	return out
}

// CloseInput ends the scheduler-to-goroutine direction. Put fails from now on
// and Take reports ErrHandoffClosed once the queued messages are taken. Emit
// keeps working so the goroutine can still report results.
func (h *Handoff) CloseInput() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.inDone {
		return
	}
	h.inDone = true
	h.signal()
}

// signal wakes a blocked Take. h.mu must be held and ready must be open.
func (h *Handoff) signal() {
	select {
	case h.ready <- struct{}{}:
	default:
	}
}

// Close stops further Put and Emit calls and unblocks Take. Messages already
// emitted can still be drained.
func (h *Handoff) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.ready)
}

// ThreadBridged is implemented by components whose work runs on a goroutine
// behind a Handoff.
type ThreadBridged interface {
	Handoff() *Handoff
}

// Closed reports whether Close has been called.
func (h *Handoff) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
