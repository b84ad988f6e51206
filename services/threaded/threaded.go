// Package threaded runs blocking work on a goroutine behind an ordinary
// component.
package threaded

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"axon/kernel"
)

// Worker does the blocking part of a threaded component. It takes input with
// h.Take and reports output with h.Emit. Take fails with
// kernel.ErrHandoffClosed once the component's input is finished; ctx is
// cancelled on an urgent shutdown.
type Worker func(ctx context.Context, h *kernel.Handoff) error

// Component forwards "inbox" to its worker and the worker's output to
// "outbox". The scheduler is held while the worker goroutine runs.
//
// A ProducerFinished on "control" closes the worker's input and lets it finish
// on its own; ShutdownMicroprocess also cancels it. Either way the component
// terminates only after the worker has returned.
type Component struct {
	kernel.Component

	work Worker
	h    *kernel.Handoff

	started bool
	cancel  context.CancelFunc
	done    atomic.Bool
	err     error
}

var _ kernel.ThreadBridged = (*Component)(nil)

func New(name string, work Worker) *Component {
	c := &Component{work: work, h: kernel.NewHandoff()}
	c.Init(name, kernel.DefaultBoxes())
	return c
}

// Handoff returns the queues shared with the worker goroutine.
func (c *Component) Handoff() *kernel.Handoff { return c.h }

func (c *Component) start(ctx *kernel.Context) {
	s, id := ctx.Scheduler(), ctx.TaskID()
	c.h.Attach(s, id)
	release := s.Hold()

	wctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true
	go func() {
		defer release()
		err := c.work(wctx, c.h)
		c.err = err
		c.done.Store(true)
		s.Notify(id)
	}()
}

func (c *Component) Step(ctx *kernel.Context) kernel.StepResult {
	if !c.started {
		c.start(ctx)
	}

	sig, stopping := c.CheckControl()
	if stopping && sig.Urgent() {
		c.cancel()
		c.h.Close()
		for c.DataReady(kernel.Inbox) {
			_, _ = c.Recv(kernel.Inbox)
		}
	}
	for c.DataReady(kernel.Inbox) {
		msg, _ := c.Recv(kernel.Inbox)
		if err := c.h.Put(msg); err != nil {
			ctx.Logger().Debug("Worker input closed, message dropped", "err", err)
		}
	}
	if stopping {
		c.h.CloseInput()
	}

	// done is read before draining so output emitted just before exit is
	// not lost.
	finished := c.done.Load()
	for _, msg := range c.h.Drain() {
		_ = c.Send(msg, kernel.Outbox)
	}
	if !finished {
		ctx.Pause()
		return kernel.Continue
	}

	c.cancel()
	if err := c.err; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, kernel.ErrHandoffClosed) {
		ctx.Fail(fmt.Errorf("worker %s: %w", c.Name(), err))
		return kernel.Done
	}
	return c.Finish(sig)
}
