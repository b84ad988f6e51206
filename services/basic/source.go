package basic

import "axon/kernel"

// Source emits a fixed list of values, one per step, then sends
// ProducerFinished on "signal" and terminates.
type Source struct {
	kernel.Component
	values []any
	next   int
}

func NewSource(name string, values ...any) *Source {
	s := &Source{values: values}
	s.Init(name, kernel.DefaultBoxes())
	return s
}

// Remaining returns how many values have not been sent yet.
func (s *Source) Remaining() int { return len(s.values) - s.next }

func (s *Source) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := s.CheckControl(); ok {
		return s.Finish(sig)
	}
	if s.next >= len(s.values) {
		return s.Finish(nil)
	}
	if err := s.Send(s.values[s.next], kernel.Outbox); err != nil {
		// Bounded sink with Reject: try again next step.
		ctx.Logger().Debug("Source send refused", "err", err)
		return kernel.Yield
	}
	s.next++
	return kernel.Continue
}

// Forwarder copies "inbox" to "outbox" and every "control" message, shutdown
// or not, to "signal". It stops after forwarding a shutdown.
type Forwarder struct {
	kernel.Component
}

func NewForwarder(name string) *Forwarder {
	f := &Forwarder{}
	f.Init(name, kernel.DefaultBoxes())
	return f
}

func (f *Forwarder) Step(ctx *kernel.Context) kernel.StepResult {
	for f.DataReady(kernel.Inbox) {
		msg, _ := f.Recv(kernel.Inbox)
		_ = f.Send(msg, kernel.Outbox)
	}
	stop := false
	for f.DataReady(kernel.Control) {
		msg, _ := f.Recv(kernel.Control)
		_ = f.Send(msg, kernel.Signal)
		if _, ok := kernel.IsShutdown(msg); ok {
			stop = true
		}
	}
	if stop {
		return kernel.Done
	}
	ctx.Pause()
	return kernel.Continue
}
