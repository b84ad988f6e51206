package kernel

import (
	"testing"
	"time"
)

const testTimeout = 1 * time.Second

func recvWithTimeout[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for value")
		var zero T
		return zero
	}
}

// stepper is a component whose step is supplied by the test.
type stepper struct {
	Component
	fn func(c *stepper, ctx *Context) StepResult
}

func newStepper(name string, fn func(c *stepper, ctx *Context) StepResult) *stepper {
	s := &stepper{fn: fn}
	s.Init(name, DefaultBoxes())
	return s
}

func (s *stepper) Step(ctx *Context) StepResult { return s.fn(s, ctx) }

// echo forwards everything from inbox to outbox and honours control.
type echo struct {
	Component
}

func newEcho(name string) *echo {
	e := &echo{}
	e.Init(name, DefaultBoxes())
	return e
}

func (e *echo) Step(ctx *Context) StepResult {
	for e.DataReady(Inbox) {
		msg, _ := e.Recv(Inbox)
		_ = e.Send(msg, Outbox)
	}
	if sig, ok := e.CheckControl(); ok {
		return e.Finish(sig)
	}
	ctx.Pause()
	return Continue
}

// sink records every inbox message with the round it was read in.
type sink struct {
	Component
	got    []any
	rounds []uint64
}

func newSink(name string) *sink {
	s := &sink{}
	s.Init(name, DefaultBoxes())
	return s
}

func (s *sink) Step(ctx *Context) StepResult {
	for s.DataReady(Inbox) {
		msg, _ := s.Recv(Inbox)
		s.got = append(s.got, msg)
		s.rounds = append(s.rounds, ctx.Round())
	}
	if sig, ok := s.CheckControl(); ok {
		return s.Finish(sig)
	}
	ctx.Pause()
	return Continue
}

func collectAll(t *testing.T, c *Component, outbox string) []any {
	t.Helper()
	var out []any
	for c.OutReady(outbox) {
		msg, err := c.Collect(outbox)
		if err != nil {
			t.Fatalf("Collect(%q): %v", outbox, err)
		}
		out = append(out, msg)
	}
	return out
}

func equalAny(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
