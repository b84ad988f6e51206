package chassis

import (
	"context"
	"testing"

	"axon/kernel"
)

// mapper applies fn to everything on its inbox and honours control.
type mapper struct {
	kernel.Component
	fn func(any) any
}

func newMapper(name string, fn func(any) any) *mapper {
	m := &mapper{fn: fn}
	m.Init(name, kernel.DefaultBoxes())
	return m
}

func (m *mapper) Step(ctx *kernel.Context) kernel.StepResult {
	for m.DataReady(kernel.Inbox) {
		msg, _ := m.Recv(kernel.Inbox)
		_ = m.Send(m.fn(msg), kernel.Outbox)
	}
	if sig, ok := m.CheckControl(); ok {
		return m.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}

// once emits a single value and finishes.
type once struct {
	kernel.Component
	v any
}

func newOnce(v any) *once {
	o := &once{v: v}
	o.Init("once", kernel.DefaultBoxes())
	return o
}

func (o *once) Step(*kernel.Context) kernel.StepResult {
	_ = o.Send(o.v, kernel.Outbox)
	return o.Finish(nil)
}

func double(v any) any { return v.(int) * 2 }

func run(t *testing.T, s *kernel.Scheduler) {
	t.Helper()
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func drain(c *kernel.Component, outbox string) []any {
	var out []any
	for c.OutReady(outbox) {
		msg, _ := c.Collect(outbox)
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
