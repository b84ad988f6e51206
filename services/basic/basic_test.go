package basic

import (
	"context"
	"testing"

	"axon/chassis"
	"axon/kernel"
)

func run(t *testing.T, s *kernel.Scheduler) {
	t.Helper()
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
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

func TestEchoOrder(t *testing.T) {
	s := kernel.New()
	e := NewEcho("echo")
	s.Activate(e)
	for _, v := range []int{1, 2, 3} {
		_ = e.Deliver(v, kernel.Inbox)
	}
	run(t, s)

	var got []any
	for e.OutReady(kernel.Outbox) {
		msg, _ := e.Collect(kernel.Outbox)
		got = append(got, msg)
	}
	if !equalAny(got, []any{1, 2, 3}) {
		t.Fatalf("outbox = %v, want [1 2 3]", got)
	}
}

func TestUrgentShutdownSkipsPendingInput(t *testing.T) {
	s := kernel.New()
	e := NewEcho("echo")
	s.Activate(e)
	_ = e.Deliver("late", kernel.Inbox)
	_ = e.Deliver(kernel.ShutdownMicroprocess{}, kernel.Control)
	run(t, s)

	if e.OutReady(kernel.Outbox) {
		t.Fatal("urgent shutdown still forwarded pending input")
	}
	if !e.Stopped() {
		t.Fatal("echo still running")
	}
	sig, err := e.Collect(kernel.Signal)
	if err != nil {
		t.Fatalf("Collect(signal): %v", err)
	}
	if _, ok := sig.(kernel.ShutdownMicroprocess); !ok {
		t.Fatalf("signal = %v, want ShutdownMicroprocess", sig)
	}
}

func TestSourceTransformCollector(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(100))
	src := NewSource("src", 1, 2, 3, 4, 5)
	sq := NewTransform("square", func(v any) any { return v.(int) * v.(int) })
	col := NewCollector("col", nil)
	p, err := chassis.NewPipeline("p", src, sq, col)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	s.Activate(p)
	run(t, s)

	if !equalAny(col.Got(), []any{1, 4, 9, 16, 25}) {
		t.Fatalf("collected %v, want [1 4 9 16 25]", col.Got())
	}
	if src.Remaining() != 0 {
		t.Fatalf("Remaining() = %d", src.Remaining())
	}
	for _, c := range []*kernel.Component{&src.Component, &sq.Component, &col.Component, &p.Component} {
		if !c.Stopped() {
			t.Fatalf("%s still running", c.Name())
		}
	}
	sig, err := p.Collect(kernel.Signal)
	if err != nil {
		t.Fatalf("Collect(signal): %v", err)
	}
	if _, ok := sig.(kernel.ProducerFinished); !ok {
		t.Fatalf("pipeline signal = %v, want ProducerFinished", sig)
	}
}

func TestSourceRetriesRefusedSend(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(50))
	src := NewSource("src", "a", "b", "c")
	col := NewCollector("col", nil)
	po := kernel.NewPostOffice("test")
	if _, err := po.Link(kernel.At(src, kernel.Outbox), kernel.At(col, kernel.Inbox),
		kernel.WithBound(kernel.Bound{Capacity: 1, Policy: kernel.Reject})); err != nil {
		t.Fatalf("Link: %v", err)
	}
	s.Activate(col)
	s.Activate(src)
	run(t, s)

	if !equalAny(col.Got(), []any{"a", "b", "c"}) {
		t.Fatalf("collected %v, want [a b c]", col.Got())
	}
}

func TestForwarderPassesControl(t *testing.T) {
	s := kernel.New()
	f := NewForwarder("fwd")
	s.Activate(f)
	_ = f.Deliver("data", kernel.Inbox)
	_ = f.Deliver("config", kernel.Control)
	_ = f.Deliver(kernel.ProducerFinished{}, kernel.Control)
	run(t, s)

	if msg, _ := f.Collect(kernel.Outbox); msg != "data" {
		t.Fatalf("outbox = %v, want data", msg)
	}
	first, _ := f.Collect(kernel.Signal)
	second, _ := f.Collect(kernel.Signal)
	if first != "config" {
		t.Fatalf("first signal = %v, want config", first)
	}
	if _, ok := second.(kernel.ProducerFinished); !ok {
		t.Fatalf("second signal = %v, want ProducerFinished", second)
	}
	if !f.Stopped() {
		t.Fatal("forwarder still running")
	}
}
