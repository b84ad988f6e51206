package threaded

import (
	"context"
	"errors"
	"testing"
	"time"

	"axon/kernel"
)

const testTimeout = 5 * time.Second

func runBounded(t *testing.T, s *kernel.Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func doubler(ctx context.Context, h *kernel.Handoff) error {
	for {
		msg, err := h.Take(ctx)
		if errors.Is(err, kernel.ErrHandoffClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := h.Emit(msg.(int) * 2); err != nil {
			return err
		}
	}
}

func TestWorkerRoundTrip(t *testing.T) {
	s := kernel.New()
	c := New("double", doubler)
	s.Activate(c)
	for _, v := range []int{1, 2, 3} {
		_ = c.Deliver(v, kernel.Inbox)
	}
	_ = c.Deliver(kernel.ProducerFinished{}, kernel.Control)
	runBounded(t, s)

	var got []any
	for c.OutReady(kernel.Outbox) {
		msg, _ := c.Collect(kernel.Outbox)
		got = append(got, msg)
	}
	want := []any{2, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("outbox = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outbox = %v, want %v", got, want)
		}
	}
	if !c.Stopped() {
		t.Fatal("component still running")
	}
	sig, _ := c.Collect(kernel.Signal)
	if _, ok := sig.(kernel.ProducerFinished); !ok {
		t.Fatalf("signal = %v, want ProducerFinished", sig)
	}
}

func TestUrgentShutdownCancelsWorker(t *testing.T) {
	c := New("blocked", func(ctx context.Context, h *kernel.Handoff) error {
		<-ctx.Done()
		return ctx.Err()
	})
	var faults int
	s := kernel.New(kernel.WithFaultHandler(func(*kernel.TaskFault) { faults++ }))
	s.Activate(c)
	_ = c.Deliver("ignored", kernel.Inbox)
	_ = c.Deliver(kernel.ShutdownMicroprocess{}, kernel.Control)
	runBounded(t, s)

	if faults != 0 {
		t.Fatalf("faults = %d, want 0", faults)
	}
	sig, _ := c.Collect(kernel.Signal)
	if _, ok := sig.(kernel.ShutdownMicroprocess); !ok {
		t.Fatalf("signal = %v, want ShutdownMicroprocess", sig)
	}
	if !c.Handoff().Closed() {
		t.Fatal("handoff left open")
	}
}

func TestWorkerErrorFaultsComponent(t *testing.T) {
	boom := errors.New("boom")
	var fault *kernel.TaskFault
	s := kernel.New(kernel.WithFaultHandler(func(f *kernel.TaskFault) { fault = f }))
	c := New("failing", func(context.Context, *kernel.Handoff) error { return boom })
	s.Activate(c)
	runBounded(t, s)

	if fault == nil {
		t.Fatal("no fault reported")
	}
	if !errors.Is(fault, boom) {
		t.Fatalf("fault = %v, want wrapping boom", fault)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after fault", s.Len())
	}
}
