package kernel

import (
	"context"
	"errors"
	"testing"
)

func TestGeneratorYieldsOneStepAtATime(t *testing.T) {
	s := New()
	var trace []uint64
	g := NewGenerator("counter", func(y *Yielder) error {
		for i := 0; i < 3; i++ {
			trace = append(trace, y.Context().Round())
			y.Yield()
		}
		return nil
	})
	id := s.Activate(g)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []uint64{1, 2, 3}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
	if st, _ := s.State(id); st != Terminated {
		t.Fatalf("State() = %s, want terminated", st)
	}
	if s.Rounds() != 4 {
		t.Fatalf("Rounds() = %d, want 4", s.Rounds())
	}
}

func TestGeneratorPauseWaitsForWake(t *testing.T) {
	s := New()
	resumed := false
	id := s.Activate(NewGenerator("waiter", func(y *Yielder) error {
		y.Pause()
		resumed = true
		return nil
	}))

	for i := 0; i < 3; i++ {
		s.RunOneRound()
	}
	if resumed {
		t.Fatal("generator resumed without a wake")
	}
	if st, _ := s.State(id); st != Paused {
		t.Fatalf("State() = %s, want paused", st)
	}

	s.Wake(id)
	s.RunOneRound()
	if !resumed {
		t.Fatal("generator did not resume after wake")
	}
}

func TestGeneratorErrorAndPanicAreFaults(t *testing.T) {
	errBody := errors.New("body failed")
	var faults []*TaskFault
	s := New(WithFaultHandler(func(f *TaskFault) { faults = append(faults, f) }))

	s.Activate(NewGenerator("fails", func(y *Yielder) error {
		y.Yield()
		return errBody
	}))
	s.Activate(NewGenerator("panics", func(y *Yielder) error {
		panic("generator boom")
	}))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(faults) != 2 {
		t.Fatalf("faults = %d, want 2", len(faults))
	}
	if faults[0].Name != "panics" || faults[0].Value != "generator boom" || len(faults[0].Stack) == 0 {
		t.Fatalf("first fault = %+v", faults[0])
	}
	if faults[1].Name != "fails" || !errors.Is(faults[1], errBody) {
		t.Fatalf("second fault = %+v", faults[1])
	}
}

func TestGeneratorRemovedIsUnwound(t *testing.T) {
	s := New()
	exited := make(chan struct{})
	id := s.Activate(NewGenerator("forever", func(y *Yielder) error {
		defer close(exited)
		for {
			y.Yield()
		}
	}))

	s.RunOneRound()
	s.RunOneRound()
	if !s.Remove(id) {
		t.Fatal("Remove = false")
	}
	recvWithTimeout(t, (<-chan struct{})(exited))
}

func TestCloseUnwindsParkedGenerators(t *testing.T) {
	s := New()
	exited := make(chan struct{})
	s.Activate(NewGenerator("parked", func(y *Yielder) error {
		defer close(exited)
		y.Pause()
		return nil
	}))
	s.Activate(newEcho("echo"))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d after Run, want 2", s.Len())
	}
	if n := s.Close(); n != 2 {
		t.Fatalf("Close() = %d, want 2", n)
	}
	recvWithTimeout(t, (<-chan struct{})(exited))
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after Close", s.Len())
	}
}
