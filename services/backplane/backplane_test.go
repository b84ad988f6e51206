package backplane

import (
	"context"
	"errors"
	"testing"

	"axon/kernel"
	"axon/services/basic"
)

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

func run(t *testing.T, s *kernel.Scheduler) {
	t.Helper()
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(100))
	reg := NewRegistry()
	plane, err := NewBackplane(reg, "news")
	if err != nil {
		t.Fatalf("NewBackplane: %v", err)
	}
	pub, err := NewPublisher(reg, "news")
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	po := kernel.NewPostOffice("test")
	var cols []*basic.Collector
	for _, name := range []string{"one", "two"} {
		sub, err := NewSubscriber(reg, "news")
		if err != nil {
			t.Fatalf("NewSubscriber: %v", err)
		}
		col := basic.NewCollector(name, nil)
		if _, err := po.Link(kernel.At(sub, kernel.Outbox), kernel.At(col, kernel.Inbox)); err != nil {
			t.Fatalf("Link: %v", err)
		}
		s.Activate(sub)
		s.Activate(col)
		cols = append(cols, col)
	}
	s.Activate(plane)
	s.Activate(pub)

	src := basic.NewSource("src", "a", "b")
	if _, err := po.Link(kernel.At(src, kernel.Outbox), kernel.At(pub, kernel.Inbox)); err != nil {
		t.Fatalf("Link(src): %v", err)
	}
	s.Activate(src)
	run(t, s)

	for _, col := range cols {
		if !equalAny(col.Got(), []any{"a", "b"}) {
			t.Fatalf("%s got %v, want [a b]", col.Name(), col.Got())
		}
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	if _, err := NewBackplane(reg, "x"); err != nil {
		t.Fatalf("NewBackplane: %v", err)
	}
	if _, err := NewBackplane(reg, "x"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("duplicate err = %v, want ErrNameTaken", err)
	}
	anon, err := NewBackplane(reg, "")
	if err != nil {
		t.Fatalf("NewBackplane(\"\"): %v", err)
	}
	if anon.Name() == "" {
		t.Fatal("anonymous backplane has no name")
	}
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if _, err := NewPublisher(reg, "missing"); !errors.Is(err, ErrNoBackplane) {
		t.Fatalf("NewPublisher err = %v, want ErrNoBackplane", err)
	}
	if _, err := NewSubscriber(reg, "missing"); !errors.Is(err, ErrNoBackplane) {
		t.Fatalf("NewSubscriber err = %v, want ErrNoBackplane", err)
	}
}

func TestShutdownUnregistersAndDetaches(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(100))
	reg := NewRegistry()
	plane, _ := NewBackplane(reg, "bus")
	sub, _ := NewSubscriber(reg, "bus")
	s.Activate(plane)
	s.Activate(sub)

	_ = sub.Deliver(kernel.ProducerFinished{}, kernel.Control)
	run(t, s)
	if !sub.Stopped() {
		t.Fatal("subscriber still running")
	}
	if plane.Sinks() != 0 {
		t.Fatalf("Sinks() = %d after subscriber left", plane.Sinks())
	}

	_ = plane.Deliver(kernel.ShutdownMicroprocess{}, kernel.Control)
	run(t, s)
	if _, ok := reg.Lookup("bus"); ok {
		t.Fatal("stopped backplane still registered")
	}
}
