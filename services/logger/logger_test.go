package logger

import (
	"context"
	"testing"

	"axon/kernel"
)

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }
func (l *lines) WriteLineBytes(b []byte)  { *l = append(*l, string(b)) }

func TestWritesEachMessage(t *testing.T) {
	var out lines
	s := kernel.New()
	svc := New("log", &out)
	s.Activate(svc)

	_ = svc.Deliver("plain", kernel.Inbox)
	_ = svc.Deliver([]byte("bytes"), kernel.Inbox)
	_ = svc.Deliver(42, kernel.Inbox)
	_ = svc.Deliver(kernel.ProducerFinished{Caller: "src"}, kernel.Inbox)
	_ = svc.Deliver(kernel.ProducerFinished{}, kernel.Control)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"plain", "bytes", "42", "producerFinished(src)"}
	if len(out) != len(want) {
		t.Fatalf("lines = %q, want %q", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("lines = %q, want %q", out, want)
		}
	}
	if !svc.Stopped() {
		t.Fatal("logger still running")
	}
}

func TestUrgentShutdownDropsPending(t *testing.T) {
	var out lines
	s := kernel.New()
	svc := New("log", &out)
	s.Activate(svc)
	_ = svc.Deliver("never", kernel.Inbox)
	_ = svc.Deliver(kernel.ShutdownMicroprocess{}, kernel.Control)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("lines = %q, want none", out)
	}
}
