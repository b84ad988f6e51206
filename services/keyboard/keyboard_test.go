package keyboard

import (
	"testing"

	"axon/hal"
	"axon/kernel"
)

type fakeKeyboard struct {
	ch chan hal.KeyEvent
}

func (k *fakeKeyboard) Events() <-chan hal.KeyEvent { return k.ch }

func TestForwardsEventsUntilEscape(t *testing.T) {
	s := kernel.New()
	kbd := &fakeKeyboard{ch: make(chan hal.KeyEvent, 8)}
	svc := New("kbd", kbd)
	s.Activate(svc)

	kbd.ch <- hal.KeyEvent{Code: hal.KeyUp, Press: true}
	kbd.ch <- hal.KeyEvent{Rune: 'x', Press: true}
	s.RunOneRound()

	first, _ := svc.Collect(kernel.Outbox)
	second, _ := svc.Collect(kernel.Outbox)
	if first != (hal.KeyEvent{Code: hal.KeyUp, Press: true}) || second.(hal.KeyEvent).Rune != 'x' {
		t.Fatalf("events = %v, %v", first, second)
	}
	if st, _ := s.State(svc.ID()); st != kernel.Paused {
		t.Fatalf("state = %v, want paused", st)
	}

	kbd.ch <- hal.KeyEvent{Code: hal.KeyEscape, Press: true}
	kbd.ch <- hal.KeyEvent{Code: hal.KeyDown, Press: true}
	s.Wake(svc.ID())
	s.RunOneRound()

	if !svc.Stopped() {
		t.Fatal("Escape did not stop the service")
	}
	sig, _ := svc.Collect(kernel.Signal)
	if sm, ok := sig.(kernel.ShutdownMicroprocess); !ok || sm.Caller != "kbd" {
		t.Fatalf("signal = %v, want ShutdownMicroprocess from kbd", sig)
	}
	if svc.OutReady(kernel.Outbox) {
		t.Fatal("events after Escape were forwarded")
	}
}

func TestClosedOrMissingKeyboard(t *testing.T) {
	s := kernel.New()
	none := New("none", nil)
	kbd := &fakeKeyboard{ch: make(chan hal.KeyEvent)}
	close(kbd.ch)
	closed := New("closed", kbd)
	s.Activate(none)
	s.Activate(closed)
	s.RunOneRound()

	if none.Stopped() {
		t.Fatal("service without a keyboard stopped")
	}
	if !closed.Stopped() {
		t.Fatal("service with a closed keyboard still running")
	}
	sig, _ := closed.Collect(kernel.Signal)
	if _, ok := sig.(kernel.ProducerFinished); !ok {
		t.Fatalf("signal = %v, want ProducerFinished", sig)
	}
}
