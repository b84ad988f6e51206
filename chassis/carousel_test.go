package chassis

import (
	"testing"

	"axon/kernel"
)

func TestCarouselReplacesChild(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(100))
	var made []*mapper
	car := NewCarousel("car", func(msg any) kernel.Process {
		prefix := msg.(string)
		m := newMapper(prefix, func(v any) any { return prefix + ":" + v.(string) })
		made = append(made, m)
		return m
	})
	s.Activate(car)

	_ = car.Deliver("A", Next)
	run(t, s)
	_ = car.Deliver("x", kernel.Inbox)
	run(t, s)

	_ = car.Deliver("B", Next)
	run(t, s)
	_ = car.Deliver("y", kernel.Inbox)
	run(t, s)

	if got := drain(&car.Component, kernel.Outbox); !equalAny(got, []any{"A:x", "B:y"}) {
		t.Fatalf("outbox = %v, want [A:x B:y]", got)
	}
	if len(made) != 2 || !made[0].Stopped() || made[1].Stopped() {
		t.Fatalf("children = %d, first stopped=%v", len(made), len(made) > 0 && made[0].Stopped())
	}
	if car.Child() != kernel.Process(made[1]) {
		t.Fatal("current child is not the replacement")
	}
	if car.OutReady(RequestNext) {
		t.Fatal("carousel requested a child while replacements were queued")
	}

	_ = car.Deliver(kernel.ProducerFinished{Caller: "test"}, kernel.Control)
	run(t, s)
	if !made[1].Stopped() || !car.Stopped() {
		t.Fatal("carousel did not shut down with its child")
	}
	if _, err := car.Collect(kernel.Signal); err != nil {
		t.Fatalf("Collect(signal): %v", err)
	}
}

func TestCarouselHoldsInputBetweenChildren(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(100))
	var made []*mapper
	car := NewCarousel("car", func(msg any) kernel.Process {
		prefix := msg.(string)
		m := newMapper(prefix, func(v any) any { return prefix + ":" + v.(string) })
		made = append(made, m)
		return m
	})
	s.Activate(car)
	_ = car.Deliver("A", Next)
	run(t, s)

	_ = car.Deliver("B", Next)
	for i := 0; i < 10 && !made[0].Stopped(); i++ {
		s.RunOneRound()
	}
	if !made[0].Stopped() || len(made) != 1 {
		t.Fatalf("old child stopped=%v, children made=%d", made[0].Stopped(), len(made))
	}

	_ = car.Deliver("y", kernel.Inbox)
	if made[0].DataReady(kernel.Inbox) {
		t.Fatal("message reached the stopped child")
	}
	run(t, s)

	if got := drain(&car.Component, kernel.Outbox); !equalAny(got, []any{"B:y"}) {
		t.Fatalf("outbox = %v, want [B:y]", got)
	}
}

func TestCarouselRequestsNext(t *testing.T) {
	s := kernel.New(kernel.WithMaxRounds(100))
	car := NewCarousel("car", func(msg any) kernel.Process { return newOnce(msg) }, WithFirstRequest())
	s.Activate(car)
	run(t, s)

	if got := drain(&car.Component, RequestNext); !equalAny(got, []any{NextRequest}) {
		t.Fatalf("first requests = %v, want [NEXT]", got)
	}

	_ = car.Deliver("one", Next)
	run(t, s)
	if got := drain(&car.Component, kernel.Outbox); !equalAny(got, []any{"one"}) {
		t.Fatalf("outbox = %v, want [one]", got)
	}
	if got := drain(&car.Component, RequestNext); !equalAny(got, []any{NextRequest}) {
		t.Fatalf("requests after child finished = %v, want [NEXT]", got)
	}
	if car.Child() != nil {
		t.Fatal("finished child still current")
	}
}
