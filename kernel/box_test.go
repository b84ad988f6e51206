package kernel

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBoxRecvEmpty(t *testing.T) {
	b := NewBox("inbox", In)

	if b.DataReady() {
		t.Fatal("DataReady() = true on a new box")
	}
	if _, err := b.Recv(); !errors.Is(err, ErrEmptyMailbox) {
		t.Fatalf("Recv() err = %v, want ErrEmptyMailbox", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Len() = %d after failed Recv, want 0", b.Len())
	}
}

func TestBoxFIFO(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		rng := rand.New(rand.NewSource(seed))
		b := NewBox("inbox", In)
		var model []int
		next := 0

		for op := 0; op < 2000; op++ {
			if rng.Intn(3) > 0 {
				if err := b.Send(next); err != nil {
					t.Fatalf("seed %d: Send(%d): %v", seed, next, err)
				}
				model = append(model, next)
				next++
				continue
			}
			msg, err := b.Recv()
			if len(model) == 0 {
				if !errors.Is(err, ErrEmptyMailbox) {
					t.Fatalf("seed %d: Recv() on empty err = %v", seed, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("seed %d: Recv(): %v", seed, err)
			}
			if msg != model[0] {
				t.Fatalf("seed %d: Recv() = %v, want %d", seed, msg, model[0])
			}
			model = model[1:]
		}
		if b.Len() != len(model) {
			t.Fatalf("seed %d: Len() = %d, want %d", seed, b.Len(), len(model))
		}
	}
}

func TestBoxBoundPolicies(t *testing.T) {
	tests := []struct {
		policy  Policy
		want    []any
		dropped uint64
		errs    int
	}{
		{policy: DropNewest, want: []any{1, 2}, dropped: 2},
		{policy: DropOldest, want: []any{3, 4}, dropped: 2},
		{policy: Reject, want: []any{1, 2}, errs: 2},
	}

	for _, tt := range tests {
		b := NewBox("inbox", In)
		b.SetBound(&Bound{Capacity: 2, Policy: tt.policy})

		errs := 0
		for i := 1; i <= 4; i++ {
			if err := b.Send(i); err != nil {
				if !errors.Is(err, ErrBoxFull) {
					t.Fatalf("%s: Send(%d) err = %v", tt.policy, i, err)
				}
				errs++
			}
		}

		var got []any
		for b.DataReady() {
			msg, _ := b.Recv()
			got = append(got, msg)
		}
		if !equalAny(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.policy, got, tt.want)
		}
		if b.Dropped() != tt.dropped {
			t.Fatalf("%s: Dropped() = %d, want %d", tt.policy, b.Dropped(), tt.dropped)
		}
		if errs != tt.errs {
			t.Fatalf("%s: %d errors, want %d", tt.policy, errs, tt.errs)
		}
	}
}

func TestBoxSetBoundNilRemovesLimit(t *testing.T) {
	b := NewBox("inbox", In)
	b.SetBound(&Bound{Capacity: 1, Policy: Reject})
	_ = b.Send(1)
	b.SetBound(nil)
	if err := b.Send(2); err != nil {
		t.Fatalf("Send() after removing bound: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

func TestQueueCompaction(t *testing.T) {
	var q queue
	for i := 0; i < 500; i++ {
		q.push(i)
	}
	for i := 0; i < 400; i++ {
		msg, ok := q.pop()
		if !ok || msg != i {
			t.Fatalf("pop() = %v, %v, want %d", msg, ok, i)
		}
	}
	if q.len() != 100 {
		t.Fatalf("len() = %d, want 100", q.len())
	}
	if head, _ := q.peek(); head != 400 {
		t.Fatalf("peek() = %v, want 400", head)
	}
}
