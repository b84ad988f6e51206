package hal

import (
	"sync"
	"time"
)

// TickDuration is the wall-clock length of one host tick.
const TickDuration = time.Millisecond

// ManualTime is a Time whose ticks are produced by Advance. Ticks that find the
// channel full are dropped; the sequence number still moves on.
type ManualTime struct {
	mu  sync.Mutex
	ch  chan uint64
	seq uint64
}

// NewManualTime returns a tick source buffering up to buf ticks.
func NewManualTime(buf int) *ManualTime {
	if buf <= 0 {
		buf = 1
	}
	return &ManualTime{ch: make(chan uint64, buf)}
}

func (t *ManualTime) Ticks() <-chan uint64 { return t.ch }

// Now returns the last tick issued.
func (t *ManualTime) Now() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Advance issues n ticks and returns the new sequence number.
func (t *ManualTime) Advance(n uint64) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
	return t.seq
}

// hostTime converts elapsed wall time into TickDuration ticks each frame.
type hostTime struct {
	*ManualTime

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ManualTime: NewManualTime(1024)}
}

func (t *hostTime) step(n uint64) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.Advance(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / TickDuration)
	if ticks == 0 {
		return
	}
	t.acc %= TickDuration
	t.Advance(ticks)
}
