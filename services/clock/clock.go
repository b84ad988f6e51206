// Package clock turns the host tick stream into messages.
package clock

import (
	"axon/hal"
	"axon/kernel"
)

// WakeBox is the outbox that carries Wake replies.
const WakeBox = "wake"

// Sleep asks the clock to send Wake{ID} after Ticks ticks. Zero ticks wake on
// the step that reads the request.
type Sleep struct {
	ID    uint32
	Ticks uint64
}

// Wake answers a Sleep.
type Wake struct {
	ID uint32
}

// Tick reports the latest tick sequence number seen by the clock.
type Tick struct {
	Seq uint64
}

type sleeper struct {
	due uint64
	id  uint32
}

// Clock reads pending ticks each time it is stepped and pauses in between;
// the host wakes it once per frame. It sends Tick on "outbox" when the tick
// count moved and "outbox" is linked, and answers Sleep requests on "wake".
type Clock struct {
	kernel.Component

	ht       hal.Time
	now      uint64
	told     uint64
	sleepers []sleeper
}

func New(name string, ht hal.Time) *Clock {
	c := &Clock{ht: ht}
	c.Init(name, kernel.DefaultBoxes().WithOutboxes(WakeBox))
	return c
}

// Now returns the last tick seen.
func (c *Clock) Now() uint64 { return c.now }

// Pending returns the number of outstanding Sleep requests.
func (c *Clock) Pending() int { return len(c.sleepers) }

func (c *Clock) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := c.CheckControl(); ok {
		return c.Finish(sig)
	}
	c.drainTicks()

	for c.DataReady(kernel.Inbox) {
		msg, _ := c.Recv(kernel.Inbox)
		req, ok := msg.(Sleep)
		if !ok {
			ctx.Logger().Debug("Clock ignored message", "msg", msg)
			continue
		}
		c.sleepers = append(c.sleepers, sleeper{due: c.now + req.Ticks, id: req.ID})
	}
	c.wakeReady()

	if c.now != c.told && c.Outbox(kernel.Outbox).Linked() {
		c.told = c.now
		_ = c.Send(Tick{Seq: c.now}, kernel.Outbox)
	}
	ctx.Pause()
	return kernel.Continue
}

func (c *Clock) drainTicks() {
	if c.ht == nil {
		return
	}
	ch := c.ht.Ticks()
	if ch == nil {
		return
	}
	for {
		select {
		case seq := <-ch:
			c.now = seq
		default:
			return
		}
	}
}

func (c *Clock) wakeReady() {
	kept := c.sleepers[:0]
	for _, sl := range c.sleepers {
		if sl.due > c.now {
			kept = append(kept, sl)
			continue
		}
		_ = c.Send(Wake{ID: sl.id}, WakeBox)
	}
	c.sleepers = kept
}

// Sleeper is a deadline a component checks against Clock.Now on each step.
type Sleeper struct {
	due   uint64
	armed bool
}

// Arm sets the deadline ticks after now.
func (s *Sleeper) Arm(now, ticks uint64) {
	s.due, s.armed = now+ticks, true
}

// Disarm clears the deadline.
func (s *Sleeper) Disarm() { s.armed = false }

// Armed reports whether a deadline is set.
func (s *Sleeper) Armed() bool { return s.armed }

// Expired reports whether the deadline has passed, and disarms it if so.
func (s *Sleeper) Expired(now uint64) bool {
	if !s.armed || now < s.due {
		return false
	}
	s.armed = false
	return true
}
