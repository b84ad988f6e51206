package kernel

import "fmt"

// Conventional box names.
const (
	Inbox   = "inbox"
	Control = "control"
	Outbox  = "outbox"
	Signal  = "signal"
)

// Direction says whether a box is read by its owner (In) or written (Out).
type Direction uint8

const (
	In Direction = iota + 1
	Out
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "unknown"
	}
}

// Box is a named FIFO of messages owned by one component.
//
// A box may be linked onward to another box. Messages sent into a linked box
// are pushed along the chain of targets to the final sink, so a box that feeds
// a linkage never holds messages of its own.
type Box struct {
	name  string
	dir   Direction
	owner *Component

	q       queue
	bound   *Bound
	dropped uint64

	target  *Box
	sources []*Box
}

// NewBox returns a standalone box with no owner.
func NewBox(name string, dir Direction) *Box {
	return &Box{name: name, dir: dir}
}

func (b *Box) Name() string         { return b.name }
func (b *Box) Direction() Direction { return b.dir }

// Len returns the number of messages held locally.
func (b *Box) Len() int { return b.q.len() }

// DataReady reports whether the box holds at least one message.
func (b *Box) DataReady() bool { return b.q.len() > 0 }

// Dropped returns how many messages the box's bound has discarded.
func (b *Box) Dropped() uint64 { return b.dropped }

// Linked reports whether the box currently feeds another box.
func (b *Box) Linked() bool { return b.target != nil }

// SetBound installs (or, with nil, removes) a capacity limit.
func (b *Box) SetBound(bound *Bound) {
	b.bound = bound
}

// Send appends msg to the final sink of the box's linkage chain and wakes the
// sink's owner. It never blocks.
//
// The bound nearest the sink along the chain caps the sink, so a bound placed
// on a forwarding box still applies to the messages stored behind it.
func (b *Box) Send(msg any) error {
	sink, limit := b.route()
	return sink.deliver(msg, limit)
}

// Recv removes and returns the oldest message. It fails with ErrEmptyMailbox
// when DataReady is false.
func (b *Box) Recv() (any, error) {
	msg, ok := b.q.pop()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMailbox, b.name)
	}
	return msg, nil
}

// Peek returns the oldest message without removing it.
func (b *Box) Peek() (any, bool) {
	return b.q.peek()
}

func (b *Box) String() string {
	if b.owner != nil {
		return b.owner.name + "." + b.name
	}
	return b.name
}

// route returns the final sink of b's chain and the box whose bound governs
// it, or nil when no box along the chain is bounded.
func (b *Box) route() (sink, limit *Box) {
	for s := b; ; s = s.target {
		if s.bound != nil {
			limit = s
		}
		if s.target == nil {
			return s, limit
		}
	}
}

// deliver pushes msg into b under the bound held by limit. Drops are counted
// on limit.
func (b *Box) deliver(msg any, limit *Box) error {
	var bound *Bound
	if limit != nil {
		bound = limit.bound
	}
	push, dropped, err := bound.admit(&b.q)
	if dropped {
		limit.dropped++
		limit.owner.recordDrop()
	}
	if err != nil {
		return fmt.Errorf("%w: %s", err, b)
	}
	if !push {
		return nil
	}
	b.q.push(msg)
	b.owner.recordDelivery()
	if b.dir == In {
		b.owner.wake()
	}
	return nil
}

// addSource makes src feed b. Messages already held by src move to b's sink
// in order.
func (b *Box) addSource(src *Box) error {
	if src.target != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, src)
	}
	for s := b; s != nil; s = s.target {
		if s == src {
			return fmt.Errorf("%w: %s -> %s", ErrLinkCycle, src, b)
		}
	}
	src.target = b
	b.sources = append(b.sources, src)

	sink, limit := b.route()
	for {
		msg, ok := src.q.pop()
		if !ok {
			break
		}
		// A Reject bound cannot push back on a flush; the message is dropped
		// the same way DropNewest would.
		if err := sink.deliver(msg, limit); err != nil {
			limit.dropped++
			limit.owner.recordDrop()
		}
	}
	return nil
}

func (b *Box) removeSource(src *Box) bool {
	for i, s := range b.sources {
		if s != src {
			continue
		}
		b.sources = append(b.sources[:i], b.sources[i+1:]...)
		src.target = nil
		return true
	}
	return false
}
