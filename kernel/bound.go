package kernel

import "fmt"

// Policy decides what a bounded box does with a message that arrives when the
// box is already at capacity.
type Policy uint8

const (
	// DropNewest discards the arriving message.
	DropNewest Policy = iota + 1
	// DropOldest discards the message at the head of the box, then appends.
	DropOldest
	// Reject refuses the message; the sender gets ErrBoxFull.
	Reject
)

func (p Policy) String() string {
	switch p {
	case DropNewest:
		return "drop_newest"
	case DropOldest:
		return "drop_oldest"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Bound caps the number of messages a box holds.
//
// Boxes are unbounded unless a Bound is installed, either with Box.SetBound
// or with the WithBound link option on the sink of a linkage.
type Bound struct {
	Capacity int
	Policy   Policy
}

// admit applies the bound to q before a push. It reports whether the new
// message should be appended and whether an existing one was dropped.
func (b *Bound) admit(q *queue) (push bool, dropped bool, err error) {
	if b == nil || b.Capacity <= 0 || q.len() < b.Capacity {
		return true, false, nil
	}
	switch b.Policy {
	case DropOldest:
		q.pop()
		return true, true, nil
	case Reject:
		return false, false, ErrBoxFull
	default:
		return false, true, nil
	}
}

func (b Bound) String() string {
	return fmt.Sprintf("%d/%s", b.Capacity, b.Policy)
}
