package kernel

import (
	"fmt"
	"strconv"
)

// AdaptiveComponent is a component whose box set can grow and shrink while it
// runs.
type AdaptiveComponent struct {
	Component
	seq int
}

// AddInbox creates a new inbox whose name starts with prefix and returns the
// name chosen.
func (a *AdaptiveComponent) AddInbox(prefix string) string {
	return a.add(prefix, In)
}

// AddOutbox creates a new outbox whose name starts with prefix and returns the
// name chosen.
func (a *AdaptiveComponent) AddOutbox(prefix string) string {
	return a.add(prefix, Out)
}

func (a *AdaptiveComponent) add(prefix string, dir Direction) string {
	a.ensure()
	boxes := a.inboxes
	if dir == Out {
		boxes = a.outboxes
	}
	name := prefix
	for {
		if _, taken := boxes[name]; !taken {
			break
		}
		a.seq++
		name = prefix + strconv.Itoa(a.seq)
	}
	a.addBox(name, dir)
	return name
}

// DeleteBox removes a box and every linkage in this component's post office
// that uses it. Queued messages are discarded.
func (a *AdaptiveComponent) DeleteBox(name string, dir Direction) error {
	b, err := a.box(name, dir)
	if err != nil {
		return err
	}
	for _, l := range a.post.Linkages() {
		if l.srcBox == b || l.dstBox == b {
			a.post.Unlink(l)
		}
	}
	if b.target != nil {
		return fmt.Errorf("%w: %s is still linked by another post office", ErrAlreadyLinked, b)
	}
	if dir == In {
		delete(a.inboxes, name)
		for i, n := range a.inOrder {
			if n == name {
				a.inOrder = append(a.inOrder[:i], a.inOrder[i+1:]...)
				break
			}
		}
	} else {
		delete(a.outboxes, name)
	}
	b.owner = nil
	return nil
}
