package kernel

import (
	"fmt"
	"slices"
)

// Boxes declares the inboxes and outboxes of a component.
type Boxes struct {
	Inboxes  []string
	Outboxes []string
}

// DefaultBoxes returns the conventional box set: "inbox" and "control" in,
// "outbox" and "signal" out.
func DefaultBoxes() Boxes {
	return Boxes{
		Inboxes:  []string{Inbox, Control},
		Outboxes: []string{Outbox, Signal},
	}
}

// WithInboxes returns a copy of b with extra inboxes.
func (b Boxes) WithInboxes(names ...string) Boxes {
	b.Inboxes = append(slices.Clone(b.Inboxes), names...)
	return b
}

// WithOutboxes returns a copy of b with extra outboxes.
func (b Boxes) WithOutboxes(names ...string) Boxes {
	b.Outboxes = append(slices.Clone(b.Outboxes), names...)
	return b
}

// Mailboxed is implemented by every type that embeds Component.
type Mailboxed interface {
	component() *Component
}

// Process is a schedulable component.
type Process interface {
	Task
	Mailboxed
}

// Component provides named boxes, linkage management and child bookkeeping.
//
// Embed Component in a struct that implements Step and call Init from its
// constructor. A component that is never initialised gets DefaultBoxes and
// its type name when first used.
type Component struct {
	name     string
	inboxes  map[string]*Box
	outboxes map[string]*Box
	inOrder  []string

	post     PostOffice
	children []Process
	parent   *Component

	sched    *Scheduler
	id       TaskID
	stopped  bool
	shutdown Shutdown
}

func (c *Component) component() *Component { return c }

// ComponentOf returns the Component embedded in m.
func ComponentOf(m Mailboxed) *Component { return m.component() }

// Init declares the component's name and boxes. Calling Init again replaces
// the box set and drops any queued messages.
func (c *Component) Init(name string, boxes Boxes) {
	c.name = name
	c.inboxes = make(map[string]*Box, len(boxes.Inboxes))
	c.outboxes = make(map[string]*Box, len(boxes.Outboxes))
	c.inOrder = c.inOrder[:0]
	for _, n := range boxes.Inboxes {
		c.addBox(n, In)
	}
	for _, n := range boxes.Outboxes {
		c.addBox(n, Out)
	}
	c.post.name = name
}

func (c *Component) ensure() {
	if c.inboxes == nil {
		c.Init(c.name, DefaultBoxes())
	}
}

func (c *Component) addBox(name string, dir Direction) *Box {
	b := &Box{name: name, dir: dir, owner: c}
	if dir == In {
		if _, dup := c.inboxes[name]; !dup {
			c.inOrder = append(c.inOrder, name)
		}
		c.inboxes[name] = b
	} else {
		c.outboxes[name] = b
	}
	return b
}

func (c *Component) bind(s *Scheduler, id TaskID, name string) {
	c.ensure()
	c.sched = s
	c.id = id
	c.stopped = false
	if c.name == "" {
		c.name = name
		c.post.name = name
	}
}

func (c *Component) terminated() {
	c.stopped = true
	c.post.UnlinkAll()
	if p := c.parent; p != nil {
		// The parent's links into and out of c go with it.
		p.post.UnlinkComponent(c)
		p.wake()
	}
}

func (c *Component) wake() {
	if c == nil || c.sched == nil || c.stopped {
		return
	}
	c.sched.Wake(c.id)
}

func (c *Component) recordDelivery() {
	if c == nil || c.sched == nil {
		return
	}
	m := c.sched.metrics
	m.deliveries.Add(m.ctx, 1, m.attrs)
}

func (c *Component) recordDrop() {
	if c == nil || c.sched == nil {
		return
	}
	m := c.sched.metrics
	m.drops.Add(m.ctx, 1, m.attrs)
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// ID returns the task ID assigned at activation, or 0.
func (c *Component) ID() TaskID { return c.id }

// Stopped reports whether the component's task has terminated.
func (c *Component) Stopped() bool { return c.stopped }

// Activated reports whether the component is registered with a scheduler.
func (c *Component) Activated() bool { return c.sched != nil && !c.stopped }

// Inbox returns the named inbox, or nil.
func (c *Component) Inbox(name string) *Box {
	c.ensure()
	return c.inboxes[name]
}

// Outbox returns the named outbox, or nil.
func (c *Component) Outbox(name string) *Box {
	c.ensure()
	return c.outboxes[name]
}

func (c *Component) box(name string, dir Direction) (*Box, error) {
	var b *Box
	if dir == In {
		b = c.Inbox(name)
	} else {
		b = c.Outbox(name)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s has no %sbox %q", ErrUnknownBox, c.name, dir, name)
	}
	return b, nil
}

// Send puts msg on one of the component's own outboxes.
func (c *Component) Send(msg any, outbox string) error {
	b, err := c.box(outbox, Out)
	if err != nil {
		return err
	}
	return b.Send(msg)
}

// Recv takes the oldest message from one of the component's own inboxes.
func (c *Component) Recv(inbox string) (any, error) {
	b, err := c.box(inbox, In)
	if err != nil {
		return nil, err
	}
	return b.Recv()
}

// DataReady reports whether the named inbox holds data. Unknown names report
// false.
func (c *Component) DataReady(inbox string) bool {
	b := c.Inbox(inbox)
	return b != nil && b.DataReady()
}

// AnyReady reports whether any inbox holds data.
func (c *Component) AnyReady() bool {
	c.ensure()
	for _, n := range c.inOrder {
		if c.inboxes[n].DataReady() {
			return true
		}
	}
	return false
}

// Deliver puts msg into one of the component's inboxes from outside the
// component, as a linkage would.
func (c *Component) Deliver(msg any, inbox string) error {
	b, err := c.box(inbox, In)
	if err != nil {
		return err
	}
	return b.Send(msg)
}

// Collect takes the oldest message held by an unlinked outbox.
func (c *Component) Collect(outbox string) (any, error) {
	b, err := c.box(outbox, Out)
	if err != nil {
		return nil, err
	}
	return b.Recv()
}

// OutReady reports whether the named outbox holds uncollected data.
func (c *Component) OutReady(outbox string) bool {
	b := c.Outbox(outbox)
	return b != nil && b.DataReady()
}

// Link creates a linkage registered with the component's post office.
func (c *Component) Link(src, dst Endpoint, opts ...LinkOption) (*Linkage, error) {
	c.ensure()
	return c.post.Link(src, dst, opts...)
}

// Unlink removes a linkage made by this component.
func (c *Component) Unlink(l *Linkage) bool {
	return c.post.Unlink(l)
}

// PostOffice returns the component's own post office.
func (c *Component) PostOffice() *PostOffice { return &c.post }

// AddChildren records children for lifecycle purposes. It does not activate
// them.
func (c *Component) AddChildren(children ...Process) {
	for _, ch := range children {
		cc := ch.component()
		if cc.parent == c {
			continue
		}
		cc.parent = c
		c.children = append(c.children, ch)
	}
}

// RemoveChild forgets child and removes every linkage in this component's
// post office that touches it.
func (c *Component) RemoveChild(child Mailboxed) {
	cc := child.component()
	for i, ch := range c.children {
		if ch.component() != cc {
			continue
		}
		c.children = append(c.children[:i], c.children[i+1:]...)
		break
	}
	c.post.UnlinkComponent(child)
	if cc.parent == c {
		cc.parent = nil
	}
}

// Children returns the current children.
func (c *Component) Children() []Process {
	return slices.Clone(c.children)
}

// ChildrenDone removes children that have terminated and reports whether none
// are left.
func (c *Component) ChildrenDone() bool {
	for _, ch := range c.Children() {
		if ch.component().stopped {
			c.RemoveChild(ch)
		}
	}
	return len(c.children) == 0
}

// ActivateChildren registers every child that is not yet running with the
// scheduler driving ctx.
func (c *Component) ActivateChildren(ctx *Context) {
	for _, ch := range c.children {
		if !ch.component().Activated() {
			ctx.Activate(ch)
		}
	}
}

// CheckControl drains the "control" inbox and returns the strongest
// shutdown request seen so far. Other control messages are discarded. A
// component without a "control" inbox never sees a shutdown.
func (c *Component) CheckControl() (Shutdown, bool) {
	for c.DataReady(Control) {
		msg, _ := c.Recv(Control)
		if sig, ok := IsShutdown(msg); ok {
			c.shutdown = stronger(c.shutdown, sig)
		}
	}
	return c.shutdown, c.shutdown != nil
}

// Finish forwards sig out of "signal", when declared, and returns Done.
func (c *Component) Finish(sig Shutdown) StepResult {
	if sig == nil {
		sig = ProducerFinished{Caller: c.name}
	}
	if c.Outbox(Signal) != nil {
		_ = c.Send(sig, Signal)
	}
	return Done
}
