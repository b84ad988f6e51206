package chassis

import "axon/kernel"

// Carousel box names.
const (
	// Next receives requests to replace the current child. The message is
	// passed to the factory.
	Next = "next"
	// RequestNext carries "NEXT" whenever the carousel is ready for a new child.
	RequestNext = "requestNext"

	childControl = "_signal"
	childSignal  = "_control"
)

// NextRequest is the message sent out of RequestNext.
const NextRequest = "NEXT"

// CarouselOption configures a Carousel.
type CarouselOption func(*Carousel)

// WithFirstRequest makes the carousel ask for its first child as soon as it
// starts.
func WithFirstRequest() CarouselOption {
	return func(c *Carousel) { c.firstRequest = true }
}

// Carousel runs one child at a time, made by a factory. Each message on
// "next" replaces the current child: the old child is shut down and removed,
// then factory(msg) is linked in and activated. The carousel's "inbox" and
// "outbox" pass through to whichever child is current.
type Carousel struct {
	kernel.Component

	factory      func(msg any) kernel.Process
	firstRequest bool
	started      bool

	child       kernel.Process
	terminating bool
}

// NewCarousel returns a carousel with no child.
func NewCarousel(name string, factory func(msg any) kernel.Process, opts ...CarouselOption) *Carousel {
	c := &Carousel{factory: factory}
	c.Init(name, kernel.Boxes{
		Inboxes:  []string{kernel.Inbox, Next, kernel.Control, childSignal},
		Outboxes: []string{kernel.Outbox, kernel.Signal, RequestNext, childControl},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Child returns the current child, or nil.
func (c *Carousel) Child() kernel.Process { return c.child }

func (c *Carousel) Step(ctx *kernel.Context) kernel.StepResult {
	if !c.started {
		c.started = true
		if c.firstRequest {
			_ = c.Send(NextRequest, RequestNext)
		}
	}

	for c.DataReady(childSignal) {
		_, _ = c.Recv(childSignal)
	}
	sig, stop := c.CheckControl()

	if c.child != nil && c.ChildrenDone() {
		ctx.Logger().Debug("Carousel child finished", "child", kernel.ComponentOf(c.child).Name())
		c.child = nil
		c.terminating = false
		if !stop && !c.DataReady(Next) {
			_ = c.Send(NextRequest, RequestNext)
		}
	}

	if c.child == nil {
		switch {
		case stop && sig.Urgent():
			return c.Finish(sig)
		case c.DataReady(Next):
			msg, _ := c.Recv(Next)
			c.spawn(ctx, msg)
		case stop:
			return c.Finish(sig)
		}
		ctx.Pause()
		return kernel.Continue
	}

	if !c.terminating {
		switch {
		case stop && sig.Urgent():
			c.shutdownChild(sig)
		case c.DataReady(Next):
			c.shutdownChild(kernel.ShutdownMicroprocess{Caller: c.Name()})
		case stop:
			c.shutdownChild(sig)
		}
	}
	ctx.Pause()
	return kernel.Continue
}

func (c *Carousel) spawn(ctx *kernel.Context, msg any) {
	child := c.factory(msg)
	if child == nil {
		ctx.Logger().Warn("Carousel factory returned no child", "msg", msg)
		_ = c.Send(NextRequest, RequestNext)
		return
	}
	c.AddChildren(child)

	links := []struct {
		src, dst kernel.Endpoint
		mode     kernel.Passthrough
	}{
		{kernel.At(c, kernel.Inbox), kernel.At(child, kernel.Inbox), kernel.Inbound},
		{kernel.At(c, childControl), kernel.At(child, kernel.Control), kernel.Direct},
		{kernel.At(child, kernel.Outbox), kernel.At(c, kernel.Outbox), kernel.Outbound},
		{kernel.At(child, kernel.Signal), kernel.At(c, childSignal), kernel.Direct},
	}
	for _, l := range links {
		if !hasBox(l.src, l.mode, true) || !hasBox(l.dst, l.mode, false) {
			continue
		}
		if _, err := c.Link(l.src, l.dst, kernel.WithPassthrough(l.mode)); err != nil {
			ctx.Fail(err)
			return
		}
	}
	c.child = child
	c.ActivateChildren(ctx)
}

func (c *Carousel) shutdownChild(sig kernel.Shutdown) {
	c.terminating = true
	_ = c.Send(sig, childControl)
}
