// Package basic holds small general-purpose components: sources, sinks and
// message-by-message transforms.
package basic

import "axon/kernel"

// Echo copies every inbox message to its outbox.
type Echo struct {
	kernel.Component
}

func NewEcho(name string) *Echo {
	e := &Echo{}
	e.Init(name, kernel.DefaultBoxes())
	return e
}

func (e *Echo) Step(ctx *kernel.Context) kernel.StepResult {
	return relay(&e.Component, ctx, func(msg any) { _ = e.Send(msg, kernel.Outbox) })
}

// Transform sends fn(msg) for every inbox message.
type Transform struct {
	kernel.Component
	fn func(any) any
}

func NewTransform(name string, fn func(any) any) *Transform {
	t := &Transform{fn: fn}
	t.Init(name, kernel.DefaultBoxes())
	return t
}

func (t *Transform) Step(ctx *kernel.Context) kernel.StepResult {
	return relay(&t.Component, ctx, func(msg any) { _ = t.Send(t.fn(msg), kernel.Outbox) })
}

// Collector records everything that reaches its inbox.
type Collector struct {
	kernel.Component
	got     []any
	observe func(any)
}

// NewCollector returns a collector. observe, when non-nil, is called with each
// message as it is recorded.
func NewCollector(name string, observe func(any)) *Collector {
	c := &Collector{observe: observe}
	c.Init(name, kernel.DefaultBoxes())
	return c
}

// Got returns the messages collected so far, oldest first.
func (c *Collector) Got() []any { return append([]any(nil), c.got...) }

func (c *Collector) Step(ctx *kernel.Context) kernel.StepResult {
	return relay(&c.Component, ctx, func(msg any) {
		c.got = append(c.got, msg)
		if c.observe != nil {
			c.observe(msg)
		}
	})
}

// relay is the loop shared by single-inbox components. An urgent shutdown
// stops at once; anything else lets the inbox drain first.
func relay(c *kernel.Component, ctx *kernel.Context, each func(msg any)) kernel.StepResult {
	if sig, ok := c.CheckControl(); ok && sig.Urgent() {
		return c.Finish(sig)
	}
	for c.DataReady(kernel.Inbox) {
		msg, _ := c.Recv(kernel.Inbox)
		each(msg)
	}
	if sig, ok := c.CheckControl(); ok {
		return c.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}
