// Package chassis provides containers that wire child components together and
// manage their lifetime.
package chassis

import (
	"errors"
	"fmt"

	"axon/kernel"
)

// ErrNoChildren is returned when a container is built without children.
var ErrNoChildren = errors.New("chassis: no children")

// Pipeline runs its children as a chain: each child's "outbox" feeds the next
// child's "inbox" and each "signal" feeds the next "control". The pipeline's
// own inbox and control lead into the first child, and the last child's
// outbox and signal come out of the pipeline.
type Pipeline struct {
	kernel.Component
	started bool
}

// NewPipeline links stages in order. The stages are activated when the
// pipeline first runs.
func NewPipeline(name string, stages ...kernel.Process) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: pipeline %s", ErrNoChildren, name)
	}
	p := &Pipeline{}
	p.Init(name, kernel.DefaultBoxes())
	p.AddChildren(stages...)

	first, last := stages[0], stages[len(stages)-1]
	if err := p.linkIf(kernel.At(p, kernel.Inbox), kernel.At(first, kernel.Inbox), kernel.Inbound); err != nil {
		return nil, err
	}
	if err := p.linkIf(kernel.At(p, kernel.Control), kernel.At(first, kernel.Control), kernel.Inbound); err != nil {
		return nil, err
	}
	for i := 1; i < len(stages); i++ {
		prev, next := stages[i-1], stages[i]
		if err := p.linkIf(kernel.At(prev, kernel.Outbox), kernel.At(next, kernel.Inbox), kernel.Direct); err != nil {
			return nil, err
		}
		if err := p.linkIf(kernel.At(prev, kernel.Signal), kernel.At(next, kernel.Control), kernel.Direct); err != nil {
			return nil, err
		}
	}
	if err := p.linkIf(kernel.At(last, kernel.Outbox), kernel.At(p, kernel.Outbox), kernel.Outbound); err != nil {
		return nil, err
	}
	if err := p.linkIf(kernel.At(last, kernel.Signal), kernel.At(p, kernel.Signal), kernel.Outbound); err != nil {
		return nil, err
	}
	return p, nil
}

// linkIf links src to dst when both boxes are declared. Stages without a
// "signal" or "control" box are simply left out of the shutdown chain.
func (p *Pipeline) linkIf(src, dst kernel.Endpoint, mode kernel.Passthrough) error {
	if !hasBox(src, mode, true) || !hasBox(dst, mode, false) {
		return nil
	}
	_, err := p.Link(src, dst, kernel.WithPassthrough(mode))
	return err
}

func (p *Pipeline) Step(ctx *kernel.Context) kernel.StepResult {
	if !p.started {
		p.started = true
		p.ActivateChildren(ctx)
	}
	if p.ChildrenDone() {
		return kernel.Done
	}
	ctx.Pause()
	return kernel.Continue
}

// hasBox reports whether the endpoint's box exists with the direction mode
// expects for the source (src=true) or sink side.
func hasBox(e kernel.Endpoint, mode kernel.Passthrough, src bool) bool {
	c := kernel.ComponentOf(e.Component)
	in := !src
	switch mode {
	case kernel.Inbound:
		in = true
	case kernel.Outbound:
		in = false
	}
	if in {
		return c.Inbox(e.Box) != nil
	}
	return c.Outbox(e.Box) != nil
}
