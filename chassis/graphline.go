package chassis

import (
	"errors"
	"fmt"
	"slices"

	"axon/kernel"
)

// ErrSelfLink is returned for a graphline link whose both ends are the
// graphline itself.
var ErrSelfLink = errors.New("chassis: link from graphline to itself")

// controlRelay is the private outbox a graphline uses to reach the control
// inbox of each child in turn.
const controlRelay = "_cs"

// Ref names a box on a graphline node. An empty Node refers to the graphline
// itself.
type Ref struct {
	Node string
	Box  string
}

// Link joins two refs.
type Link struct {
	From Ref
	To   Ref
}

// Graphline runs a set of named children wired by an explicit list of links.
//
// Links from the graphline itself pass its inbox-side boxes through to a
// child; links to the graphline pass a child's outbox-side box out. Boxes
// named this way are added to the graphline automatically.
//
// Unless a link carries the graphline's "control" to a child, every message
// arriving on "control" is relayed to each child whose control inbox is not
// otherwise linked. When all children have finished the graphline sends the
// shutdown it saw (or ProducerFinished) out of "signal", unless a child's
// signal is already linked there.
type Graphline struct {
	kernel.Component

	nodes    map[string]kernel.Process
	order    []string
	relayTo  []kernel.Process
	ownCtl   bool
	ownSig   bool
	started  bool
	shutdown kernel.Shutdown
}

// NewGraphline builds a graphline. Children are activated in node-name order
// when the graphline first runs.
func NewGraphline(name string, nodes map[string]kernel.Process, links []Link) (*Graphline, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: graphline %s", ErrNoChildren, name)
	}
	g := &Graphline{nodes: nodes, ownCtl: true, ownSig: true}

	boxes := kernel.DefaultBoxes().WithOutboxes(controlRelay)
	for _, l := range links {
		if l.From.Node == "" && l.To.Node == "" {
			return nil, fmt.Errorf("%w: %s -> %s", ErrSelfLink, l.From.Box, l.To.Box)
		}
		if l.From.Node == "" && !slices.Contains(boxes.Inboxes, l.From.Box) {
			boxes = boxes.WithInboxes(l.From.Box)
		}
		if l.To.Node == "" && !slices.Contains(boxes.Outboxes, l.To.Box) {
			boxes = boxes.WithOutboxes(l.To.Box)
		}
	}
	g.Init(name, boxes)

	g.order = make([]string, 0, len(nodes))
	for n := range nodes {
		g.order = append(g.order, n)
	}
	slices.Sort(g.order)
	for _, n := range g.order {
		g.AddChildren(nodes[n])
	}

	controlled := make(map[string]bool)
	for _, l := range links {
		src, err := g.resolve(l.From)
		if err != nil {
			return nil, err
		}
		dst, err := g.resolve(l.To)
		if err != nil {
			return nil, err
		}
		mode := kernel.Direct
		switch {
		case l.From.Node == "":
			mode = kernel.Inbound
		case l.To.Node == "":
			mode = kernel.Outbound
		}
		if _, err := g.Link(src, dst, kernel.WithPassthrough(mode)); err != nil {
			return nil, err
		}

		if l.To.Node != "" && l.To.Box == kernel.Control {
			controlled[l.To.Node] = true
		}
		if l.From.Node == "" && l.From.Box == kernel.Control {
			g.ownCtl = false
		}
		if l.To.Node == "" && l.To.Box == kernel.Signal {
			g.ownSig = false
		}
	}

	for _, n := range g.order {
		if !controlled[n] && kernel.ComponentOf(nodes[n]).Inbox(kernel.Control) != nil {
			g.relayTo = append(g.relayTo, nodes[n])
		}
	}
	return g, nil
}

func (g *Graphline) resolve(r Ref) (kernel.Endpoint, error) {
	if r.Node == "" {
		return kernel.At(g, r.Box), nil
	}
	p, ok := g.nodes[r.Node]
	if !ok {
		return kernel.Endpoint{}, fmt.Errorf("%w: graphline %s has no node %q", kernel.ErrUnknownBox, g.Name(), r.Node)
	}
	return kernel.At(p, r.Box), nil
}

// Node returns the child registered under name.
func (g *Graphline) Node(name string) (kernel.Process, bool) {
	p, ok := g.nodes[name]
	return p, ok
}

func (g *Graphline) Step(ctx *kernel.Context) kernel.StepResult {
	if !g.started {
		g.started = true
		for _, n := range g.order {
			ctx.Activate(g.nodes[n])
		}
	}

	if g.ownCtl {
		for g.DataReady(kernel.Control) {
			msg, _ := g.Recv(kernel.Control)
			g.relay(ctx, msg)
			if sig, ok := kernel.IsShutdown(msg); ok && (g.shutdown == nil || sig.Urgent()) {
				g.shutdown = sig
			}
		}
	}

	if !g.ChildrenDone() {
		ctx.Pause()
		return kernel.Continue
	}
	if g.ownSig {
		return g.Finish(g.shutdown)
	}
	return kernel.Done
}

// relay sends msg to the control inbox of every child that has no other
// control source, one temporary linkage at a time.
func (g *Graphline) relay(ctx *kernel.Context, msg any) {
	for _, child := range g.relayTo {
		if kernel.ComponentOf(child).Stopped() {
			continue
		}
		l, err := g.Link(kernel.At(g, controlRelay), kernel.At(child, kernel.Control))
		if err != nil {
			ctx.Logger().Warn("Control relay failed", "child", kernel.ComponentOf(child).Name(), "err", err)
			continue
		}
		_ = g.Send(msg, controlRelay)
		g.Unlink(l)
	}
}
