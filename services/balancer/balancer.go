// Package balancer spreads messages from one inbox over several outboxes.
package balancer

import (
	"fmt"

	"axon/kernel"
)

// Outbox2 is the second outbox of TwoWay.
const Outbox2 = "outbox2"

// TwoWay alternates inbox messages between "outbox" and "outbox2", starting
// with "outbox".
type TwoWay struct {
	kernel.Component
	n uint64
}

func NewTwoWay(name string) *TwoWay {
	b := &TwoWay{}
	b.Init(name, kernel.DefaultBoxes().WithOutboxes(Outbox2))
	return b
}

func (b *TwoWay) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := b.CheckControl(); ok && sig.Urgent() {
		return b.Finish(sig)
	}
	for b.DataReady(kernel.Inbox) {
		msg, _ := b.Recv(kernel.Inbox)
		out := kernel.Outbox
		if b.n%2 == 1 {
			out = Outbox2
		}
		b.n++
		if err := b.Send(msg, out); err != nil {
			ctx.Logger().Warn("Balancer send failed", "outbox", out, "err", err)
		}
	}
	if sig, ok := b.CheckControl(); ok {
		return b.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}

// Configuration is the Splitter inbox that takes AddSink and RemoveSink.
const Configuration = "configuration"

// AddSink asks a Splitter to copy its input to Target.
type AddSink struct {
	Target kernel.Endpoint
}

// RemoveSink asks a Splitter to stop copying to Target.
type RemoveSink struct {
	Target kernel.Endpoint
}

// Splitter copies every inbox message to each registered sink, and to
// "outbox" when that is linked. Each sink gets its own outbox, created on
// demand.
type Splitter struct {
	kernel.AdaptiveComponent
	sinks []sink
}

type sink struct {
	target kernel.Endpoint
	outbox string
	link   *kernel.Linkage
}

func NewSplitter(name string) *Splitter {
	s := &Splitter{}
	s.Init(name, kernel.DefaultBoxes().WithInboxes(Configuration))
	return s
}

// AddSink links a new outbox to target and returns the outbox name.
func (s *Splitter) AddSink(target kernel.Endpoint) (string, error) {
	name := s.AddOutbox("out")
	l, err := s.Link(kernel.At(s, name), target)
	if err != nil {
		_ = s.DeleteBox(name, kernel.Out)
		return "", fmt.Errorf("splitter %s: add sink %s: %w", s.Name(), target, err)
	}
	s.sinks = append(s.sinks, sink{target: target, outbox: name, link: l})
	return name, nil
}

// RemoveSink unlinks target and deletes its outbox. It reports whether target
// was registered.
func (s *Splitter) RemoveSink(target kernel.Endpoint) bool {
	for i, sk := range s.sinks {
		if sk.target != target {
			continue
		}
		s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
		_ = s.DeleteBox(sk.outbox, kernel.Out)
		return true
	}
	return false
}

// Sinks returns the number of registered sinks.
func (s *Splitter) Sinks() int { return len(s.sinks) }

func (s *Splitter) Step(ctx *kernel.Context) kernel.StepResult {
	for s.DataReady(Configuration) {
		msg, _ := s.Recv(Configuration)
		switch m := msg.(type) {
		case AddSink:
			if _, err := s.AddSink(m.Target); err != nil {
				ctx.Logger().Warn("Splitter sink rejected", "err", err)
			}
		case RemoveSink:
			s.RemoveSink(m.Target)
		default:
			ctx.Logger().Debug("Splitter ignored configuration message", "msg", msg)
		}
	}

	if sig, ok := s.CheckControl(); ok && sig.Urgent() {
		return s.Finish(sig)
	}
	for s.DataReady(kernel.Inbox) {
		msg, _ := s.Recv(kernel.Inbox)
		for _, sk := range s.sinks {
			_ = s.Send(msg, sk.outbox)
		}
		if s.Outbox(kernel.Outbox).Linked() {
			_ = s.Send(msg, kernel.Outbox)
		}
	}
	if sig, ok := s.CheckControl(); ok {
		return s.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}
