package app

import (
	"axon/kernel"
	"axon/services/clock"
)

// pacer sends one value every `every` ticks, counting clock.Tick messages on
// its inbox, and finishes one interval after the last value.
type pacer struct {
	kernel.Component

	values []any
	every  uint64
	next   int
	timer  clock.Sleeper
}

func newPacer(name string, every uint64, values ...any) *pacer {
	p := &pacer{values: values, every: every}
	p.Init(name, kernel.DefaultBoxes())
	return p
}

func (p *pacer) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := p.CheckControl(); ok {
		return p.Finish(sig)
	}
	for p.DataReady(kernel.Inbox) {
		msg, _ := p.Recv(kernel.Inbox)
		tick, ok := msg.(clock.Tick)
		if !ok {
			continue
		}
		if !p.timer.Armed() && p.next == 0 {
			p.timer.Arm(tick.Seq, 0)
		}
		if !p.timer.Expired(tick.Seq) {
			continue
		}
		if p.next >= len(p.values) {
			return p.Finish(nil)
		}
		_ = p.Send(p.values[p.next], kernel.Outbox)
		p.next++
		p.timer.Arm(tick.Seq, p.every)
	}
	ctx.Pause()
	return kernel.Continue
}
