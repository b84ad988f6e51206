// Package app assembles a running system from the host devices: the io
// components, one demo graph and the shutdown wiring between them.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"axon/chassis"
	"axon/hal"
	"axon/kernel"
	"axon/services/backplane"
	"axon/services/balancer"
	"axon/services/basic"
	"axon/services/clock"
	"axon/services/display"
	"axon/services/keyboard"
	"axon/services/logger"
)

const (
	DemoPipeline  = "pipeline"
	DemoCarousel  = "carousel"
	DemoBackplane = "backplane"
)

var ErrUnknownDemo = errors.New("app: unknown demo")

type Config struct {
	// Demo selects the graph to run. Empty means DemoPipeline.
	Demo string
	// RoundsPerFrame caps the scheduler rounds run by one frame. Zero means 32.
	RoundsPerFrame int
	// Every is the number of host ticks between demo values. Zero means 250.
	Every uint64
	// Logger is the scheduler logger. Nil uses the kernel package logger.
	Logger *slog.Logger
}

type system struct {
	s      *kernel.Scheduler
	log    *slog.Logger
	rounds int

	clock  *clock.Clock
	keys   *keyboard.Service
	screen *display.Display
	lines  *logger.Service
	hub    *balancer.Splitter
	demo   kernel.Process
}

// New builds the system and returns the step func a host runner calls once
// per frame. The func returns hal.ErrStopped once every component finished.
func New(h hal.HAL, cfg Config) func() error {
	sys, err := newSystem(h, cfg)
	if err != nil {
		return func() error { return err }
	}
	return sys.frame
}

func newSystem(h hal.HAL, cfg Config) (*system, error) {
	if cfg.Demo == "" {
		cfg.Demo = DemoPipeline
	}
	if cfg.RoundsPerFrame <= 0 {
		cfg.RoundsPerFrame = 32
	}
	if cfg.Every == 0 {
		cfg.Every = 250
	}

	sys := &system{rounds: cfg.RoundsPerFrame}

	var fb hal.Framebuffer
	if d := h.Display(); d != nil {
		fb = d.Framebuffer()
	}
	var kbd hal.Keyboard
	if in := h.Input(); in != nil {
		kbd = in.Keyboard()
	}
	sys.clock = clock.New("clock", h.Time())
	sys.keys = keyboard.New("keyboard", kbd)
	sys.screen = display.New("screen", fb)
	sys.lines = logger.New("log", h.Logger())
	sys.hub = balancer.NewSplitter("shutdown")

	opts := []kernel.Option{kernel.WithFaultHandler(func(f *kernel.TaskFault) {
		reportFault(h.Logger(), sys.screen, f)
	})}
	if cfg.Logger != nil {
		opts = append(opts, kernel.WithLogger(cfg.Logger))
	}
	sys.s = kernel.New(opts...)
	sys.log = sys.s.Logger()

	demo, err := buildDemo(cfg)
	if err != nil {
		return nil, err
	}
	sys.demo = demo

	if err := sys.wire(); err != nil {
		return nil, err
	}

	for _, p := range []kernel.Process{sys.hub, sys.clock, sys.keys, sys.demo, sys.screen, sys.lines} {
		sys.s.Activate(p)
	}
	sys.log.Info("System started", "demo", cfg.Demo, "rounds_per_frame", sys.rounds)
	return sys, nil
}

// wire links the io components to the demo. Any shutdown leaving the demo or
// the keyboard reaches the hub, which copies it to every control inbox,
// its own included.
func (sys *system) wire() error {
	po := kernel.NewPostOffice("system")
	links := [][2]kernel.Endpoint{
		{kernel.At(sys.clock, kernel.Outbox), kernel.At(sys.demo, kernel.Inbox)},
		{kernel.At(sys.demo, kernel.Outbox), kernel.At(sys.screen, kernel.Inbox)},
		{kernel.At(sys.keys, kernel.Outbox), kernel.At(sys.lines, kernel.Inbox)},
		{kernel.At(sys.demo, kernel.Signal), kernel.At(sys.hub, kernel.Inbox)},
		{kernel.At(sys.keys, kernel.Signal), kernel.At(sys.hub, kernel.Inbox)},
	}
	for _, l := range links {
		if _, err := po.Link(l[0], l[1]); err != nil {
			return fmt.Errorf("app: wire: %w", err)
		}
	}
	for _, m := range []kernel.Mailboxed{sys.clock, sys.keys, sys.demo, sys.screen, sys.lines, sys.hub} {
		if _, err := sys.hub.AddSink(kernel.At(m, kernel.Control)); err != nil {
			return fmt.Errorf("app: wire: %w", err)
		}
	}
	return nil
}

// frame wakes the components that poll host devices and runs a bounded number
// of rounds.
func (sys *system) frame() error {
	sys.s.Wake(sys.clock.ID())
	sys.s.Wake(sys.keys.ID())
	for i := 0; i < sys.rounds; i++ {
		if !sys.s.RunOneRound() {
			break
		}
	}
	if sys.s.Len() == 0 {
		sys.log.Info("System stopped", "rounds", sys.s.Rounds())
		return hal.ErrStopped
	}
	return nil
}

func buildDemo(cfg Config) (kernel.Process, error) {
	switch cfg.Demo {
	case DemoPipeline:
		return pipelineDemo(cfg.Every)
	case DemoCarousel:
		return carouselDemo(cfg.Every)
	case DemoBackplane:
		return backplaneDemo(cfg.Every)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDemo, cfg.Demo)
	}
}

// pipelineDemo squares 1..8 and prints each result.
func pipelineDemo(every uint64) (kernel.Process, error) {
	values := make([]any, 0, 8)
	for i := 1; i <= 8; i++ {
		values = append(values, i)
	}
	square := basic.NewTransform("square", func(v any) any {
		n := v.(int)
		return [2]int{n, n * n}
	})
	format := basic.NewTransform("format", func(v any) any {
		p := v.([2]int)
		return display.Text{Line: fmt.Sprintf("%d squared is %d", p[0], p[1])}
	})
	return chassis.NewPipeline("pipeline", newPacer("pacer", every, values...), square, format)
}

// carouselDemo starts a fresh counting child for each word the pacer sends.
func carouselDemo(every uint64) (kernel.Process, error) {
	words := newPacer("pacer", every, "alpha", "beta", "gamma")
	car := chassis.NewCarousel("carousel", func(msg any) kernel.Process {
		word := fmt.Sprint(msg)
		return basic.NewSource(word, word+" 1", word+" 2", word+" 3")
	})
	return chassis.NewGraphline("carousel", map[string]kernel.Process{
		"pacer":    words,
		"carousel": car,
	}, []chassis.Link{
		{From: chassis.Ref{Box: kernel.Inbox}, To: chassis.Ref{Node: "pacer", Box: kernel.Inbox}},
		{From: chassis.Ref{Node: "pacer", Box: kernel.Outbox}, To: chassis.Ref{Node: "carousel", Box: chassis.Next}},
		{From: chassis.Ref{Node: "pacer", Box: kernel.Signal}, To: chassis.Ref{Node: "carousel", Box: kernel.Control}},
		{From: chassis.Ref{Node: "carousel", Box: kernel.Outbox}, To: chassis.Ref{Box: kernel.Outbox}},
		{From: chassis.Ref{Node: "carousel", Box: kernel.Signal}, To: chassis.Ref{Box: kernel.Signal}},
	})
}

// backplaneDemo publishes a few messages to two tagged subscribers.
func backplaneDemo(every uint64) (kernel.Process, error) {
	reg := backplane.NewRegistry()
	plane, err := backplane.NewBackplane(reg, "chat")
	if err != nil {
		return nil, err
	}
	pub, err := backplane.NewPublisher(reg, "chat")
	if err != nil {
		return nil, err
	}
	nodes := map[string]kernel.Process{
		"plane": plane,
		"pub":   pub,
		"pacer": newPacer("pacer", every, "hello", "from", "the", "backplane"),
	}
	links := []chassis.Link{
		{From: chassis.Ref{Box: kernel.Inbox}, To: chassis.Ref{Node: "pacer", Box: kernel.Inbox}},
		{From: chassis.Ref{Node: "pacer", Box: kernel.Outbox}, To: chassis.Ref{Node: "pub", Box: kernel.Inbox}},
		{From: chassis.Ref{Node: "pacer", Box: kernel.Signal}, To: chassis.Ref{Node: "pub", Box: kernel.Control}},
		{From: chassis.Ref{Node: "pub", Box: kernel.Signal}, To: chassis.Ref{Node: "plane", Box: kernel.Control}},
		{From: chassis.Ref{Node: "plane", Box: kernel.Signal}, To: chassis.Ref{Box: kernel.Signal}},
	}
	for _, tag := range []string{"one", "two"} {
		sub, err := backplane.NewSubscriber(reg, "chat")
		if err != nil {
			return nil, err
		}
		prefix := "[" + tag + "] "
		label := basic.NewTransform("tag-"+tag, func(v any) any {
			return display.Text{Line: prefix + fmt.Sprint(v)}
		})
		nodes["sub-"+tag] = sub
		nodes["tag-"+tag] = label
		links = append(links,
			chassis.Link{From: chassis.Ref{Node: "sub-" + tag, Box: kernel.Outbox}, To: chassis.Ref{Node: "tag-" + tag, Box: kernel.Inbox}},
			chassis.Link{From: chassis.Ref{Node: "sub-" + tag, Box: kernel.Signal}, To: chassis.Ref{Node: "tag-" + tag, Box: kernel.Control}},
			chassis.Link{From: chassis.Ref{Node: "tag-" + tag, Box: kernel.Outbox}, To: chassis.Ref{Box: kernel.Outbox}},
		)
	}
	return chassis.NewGraphline("backplane", nodes, links)
}
