// Package backplane provides named many-to-many message hubs. Publishers
// feed a backplane's inbox; every subscriber receives a copy of each message.
package backplane

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"axon/kernel"
	"axon/services/balancer"
)

var (
	ErrNameTaken   = errors.New("backplane: name already registered")
	ErrNoBackplane = errors.New("backplane: no such backplane")
)

// Registry maps names to live backplanes. Each scheduler graph keeps its own.
type Registry struct {
	mu     sync.Mutex
	planes map[string]*Backplane
}

func NewRegistry() *Registry {
	return &Registry{planes: make(map[string]*Backplane)}
}

// Register adds b under its name.
func (r *Registry) Register(b *Backplane) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.planes[b.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrNameTaken, b.Name())
	}
	r.planes[b.Name()] = b
	return nil
}

// Lookup returns the backplane registered under name.
func (r *Registry) Lookup(name string) (*Backplane, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.planes[name]
	return b, ok
}

// Unregister removes b if it is still the one registered under its name.
func (r *Registry) Unregister(b *Backplane) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.planes[b.Name()] == b {
		delete(r.planes, b.Name())
	}
}

// Len returns the number of registered backplanes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.planes)
}

// Backplane is a Splitter that registers itself by name. It leaves the
// registry when it terminates through its control inbox.
type Backplane struct {
	*balancer.Splitter
	reg *Registry
}

// NewBackplane creates and registers a backplane. An empty name gets a random
// one.
func NewBackplane(reg *Registry, name string) (*Backplane, error) {
	if name == "" {
		name = uuid.NewString()
	}
	b := &Backplane{Splitter: balancer.NewSplitter(name), reg: reg}
	if err := reg.Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backplane) Step(ctx *kernel.Context) kernel.StepResult {
	res := b.Splitter.Step(ctx)
	if res == kernel.Done {
		b.reg.Unregister(b)
		ctx.Logger().Debug("Backplane closed", "backplane", b.Name())
	}
	return res
}

func lookup(reg *Registry, name string) (*Backplane, error) {
	b, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoBackplane, name)
	}
	return b, nil
}

// Publisher passes its inbox straight through to a backplane's inbox.
type Publisher struct {
	kernel.Component
	plane *Backplane
}

// NewPublisher returns a publisher to the backplane called name.
func NewPublisher(reg *Registry, name string) (*Publisher, error) {
	plane, err := lookup(reg, name)
	if err != nil {
		return nil, err
	}
	p := &Publisher{plane: plane}
	p.Init("publish:"+name, kernel.DefaultBoxes())
	if _, err := p.Link(kernel.At(p, kernel.Inbox), kernel.At(plane, kernel.Inbox),
		kernel.WithPassthrough(kernel.Inbound)); err != nil {
		return nil, fmt.Errorf("publish to %s: %w", name, err)
	}
	return p, nil
}

// Step only watches for shutdown; data never lands in the publisher's inbox.
func (p *Publisher) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := p.CheckControl(); ok {
		return p.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}

// Subscriber sends a copy of every backplane message out of its outbox.
type Subscriber struct {
	kernel.Component
	plane *Backplane
}

// NewSubscriber returns a subscriber to the backplane called name.
func NewSubscriber(reg *Registry, name string) (*Subscriber, error) {
	plane, err := lookup(reg, name)
	if err != nil {
		return nil, err
	}
	s := &Subscriber{plane: plane}
	s.Init("subscribe:"+name, kernel.DefaultBoxes())
	if _, err := plane.AddSink(kernel.At(s, kernel.Inbox)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Subscriber) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := s.CheckControl(); ok && sig.Urgent() {
		return s.leave(sig)
	}
	for s.DataReady(kernel.Inbox) {
		msg, _ := s.Recv(kernel.Inbox)
		_ = s.Send(msg, kernel.Outbox)
	}
	if sig, ok := s.CheckControl(); ok {
		return s.leave(sig)
	}
	ctx.Pause()
	return kernel.Continue
}

func (s *Subscriber) leave(sig kernel.Shutdown) kernel.StepResult {
	s.plane.RemoveSink(kernel.At(s, kernel.Inbox))
	return s.Finish(sig)
}
