package kernel

import (
	"errors"
	"runtime/debug"
)

// errUnwind is raised inside a generator body whose task left the scheduler.
var errUnwind = errors.New("kernel: generator unwound")

type yieldKind uint8

const (
	yielded yieldKind = iota + 1
	parked
	finished
)

type yieldMsg struct {
	kind  yieldKind
	err   error
	panic any
	stack []byte
}

// Yielder is the handle a generator body uses to give control back to the
// scheduler.
type Yielder struct {
	resume chan struct{}
	out    chan yieldMsg
	ctx    *Context
}

// Yield ends the current step. The body continues in the task's next step.
func (y *Yielder) Yield() {
	y.suspend(yielded)
}

// Pause ends the current step and parks the task until it is woken.
func (y *Yielder) Pause() {
	y.suspend(parked)
}

// Context returns the context of the step the body is currently running in.
func (y *Yielder) Context() *Context { return y.ctx }

func (y *Yielder) suspend(kind yieldKind) {
	y.out <- yieldMsg{kind: kind}
	if _, ok := <-y.resume; !ok {
		panic(errUnwind)
	}
}

// Generator runs a straight-line body as a task. The body runs on its own
// goroutine, but control is handed back and forth so that exactly one of the
// scheduler and the body runs at any time. Every Yield or Pause is one step.
//
// A body that returns an error, or panics, terminates the task with a fault.
// If the task is removed before the body returns, the body is unwound at its
// next Yield or Pause. Run returning does not remove tasks, so a body still
// parked when the scheduler is abandoned keeps its goroutine blocked until
// Scheduler.Remove or Scheduler.Close is called.
type Generator struct {
	name    string
	body    func(y *Yielder) error
	y       *Yielder
	started bool
	done    bool
}

// NewGenerator wraps body as a task.
func NewGenerator(name string, body func(y *Yielder) error) *Generator {
	return &Generator{
		name: name,
		body: body,
		y: &Yielder{
			resume: make(chan struct{}),
			out:    make(chan yieldMsg, 1),
		},
	}
}

func (g *Generator) Name() string { return g.name }

func (g *Generator) Step(ctx *Context) StepResult {
	if g.done {
		return Done
	}
	g.y.ctx = ctx
	if !g.started {
		g.started = true
		go g.run()
	} else {
		g.y.resume <- struct{}{}
	}

	msg := <-g.y.out
	g.y.ctx = nil
	switch msg.kind {
	case parked:
		ctx.Pause()
		return Yield
	case finished:
		g.done = true
		switch {
		case msg.panic != nil:
			ctx.failWith(msg.panic, msg.stack)
		case msg.err != nil:
			ctx.Fail(msg.err)
		}
		return Done
	default:
		return Yield
	}
}

func (g *Generator) run() {
	msg := yieldMsg{kind: finished}
	defer func() {
		if v := recover(); v != nil && v != errUnwind {
			msg.panic = v
			msg.stack = debug.Stack()
		}
		g.y.out <- msg
	}()
	msg.err = g.body(g.y)
}

func (g *Generator) finalize() {
	if g.started && !g.done {
		g.done = true
		close(g.y.resume)
	}
}
