package kernel

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type taskState struct {
	id    TaskID
	task  Task
	name  string
	state State
	steps uint64

	// ctx is set only while the task is inside Step.
	ctx *Context
}

// Scheduler is a run-to-completion cooperative scheduler.
//
// Each round steps every task that was runnable when the round started, in
// the order they joined the run queue: by activation at first, then with
// woken tasks after those that stayed runnable. Tasks activated or woken
// during a round wait for the next one. A scheduler is not safe for concurrent use; only Notify, Hold and Stop
// may be called from other goroutines.
type Scheduler struct {
	id  uuid.UUID
	log *slog.Logger

	tasks    map[TaskID]*taskState
	runQueue []*taskState
	pending  []*taskState
	paused   map[TaskID]*taskState

	nextID    TaskID
	round     uint64
	maxRounds uint64
	onFault   func(*TaskFault)

	mu       sync.Mutex
	notified []TaskID
	signal   chan struct{}
	holds    atomic.Int64
	stop     atomic.Bool

	metrics *instruments
	tracer  trace.Tracer
	span    trace.Span
}

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	log       *slog.Logger
	onFault   func(*TaskFault)
	maxRounds uint64
	mp        metric.MeterProvider
	tp        trace.TracerProvider
}

// WithLogger sets the scheduler logger. The default is the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithFaultHandler installs a callback invoked on the scheduler goroutine for
// every task fault, after the task has been removed.
func WithFaultHandler(fn func(*TaskFault)) Option {
	return func(c *config) { c.onFault = fn }
}

// WithMaxRounds makes Run give up with ErrRoundLimit after n rounds.
func WithMaxRounds(n uint64) Option {
	return func(c *config) { c.maxRounds = n }
}

// WithMeterProvider sets the meter provider. The default is otel's global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.mp = mp }
}

// WithTracerProvider sets the tracer provider. The default is otel's global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tp = tp }
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger
	}
	if cfg.mp == nil {
		cfg.mp = otel.GetMeterProvider()
	}
	if cfg.tp == nil {
		cfg.tp = otel.GetTracerProvider()
	}

	id := uuid.New()
	return &Scheduler{
		id:        id,
		log:       cfg.log.With("run", id.String()),
		tasks:     make(map[TaskID]*taskState),
		paused:    make(map[TaskID]*taskState),
		maxRounds: cfg.maxRounds,
		onFault:   cfg.onFault,
		signal:    make(chan struct{}, 1),
		metrics:   newInstruments(cfg.mp, id.String()),
		tracer:    cfg.tp.Tracer(instrumentationName),
	}
}

// ID returns the run identity of the scheduler.
func (s *Scheduler) ID() uuid.UUID { return s.id }

// Logger returns the scheduler logger.
func (s *Scheduler) Logger() *slog.Logger { return s.log }

// Rounds returns the number of rounds run so far.
func (s *Scheduler) Rounds() uint64 { return s.round }

// Len returns the number of tasks not yet terminated.
func (s *Scheduler) Len() int { return len(s.tasks) }

// Activate registers t and returns its ID. The task first steps in the next
// round that starts after the call.
//
// Activating a component that is already registered returns its existing ID.
func (s *Scheduler) Activate(t Task) TaskID {
	var comp *Component
	if m, ok := t.(Mailboxed); ok {
		comp = m.component()
		if comp.sched == s && !comp.stopped {
			return comp.id
		}
	}

	s.nextID++
	st := &taskState{id: s.nextID, task: t, name: taskName(t), state: Runnable}
	if comp != nil {
		comp.bind(s, st.id, st.name)
	}
	s.tasks[st.id] = st
	s.pending = append(s.pending, st)
	s.metrics.active.Add(s.metrics.ctx, 1, s.metrics.attrs)
	s.log.Debug("Task activated", "task", st.id, "name", st.name)
	return st.id
}

// State returns the scheduling state of id. IDs that were never issued by
// this scheduler report ok=false.
func (s *Scheduler) State(id TaskID) (State, bool) {
	if id == 0 || id > s.nextID {
		return 0, false
	}
	st, ok := s.tasks[id]
	if !ok {
		return Terminated, true
	}
	return st.state, true
}

// Steps returns how many steps task id has run. Terminated tasks report 0.
func (s *Scheduler) Steps(id TaskID) uint64 {
	if st, ok := s.tasks[id]; ok {
		return st.steps
	}
	return 0
}

// Wake moves a paused task to the end of the run queue. Waking a runnable
// task is a no-op, except that it cancels a Pause the task requested during
// its current step.
func (s *Scheduler) Wake(id TaskID) {
	st, ok := s.tasks[id]
	if !ok {
		return
	}
	switch st.state {
	case Paused:
		delete(s.paused, id)
		st.state = Runnable
		s.pending = append(s.pending, st)
	case Runnable:
		if st.ctx != nil {
			st.ctx.pause = false
		}
	}
}

// Notify wakes id from any goroutine. The wake takes effect at the start of
// the next round.
func (s *Scheduler) Notify(id TaskID) {
	s.mu.Lock()
	s.notified = append(s.notified, id)
	s.mu.Unlock()
	s.poke()
}

// Hold tells Run that something outside the scheduler may still call Notify,
// so an idle scheduler must wait instead of returning. Call release once the
// outside source is gone. Safe for concurrent use.
func (s *Scheduler) Hold() (release func()) {
	s.holds.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.holds.Add(-1)
			s.poke()
		})
	}
}

// Stop makes Run return after the current round. Safe for concurrent use.
func (s *Scheduler) Stop() {
	s.stop.Store(true)
	s.poke()
}

// Remove terminates id between steps. A task removing itself from inside its
// own step is terminated when the step returns.
func (s *Scheduler) Remove(id TaskID) bool {
	st, ok := s.tasks[id]
	if !ok {
		return false
	}
	if st.ctx != nil {
		st.state = Terminated
		return true
	}
	s.terminate(st, nil)
	return true
}

// Close removes every task still registered, in ID order, and returns how
// many there were. Generators parked in a Yield or Pause are unwound, so their
// goroutines exit. Close must not be called from inside a step.
func (s *Scheduler) Close() int {
	tasks := s.Tasks()
	for _, ti := range tasks {
		s.Remove(ti.ID)
	}
	return len(tasks)
}

func (s *Scheduler) poke() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Scheduler) drainNotified() {
	s.mu.Lock()
	ids := s.notified
	s.notified = nil
	s.mu.Unlock()
	for _, id := range ids {
		s.Wake(id)
	}
}

// Runnable reports whether any task will step in the next round.
func (s *Scheduler) Runnable() bool {
	return len(s.runQueue)+len(s.pending) > 0
}

// RunOneRound steps every task that is runnable at the start of the round and
// reports whether any task is runnable afterwards.
func (s *Scheduler) RunOneRound() bool {
	s.drainNotified()
	s.round++
	s.metrics.rounds.Add(s.metrics.ctx, 1, s.metrics.attrs)

	snapshot := s.runQueue
	if len(s.pending) > 0 {
		snapshot = append(snapshot, s.pending...)
		s.pending = nil
	}
	next := make([]*taskState, 0, len(snapshot))
	s.runQueue = nil

	for _, st := range snapshot {
		if st.state != Runnable {
			continue
		}

		ctx := &Context{s: s, st: st}
		st.ctx = ctx
		res, fault := stepSafely(st, ctx)
		st.ctx = nil
		st.steps++
		s.metrics.steps.Add(s.metrics.ctx, 1, s.metrics.attrs)

		switch {
		case fault != nil:
			s.terminate(st, fault)
		case st.state == Terminated || res == Done:
			s.terminate(st, nil)
		case ctx.pause:
			st.state = Paused
			s.paused[st.id] = st
		default:
			next = append(next, st)
		}
	}

	s.runQueue = next
	return s.Runnable()
}

// Run drives rounds until no task is runnable and no Hold is outstanding, the
// context is cancelled, or Stop is called.
//
// Paused tasks that nothing can wake do not keep Run alive; Run logs the
// deadlock risk reported by Diagnose and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "axon.scheduler.run",
		trace.WithAttributes(attribute.String("axon.run", s.id.String())))
	defer span.End()
	s.span = span
	defer func() { s.span = nil }()
	s.metrics.ctx = ctx

	s.log.Debug("Scheduler running", "tasks", len(s.tasks))
	for {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if s.stop.Load() {
			s.log.Debug("Scheduler stopped", "rounds", s.round)
			return nil
		}
		if s.maxRounds > 0 && s.round >= s.maxRounds {
			span.SetStatus(codes.Error, ErrRoundLimit.Error())
			return ErrRoundLimit
		}

		s.drainNotified()
		if !s.Runnable() {
			if s.holds.Load() == 0 {
				if d := s.Diagnose(); d.Err != nil {
					s.log.Warn("Scheduler idle with paused tasks", "paused", len(d.Paused), "err", d.Err)
				}
				s.log.Debug("Scheduler finished", "rounds", s.round)
				span.SetAttributes(attribute.Int64("axon.rounds", int64(s.round)))
				return nil
			}
			select {
			case <-ctx.Done():
			case <-s.signal:
			}
			continue
		}
		s.RunOneRound()
	}
}

func (s *Scheduler) terminate(st *taskState, fault *TaskFault) {
	st.state = Terminated
	delete(s.tasks, st.id)
	delete(s.paused, st.id)
	s.metrics.active.Add(s.metrics.ctx, -1, s.metrics.attrs)

	if f, ok := st.task.(finalizer); ok {
		f.finalize()
	}
	if m, ok := st.task.(Mailboxed); ok {
		m.component().terminated()
	}

	if fault == nil {
		s.log.Debug("Task terminated", "task", st.id, "name", st.name, "steps", st.steps)
		return
	}

	s.metrics.faults.Add(s.metrics.ctx, 1, s.metrics.attrs)
	s.log.Error("Task faulted", "task", st.id, "name", st.name, "err", fault.Value)
	if s.span != nil {
		s.span.AddEvent("task.fault", trace.WithAttributes(
			attribute.Int64("axon.task", int64(st.id)),
			attribute.String("axon.task.name", st.name),
		))
	}
	if s.onFault != nil {
		s.onFault(fault)
	}
}
