package kernel

import (
	"reflect"
	"strconv"
)

// TaskID identifies a task within one scheduler. IDs start at 1 and are never
// reused.
type TaskID uint64

func (id TaskID) String() string { return strconv.FormatUint(uint64(id), 10) }

// StepResult is what a task reports at the end of a step.
type StepResult uint8

const (
	// Continue means the step did work and the task wants another step.
	Continue StepResult = iota
	// Yield means the task gave up control without finishing; it stays alive.
	Yield
	// Done means the task has no more work and must never be stepped again.
	Done
)

func (r StepResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case Yield:
		return "yield"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// State is a task's scheduling state.
type State uint8

const (
	Runnable State = iota + 1
	Paused
	Terminated
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Paused:
		return "paused"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Task is a cooperative unit of execution.
//
// Step must return after a bounded amount of work. The scheduler has no way to
// interrupt a step, so a task that loops inside Step stalls every other task.
type Task interface {
	Step(ctx *Context) StepResult
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx *Context) StepResult

func (f TaskFunc) Step(ctx *Context) StepResult { return f(ctx) }

// Named is implemented by tasks that supply their own log name.
type Named interface {
	Name() string
}

func taskName(t Task) string {
	if n, ok := t.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	typ := reflect.TypeOf(t)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Name() == "" {
		return "task"
	}
	return typ.Name()
}

// finalizer is implemented by tasks that hold resources the scheduler must
// release when they leave it.
type finalizer interface {
	finalize()
}
