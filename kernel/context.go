package kernel

import (
	"fmt"
	"log/slog"
)

// Context provides task-local access to scheduler operations during one step.
//
// A Context is only valid inside the Step call it was passed to.
type Context struct {
	s     *Scheduler
	st    *taskState
	pause bool
	fault *TaskFault
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.st.id }

// Round returns the number of the round being run.
func (c *Context) Round() uint64 { return c.s.round }

// Scheduler returns the scheduler driving the task.
func (c *Context) Scheduler() *Scheduler { return c.s }

// Pause parks the task once this step returns. It is stepped again only after
// a wake: a message arriving in one of its inboxes, or Scheduler.Wake.
//
// A wake that arrives later in the same step cancels the pause.
func (c *Context) Pause() { c.pause = true }

// Paused reports whether Pause is pending for this step.
func (c *Context) Paused() bool { return c.pause }

// Activate registers another task with the same scheduler. The new task first
// runs in the next round.
func (c *Context) Activate(t Task) TaskID {
	return c.s.Activate(t)
}

// Fail terminates the task with a fault carrying err once the step returns.
func (c *Context) Fail(err error) {
	if err == nil {
		return
	}
	c.fault = &TaskFault{TaskID: c.st.id, Name: c.st.name, Value: err}
}

// failWith records a fault raised on another goroutine on behalf of the task.
func (c *Context) failWith(v any, stack []byte) {
	c.fault = &TaskFault{TaskID: c.st.id, Name: c.st.name, Value: v, Stack: stack}
}

// Logger returns the scheduler logger annotated with the task identity.
func (c *Context) Logger() *slog.Logger {
	return c.s.log.With("task", c.st.id, "name", c.st.name)
}

func (c *Context) String() string {
	return fmt.Sprintf("ctx(%s %s round=%d)", c.st.id, c.st.name, c.s.round)
}
