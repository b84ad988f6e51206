package kernel

import (
	"fmt"
	"runtime/debug"
)

// TaskFault describes a task that died because its step panicked or reported
// an error through Context.Fail.
//
// A fault terminates only the task that raised it.
type TaskFault struct {
	TaskID TaskID
	Name   string
	Value  any
	Stack  []byte
}

func (f *TaskFault) Error() string {
	return fmt.Sprintf("kernel: task %s (%s) faulted: %v", f.TaskID, f.Name, f.Value)
}

// Unwrap exposes the cause when the fault carries an error.
func (f *TaskFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// stepSafely runs one step, converting a panic into a fault.
func stepSafely(st *taskState, ctx *Context) (res StepResult, fault *TaskFault) {
	defer func() {
		if v := recover(); v != nil {
			fault = &TaskFault{TaskID: st.id, Name: st.name, Value: v, Stack: debug.Stack()}
		}
	}()
	res = st.task.Step(ctx)
	if ctx.fault != nil {
		return Done, ctx.fault
	}
	return res, nil
}
