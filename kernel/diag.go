package kernel

import (
	"cmp"
	"fmt"
	"slices"
)

// TaskInfo is a snapshot of one task's scheduling state.
type TaskInfo struct {
	ID    TaskID
	Name  string
	State State
	Steps uint64
}

func (t TaskInfo) String() string {
	return fmt.Sprintf("%s(%s) %s", t.Name, t.ID, t.State)
}

// Diagnosis describes what the scheduler is waiting on.
type Diagnosis struct {
	Runnable int
	Paused   []TaskInfo
	Holds    int64

	// Err is ErrDeadlockRisk when nothing is runnable, nothing holds the
	// scheduler and tasks remain paused.
	Err error
}

// Diagnose reports paused tasks and whether the scheduler can make progress.
// It does not change any state.
func (s *Scheduler) Diagnose() Diagnosis {
	d := Diagnosis{
		Runnable: len(s.runQueue) + len(s.pending),
		Holds:    s.holds.Load(),
	}
	for _, st := range s.paused {
		d.Paused = append(d.Paused, TaskInfo{ID: st.id, Name: st.name, State: st.state, Steps: st.steps})
	}
	slices.SortFunc(d.Paused, byID)

	s.mu.Lock()
	notified := len(s.notified)
	s.mu.Unlock()

	if d.Runnable == 0 && d.Holds == 0 && notified == 0 && len(d.Paused) > 0 {
		d.Err = fmt.Errorf("%w: %d paused", ErrDeadlockRisk, len(d.Paused))
	}
	return d
}

// Tasks returns a snapshot of every registered task in ID order.
func (s *Scheduler) Tasks() []TaskInfo {
	out := make([]TaskInfo, 0, len(s.tasks))
	for _, st := range s.tasks {
		out = append(out, TaskInfo{ID: st.id, Name: st.name, State: st.state, Steps: st.steps})
	}
	slices.SortFunc(out, byID)
	return out
}

func byID(a, b TaskInfo) int { return cmp.Compare(a.ID, b.ID) }
