package app

import (
	"fmt"
	"strings"

	"axon/hal"
	"axon/kernel"
	"axon/services/display"
)

// reportFault writes a fault and its stack to the host logger and puts a
// one-line summary on screen.
func reportFault(l hal.Logger, screen *display.Display, f *kernel.TaskFault) {
	summary := fmt.Sprintf("axon fault: task=%d name=%s value=%v", f.TaskID, f.Name, f.Value)
	if l != nil {
		l.WriteLineString(summary)
		for _, line := range strings.Split(string(f.Stack), "\n") {
			if line == "" {
				continue
			}
			l.WriteLineString(line)
		}
	}
	if screen != nil && screen.Activated() {
		_ = screen.Deliver(display.Text{Line: fmt.Sprintf("fault: %s", f.Name)}, kernel.Inbox)
	}
}
