package kernel

import "fmt"

// Shutdown is the class of lifecycle messages carried on "control" and
// "signal" boxes.
type Shutdown interface {
	// Urgent reports whether the receiver should stop without draining its
	// pending input.
	Urgent() bool

	isShutdown()
}

// ProducerFinished is sent by a component that has no more data to emit.
// Receivers finish the input they already hold before stopping.
type ProducerFinished struct {
	Caller  string
	Message any
}

func (ProducerFinished) Urgent() bool { return false }
func (ProducerFinished) isShutdown()  {}

func (p ProducerFinished) String() string {
	if p.Caller == "" {
		return "producerFinished"
	}
	return fmt.Sprintf("producerFinished(%s)", p.Caller)
}

// ShutdownMicroprocess asks a component to stop now.
type ShutdownMicroprocess struct {
	Caller  string
	Message any
}

func (ShutdownMicroprocess) Urgent() bool { return true }
func (ShutdownMicroprocess) isShutdown()  {}

func (s ShutdownMicroprocess) String() string {
	if s.Caller == "" {
		return "shutdownMicroprocess"
	}
	return fmt.Sprintf("shutdownMicroprocess(%s)", s.Caller)
}

// IsShutdown classifies msg as a lifecycle message.
func IsShutdown(msg any) (Shutdown, bool) {
	sig, ok := msg.(Shutdown)
	return sig, ok
}

// stronger returns whichever of two pending shutdowns should win.
func stronger(cur, next Shutdown) Shutdown {
	if cur == nil {
		return next
	}
	if next.Urgent() && !cur.Urgent() {
		return next
	}
	return cur
}
