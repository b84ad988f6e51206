package kernel

import "errors"

var (
	// ErrEmptyMailbox is returned by a receive on a box with no data ready.
	ErrEmptyMailbox = errors.New("kernel: mailbox empty")

	// ErrUnknownBox is returned when a box name is not declared by the
	// component, or is declared with the other direction.
	ErrUnknownBox = errors.New("kernel: unknown box")

	// ErrAlreadyLinked is returned when linking a box that already feeds a
	// destination. Boxes fan in, never out.
	ErrAlreadyLinked = errors.New("kernel: box already linked to a destination")

	// ErrLinkCycle is returned when a linkage would close a loop of boxes.
	ErrLinkCycle = errors.New("kernel: linkage would form a cycle")

	// ErrBoxFull is returned by a send into a bounded box with the Reject policy.
	ErrBoxFull = errors.New("kernel: no space in box")

	// ErrDeadlockRisk is reported by Diagnose when every remaining task is
	// paused and nothing outside the scheduler can wake them.
	ErrDeadlockRisk = errors.New("kernel: all tasks paused with no wake source")

	// ErrRoundLimit is returned by Run when WithMaxRounds is exceeded.
	ErrRoundLimit = errors.New("kernel: round limit reached")
)
