// Package kernel is a cooperative microprocess scheduler with mailbox-based
// components.
//
// The core idea is:
//   - A [Task] is driven one step at a time by a [Scheduler]. Each call to
//     Step does a bounded amount of work and reports whether the task is still
//     alive. Nothing preempts a step: a task that never returns blocks every
//     other task.
//   - A component embeds [Component] to own named inboxes and outboxes. A
//     component reads only its own inboxes and writes only its own outboxes.
//   - A [PostOffice] links an outbox to an inbox. Delivery is push-based: a
//     send lands in the linked inbox immediately and wakes its owner.
//   - A task with nothing to do calls [Context.Pause]. It is not stepped again
//     until a message arrives in one of its inboxes or something calls
//     [Scheduler.Wake].
//
// Shutdown is a messaging convention, not an engine: a component that sees a
// [Shutdown] message on "control" forwards an equivalent message out of
// "signal" and terminates.
//
// Everything except [Scheduler.Notify], [Scheduler.Hold] and [Handoff] must be
// used from the goroutine that runs the scheduler.
package kernel
