// Package keyboard turns host key events into messages.
package keyboard

import (
	"axon/hal"
	"axon/kernel"
)

// Service reads every pending key event each time it is stepped and sends
// them on "outbox". It pauses in between; the host wakes it once per frame.
//
// Pressing Escape sends ShutdownMicroprocess on "signal" and stops the
// service.
type Service struct {
	kernel.Component
	kbd hal.Keyboard
}

func New(name string, kbd hal.Keyboard) *Service {
	s := &Service{kbd: kbd}
	s.Init(name, kernel.DefaultBoxes())
	return s
}

func (s *Service) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := s.CheckControl(); ok {
		return s.Finish(sig)
	}
	var ch <-chan hal.KeyEvent
	if s.kbd != nil {
		ch = s.kbd.Events()
	}
	for ch != nil {
		select {
		case ev, ok := <-ch:
			if !ok {
				ctx.Logger().Debug("Keyboard closed")
				return s.Finish(nil)
			}
			if ev.Press && ev.Code == hal.KeyEscape {
				return s.Finish(kernel.ShutdownMicroprocess{Caller: s.Name()})
			}
			_ = s.Send(ev, kernel.Outbox)
		default:
			ch = nil
		}
	}
	ctx.Pause()
	return kernel.Continue
}
