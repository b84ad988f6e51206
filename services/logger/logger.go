// Package logger writes messages to the host's line logger.
package logger

import (
	"fmt"

	"axon/hal"
	"axon/kernel"
)

// Service writes each inbox message as one line. Strings and byte slices are
// written as is; anything else is formatted with fmt.
type Service struct {
	kernel.Component
	log hal.Logger
}

func New(name string, log hal.Logger) *Service {
	s := &Service{log: log}
	s.Init(name, kernel.DefaultBoxes())
	return s
}

func (s *Service) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := s.CheckControl(); ok && sig.Urgent() {
		return s.Finish(sig)
	}
	for s.DataReady(kernel.Inbox) {
		msg, _ := s.Recv(kernel.Inbox)
		s.write(msg)
	}
	if sig, ok := s.CheckControl(); ok {
		return s.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}

func (s *Service) write(msg any) {
	if s.log == nil {
		return
	}
	switch m := msg.(type) {
	case string:
		s.log.WriteLineString(m)
	case []byte:
		s.log.WriteLineBytes(m)
	default:
		s.log.WriteLineString(fmt.Sprint(m))
	}
}
