package gpio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by operations on a closed bank.
var ErrClosed = errors.New("gpio: bank closed")

// Write is a single masked write recorded by Sim.
type Write struct {
	Mask  uint32
	Value uint32
}

// Sim is an in-process simulated bank. Undriven inputs read high with
// BiasPullUp and low otherwise. Inputs are driven from the outside
// with Press, Release, Drive and Float; edge events are dispatched
// synchronously on the goroutine that changed the line.
//
// Handler invocations are serialized: the handler is never re-entered,
// like an interrupt line masked while its handler runs.
type Sim struct {
	// GetError, if set, is returned by Get.
	GetError error

	// PutError, if set, is returned by PutMasked.
	PutError error

	// Closed tracks if Close was called.
	Closed bool

	mu      sync.Mutex
	inputs  uint32
	outputs uint32
	pullUp  uint32
	driven  uint32 // inputs held by an external driver
	drive   uint32 // levels of driven inputs
	latch   uint32 // output latch
	rise    uint32
	fall    uint32
	handler EdgeHandler
	enabled bool
	writes  []Write

	levels   atomic.Uint32
	dispatch sync.Mutex
}

// NewSim creates a Sim with every line unconfigured and low.
func NewSim() *Sim {
	return &Sim{}
}

// SetInputs makes the lines in mask inputs with the given bias.
func (s *Sim) SetInputs(mask uint32, bias Bias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	s.inputs |= mask
	s.outputs &^= mask
	s.pullUp &^= mask
	if bias == BiasPullUp {
		s.pullUp |= mask
	}
	s.update()
	return nil
}

// SetOutputs makes the lines in mask outputs, initially driven low.
func (s *Sim) SetOutputs(mask uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	s.outputs |= mask
	s.inputs &^= mask
	s.latch &^= mask
	s.rise &^= mask
	s.fall &^= mask
	s.update()
	return nil
}

// PutMasked drives each output line in mask to the matching bit of value.
func (s *Sim) PutMasked(mask, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	if s.PutError != nil {
		return s.PutError
	}
	s.writes = append(s.writes, Write{Mask: mask, Value: value})
	mask &= s.outputs
	s.latch = s.latch&^mask | value&mask
	s.update()
	return nil
}

// Get returns the level of every line in the bank.
func (s *Sim) Get() (uint32, error) {
	s.mu.Lock()
	err := s.GetError
	closed := s.Closed
	s.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	if err != nil {
		return 0, err
	}
	return s.levels.Load(), nil
}

// Outputs returns the output latch, masked to the output lines.
func (s *Sim) Outputs() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latch & s.outputs
}

// WatchEdges enables detection of the given edges on the input lines in mask.
func (s *Sim) WatchEdges(mask uint32, edges Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	mask &= s.inputs
	if edges&EdgeRise != 0 {
		s.rise |= mask
	}
	if edges&EdgeFall != 0 {
		s.fall |= mask
	}
	return nil
}

// SetEdgeHandler installs the bank-wide handler.
func (s *Sim) SetEdgeHandler(h EdgeHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// EnableEvents starts delivering detected edges to the handler.
func (s *Sim) EnableEvents() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return ErrClosed
	}
	s.enabled = true
	return nil
}

// Press grounds an input line, as a switch to ground does.
func (s *Sim) Press(pin int) {
	s.Drive(pin, 0)
}

// Release lets an input line float back to its bias level.
func (s *Sim) Release(pin int) {
	s.Float(pin)
}

// Drive holds an input line at level (0 or 1) from the outside.
func (s *Sim) Drive(pin, level int) {
	bit := uint32(1) << pin
	s.change(pin, func() {
		s.driven |= bit
		if level != 0 {
			s.drive |= bit
		} else {
			s.drive &^= bit
		}
	})
}

// Float stops driving an input line.
func (s *Sim) Float(pin int) {
	bit := uint32(1) << pin
	s.change(pin, func() {
		s.driven &^= bit
		s.drive &^= bit
	})
}

// Writes returns a copy of every successful PutMasked call, oldest first.
func (s *Sim) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// Close marks the bank as closed. Pending drives no longer dispatch.
func (s *Sim) Close() error {
	s.mu.Lock()
	s.Closed = true
	s.enabled = false
	s.mu.Unlock()
	return nil
}

// change applies fn to the drive state of pin and dispatches any edge it
// produces. The handler runs without s.mu held so it may call Get and
// PutMasked.
func (s *Sim) change(pin int, fn func()) {
	bit := uint32(1) << pin

	s.mu.Lock()
	old := s.levels.Load()
	fn()
	s.update()
	now := s.levels.Load()

	var events Edge
	if s.inputs&bit != 0 && (old^now)&bit != 0 {
		if now&bit != 0 && s.rise&bit != 0 {
			events |= EdgeRise
		}
		if now&bit == 0 && s.fall&bit != 0 {
			events |= EdgeFall
		}
	}
	h := s.handler
	enabled := s.enabled
	s.mu.Unlock()

	if events == 0 || !enabled || h == nil {
		return
	}
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	h(pin, events)
}

// update recomputes the live register. Caller must hold s.mu.
func (s *Sim) update() {
	in := s.driven&s.drive | ^s.driven&s.pullUp
	s.levels.Store(s.inputs&in | s.outputs&s.latch)
}
