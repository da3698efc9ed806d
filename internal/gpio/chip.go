//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

// request is one line request on the chip.
type request struct {
	lines *gpiocdev.Lines
	pins  []int
	mask  uint32
}

// Chip is a bank backed by the Linux GPIO character device.
// Line offsets on the chip are the pin numbers of the bank.
type Chip struct {
	chip *gpiocdev.Chip

	mu      sync.Mutex
	inputs  []request
	outputs []request
	latch   uint32
	closed  bool

	rise atomic.Uint32
	fall atomic.Uint32

	handler  atomic.Pointer[EdgeHandler]
	enabled  atomic.Bool
	dispatch sync.Mutex
}

// NewChip opens the named GPIO chip, e.g. "gpiochip0".
func NewChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// SetInputs requests the lines in mask as inputs with the given bias.
// The kernel reports both edges on every input from the start; WatchEdges
// selects which of them reach the handler.
func (c *Chip) SetInputs(mask uint32, bias Bias) error {
	pins := Pins(mask)
	if len(pins) == 0 {
		return nil
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(c.onEvent),
	}
	switch bias {
	case BiasPullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case BiasPullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	lines, err := c.chip.RequestLines(pins, opts...)
	if err != nil {
		return fmt.Errorf("request input pins %v: %w", pins, err)
	}
	c.inputs = append(c.inputs, request{lines: lines, pins: pins, mask: mask})
	return nil
}

// SetOutputs requests the lines in mask as outputs driven low.
func (c *Chip) SetOutputs(mask uint32) error {
	pins := Pins(mask)
	if len(pins) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	lines, err := c.chip.RequestLines(pins, gpiocdev.AsOutput())
	if err != nil {
		return fmt.Errorf("request output pins %v: %w", pins, err)
	}
	c.outputs = append(c.outputs, request{lines: lines, pins: pins, mask: mask})
	c.latch &^= mask
	return nil
}

// PutMasked drives each output line in mask to the matching bit of value.
// Every request holding a masked line is written in full from the latch.
func (c *Chip) PutMasked(mask, value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.latch = c.latch&^mask | value&mask
	for _, r := range c.outputs {
		if r.mask&mask == 0 {
			continue
		}
		vals := make([]int, len(r.pins))
		for i, pin := range r.pins {
			vals[i] = int(c.latch>>pin) & 1
		}
		if err := r.lines.SetValues(vals); err != nil {
			return fmt.Errorf("set output pins %v: %w", r.pins, err)
		}
	}
	return nil
}

// Get reads every requested line. Unrequested lines read as 0.
func (c *Chip) Get() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}

	var all uint32
	for _, reqs := range [][]request{c.inputs, c.outputs} {
		for _, r := range reqs {
			vals := make([]int, len(r.pins))
			if err := r.lines.Values(vals); err != nil {
				return 0, fmt.Errorf("read pins %v: %w", r.pins, err)
			}
			for i, pin := range r.pins {
				if vals[i] != 0 {
					all |= 1 << pin
				}
			}
		}
	}
	return all, nil
}

// WatchEdges enables edge detection on the input lines in mask.
func (c *Chip) WatchEdges(mask uint32, edges Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	var inputs uint32
	for _, r := range c.inputs {
		inputs |= r.mask
	}
	mask &= inputs
	if edges&EdgeRise != 0 {
		c.rise.Store(c.rise.Load() | mask)
	}
	if edges&EdgeFall != 0 {
		c.fall.Store(c.fall.Load() | mask)
	}
	return nil
}

// SetEdgeHandler installs the bank-wide handler.
func (c *Chip) SetEdgeHandler(h EdgeHandler) {
	c.handler.Store(&h)
}

// EnableEvents starts delivering edge events to the handler.
func (c *Chip) EnableEvents() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.enabled.Store(true)
	return nil
}

// Close releases all lines and the chip.
// Outputs are reverted to inputs first so the pins are left undriven.
// The lock is not held while lines close, as a running handler may need it.
func (c *Chip) Close() error {
	c.enabled.Store(false)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	inputs, outputs := c.inputs, c.outputs
	c.mu.Unlock()

	var errs []error
	for _, r := range inputs {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pins %v: %w", r.pins, err))
		}
	}
	for _, r := range outputs {
		if err := r.lines.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("revert output pins %v: %w", r.pins, err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output pins %v: %w", r.pins, err))
		}
	}
	if err := c.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// onEvent runs on the gpiocdev watcher goroutine of each input request.
func (c *Chip) onEvent(evt gpiocdev.LineEvent) {
	if !c.enabled.Load() {
		return
	}
	h := c.handler.Load()
	if h == nil || *h == nil {
		return
	}

	bit := uint32(1) << evt.Offset
	events, watched := EdgeFall, c.fall.Load()
	if evt.Type == gpiocdev.LineEventRisingEdge {
		events, watched = EdgeRise, c.rise.Load()
	}
	if watched&bit == 0 {
		return
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()
	(*h)(evt.Offset, events)
}
