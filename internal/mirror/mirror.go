// Package mirror drives a bank of sixteen outputs from two pull-up switch inputs.
//
// On every edge of either switch the handler resamples both switches and
// writes them, shifted to bits 0-1, across the whole output mask. Bits 2-15
// are therefore always driven low. A bounce produces one write per edge.
package mirror

import (
	"fmt"
	"log"

	"github.com/sweeney/gpio-mirror/internal/gpio"
	"github.com/sweeney/gpio-mirror/internal/status"
)

// Pin definitions (bank line numbers)
const (
	PinSwitchR = 16 // right switch, output bit 0
	PinSwitchL = 17 // left switch, output bit 1
)

const (
	// InputMask selects the two switch lines.
	InputMask uint32 = 1<<PinSwitchL | 1<<PinSwitchR

	// OutputMask selects the sixteen output lines.
	OutputMask uint32 = 0xffff

	// InitialOutput is written to the outputs at startup, before any edge.
	// It is a fixed default and is not derived from the switches.
	InitialOutput uint32 = 3
)

// Sample extracts the switch bits from a bank snapshot.
// A released switch reads 1, a pressed one 0.
func Sample(all uint32) uint32 {
	return (all & InputMask) >> PinSwitchR
}

// Mirror owns the mirror wiring on a bank.
type Mirror struct {
	bank    gpio.Bank
	tracker *status.Tracker
}

// New creates a Mirror for bank. tracker may be nil.
func New(bank gpio.Bank, tracker *status.Tracker) *Mirror {
	return &Mirror{bank: bank, tracker: tracker}
}

// Init configures the bank and enables edge events. It must run once,
// before any edge can be delivered.
func (m *Mirror) Init() error {
	if err := m.bank.SetInputs(InputMask, gpio.BiasPullUp); err != nil {
		return fmt.Errorf("configure inputs: %w", err)
	}
	if err := m.bank.SetOutputs(OutputMask); err != nil {
		return fmt.Errorf("configure outputs: %w", err)
	}
	if err := m.bank.PutMasked(OutputMask, InitialOutput); err != nil {
		return fmt.Errorf("write initial output: %w", err)
	}
	if m.tracker != nil {
		m.tracker.SetOutput(InitialOutput)
	}
	if err := m.bank.WatchEdges(InputMask, gpio.EdgeBoth); err != nil {
		return fmt.Errorf("watch switch edges: %w", err)
	}
	m.bank.SetEdgeHandler(m.Handle)
	if err := m.bank.EnableEvents(); err != nil {
		return fmt.Errorf("enable edge events: %w", err)
	}
	return nil
}

// Handle is the bank-wide edge handler. pin and events are ignored: every
// edge resamples both switches.
func (m *Mirror) Handle(pin int, events gpio.Edge) {
	if err := m.mirror(); err != nil {
		log.Printf("edge on pin %d: %v", pin, err)
		if m.tracker != nil {
			m.tracker.RecordError(err)
		}
	}
}

func (m *Mirror) mirror() error {
	all, err := m.bank.Get()
	if err != nil {
		return fmt.Errorf("read bank: %w", err)
	}
	sw := Sample(all)
	if err := m.bank.PutMasked(OutputMask, sw); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	if m.tracker != nil {
		m.tracker.RecordEdge(sw, sw)
	}
	return nil
}
