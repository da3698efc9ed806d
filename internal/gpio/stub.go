//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// NewChip returns an error on non-Linux platforms.
func NewChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// SetInputs is not implemented on non-Linux platforms.
func (c *Chip) SetInputs(mask uint32, bias Bias) error { return errUnsupported }

func (c *Chip) SetOutputs(mask uint32) error { return errUnsupported }

func (c *Chip) PutMasked(mask, value uint32) error { return errUnsupported }

func (c *Chip) Get() (uint32, error) { return 0, errUnsupported }

func (c *Chip) WatchEdges(mask uint32, edges Edge) error { return errUnsupported }

func (c *Chip) SetEdgeHandler(h EdgeHandler) {}

func (c *Chip) EnableEvents() error { return errUnsupported }

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}
