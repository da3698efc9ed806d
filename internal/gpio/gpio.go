// Package gpio provides a bitmask-addressed GPIO bank with edge event dispatch.
// The real implementation uses the Linux GPIO character device.
// The simulated implementation allows testing without hardware.
package gpio

// Consumer labels lines requested from the kernel.
const Consumer = "gpio-mirror"

// Lines is the number of lines in a bank. Bit n of a mask or value is line n.
const Lines = 32

// Bias selects the pull resistor applied to input lines.
type Bias int

const (
	BiasNone Bias = iota
	BiasPullUp
	BiasPullDown
)

// Edge is a bitmask of edge types.
type Edge uint32

const (
	EdgeFall Edge = 1 << iota
	EdgeRise

	EdgeBoth = EdgeFall | EdgeRise
)

// EdgeHandler is the bank-wide edge callback. It receives the line that
// changed and the edges seen on it.
type EdgeHandler func(pin int, events Edge)

// Bank is a bank of GPIO lines addressed by bitmask.
//
// Mask arguments select lines; lines outside the relevant direction are
// ignored. Overlapping input and output masks are not checked.
type Bank interface {
	// SetInputs makes the lines in mask inputs with the given bias.
	SetInputs(mask uint32, bias Bias) error

	// SetOutputs makes the lines in mask outputs, initially driven low.
	SetOutputs(mask uint32) error

	// PutMasked drives each output line in mask to the matching bit of value.
	// Output lines outside mask keep their level.
	PutMasked(mask, value uint32) error

	// Get returns the level of every line in the bank.
	Get() (uint32, error)

	// WatchEdges enables detection of the given edges on the input lines in mask.
	WatchEdges(mask uint32, edges Edge) error

	// SetEdgeHandler installs the handler for every line in the bank,
	// replacing any previous one.
	SetEdgeHandler(h EdgeHandler)

	// EnableEvents starts delivering detected edges to the handler.
	// Edges detected before this call are dropped.
	EnableEvents() error

	// Close releases GPIO resources.
	Close() error
}

// Pins returns the line numbers set in mask, lowest first.
func Pins(mask uint32) []int {
	var pins []int
	for pin := 0; pin < Lines; pin++ {
		if mask&(1<<pin) != 0 {
			pins = append(pins, pin)
		}
	}
	return pins
}
