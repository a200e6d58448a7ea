// Package gpio drives the badge's infection indicator LED with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Indicator is a single on/off output.
type Indicator interface {
	// Set drives the output on or off.
	Set(on bool) error

	// Close releases GPIO resources, leaving the output off.
	Close() error
}

// DefaultPinLED is the BCM pin number of the indicator LED.
const DefaultPinLED = 17
