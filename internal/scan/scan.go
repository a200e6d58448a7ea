// Package scan abstracts the BLE radio: passive scanning and advertising.
// The real implementation uses the Linux HCI socket via go-ble.
// The fake implementation allows testing without hardware.
package scan

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/badge-sensor/internal/adv"
	"github.com/sweeney/badge-sensor/internal/badge"
)

// ErrUnsupported is returned by the radio on platforms without BLE support.
var ErrUnsupported = errors.New("scan: not supported on this platform (requires Linux)")

// Event is one received advertisement.
type Event struct {
	Addr    badge.Addr
	RSSI    int8
	Payload []byte
	Time    time.Time
}

// Handler receives scan events. It is called from the radio's goroutine and
// must return quickly.
type Handler func(Event)

// Radio scans for and broadcasts advertisements.
type Radio interface {
	// Scan delivers every received advertisement to h until ctx is done.
	Scan(ctx context.Context, h Handler) error

	// Advertise broadcasts payload under the given local name until ctx is done.
	Advertise(ctx context.Context, name string, payload adv.Packet) error

	// Close releases the radio.
	Close() error
}

// ClampRSSI converts a driver RSSI reading to the int8 range.
func ClampRSSI(rssi int) int8 {
	switch {
	case rssi < -128:
		return -128
	case rssi > 127:
		return 127
	}
	return int8(rssi)
}
