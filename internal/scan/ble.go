//go:build linux

package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"github.com/sweeney/badge-sensor/internal/adv"
	"github.com/sweeney/badge-sensor/internal/badge"
)

// BLERadio scans and advertises through a Linux HCI device.
type BLERadio struct {
	dev *linux.Device
}

// NewBLERadio opens HCI device hci<id>.
func NewBLERadio(id int) (*BLERadio, error) {
	dev, err := linux.NewDevice(ble.OptDeviceID(id))
	if err != nil {
		return nil, fmt.Errorf("open hci%d: %w", id, err)
	}
	return &BLERadio{dev: dev}, nil
}

// Scan delivers advertisements, duplicates included, until ctx is done.
func (r *BLERadio) Scan(ctx context.Context, h Handler) error {
	return r.dev.Scan(ctx, true, func(a ble.Advertisement) {
		addr, err := badge.ParseAddr(a.Addr().String())
		if err != nil {
			log.Printf("scan: skipping advertisement: %v", err)
			return
		}
		h(Event{
			Addr:    addr,
			RSSI:    ClampRSSI(a.RSSI()),
			Payload: payloadOf(a),
			Time:    time.Now(),
		})
	})
}

// Advertise broadcasts payload unchanged until ctx is done. The name goes
// into the scan response.
func (r *BLERadio) Advertise(ctx context.Context, name string, payload adv.Packet) error {
	return advertiseRaw(ctx, r.dev.HCI, name, payload)
}

// Close stops the HCI device.
func (r *BLERadio) Close() error {
	return r.dev.Stop()
}
