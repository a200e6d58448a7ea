//go:build !linux

package scan

import (
	"context"

	"github.com/sweeney/badge-sensor/internal/adv"
)

// BLERadio is not available on non-Linux platforms.
type BLERadio struct{}

// NewBLERadio returns ErrUnsupported on non-Linux platforms.
func NewBLERadio(id int) (*BLERadio, error) {
	return nil, ErrUnsupported
}

// Scan is not implemented on non-Linux platforms.
func (r *BLERadio) Scan(ctx context.Context, h Handler) error {
	return ErrUnsupported
}

// Advertise is not implemented on non-Linux platforms.
func (r *BLERadio) Advertise(ctx context.Context, name string, payload adv.Packet) error {
	return ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *BLERadio) Close() error {
	return nil
}
