// Package sensor reads the badge's VL6180X time-of-flight ranging and
// ambient light sensors. Readings and status codes are surfaced verbatim;
// nothing here retries.
package sensor

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a measurement does not complete in time.
var ErrTimeout = errors.New("sensor: measurement timed out")

// Selector picks one of the physically addressed sensors.
type Selector int

const (
	SelectorDefault Selector = iota // factory address, before re-addressing
	Selector1
	Selector2
)

// I2C addresses for each selector.
const (
	AddrDefault uint16 = 0x29
	Addr1       uint16 = 0x41
	Addr2       uint16 = 0x42
)

// Address returns the 7-bit I2C address for s.
func (s Selector) Address() uint16 {
	switch s {
	case Selector1:
		return Addr1
	case Selector2:
		return Addr2
	}
	return AddrDefault
}

func (s Selector) String() string {
	switch s {
	case Selector1:
		return "tof1"
	case Selector2:
		return "tof2"
	}
	return "default"
}

// RangeStatus is the vendor error code from the range status register (0-15).
type RangeStatus uint8

const (
	StatusOK          RangeStatus = 0
	StatusSysErr1     RangeStatus = 1
	StatusSysErr5     RangeStatus = 5
	StatusECEFail     RangeStatus = 6
	StatusNoConverge  RangeStatus = 7
	StatusRangeIgnore RangeStatus = 8
	StatusSNR         RangeStatus = 11
	StatusRawUFlow    RangeStatus = 12
	StatusRawOFlow    RangeStatus = 13
	StatusRangeUFlow  RangeStatus = 14
	StatusRangeOFlow  RangeStatus = 15
)

// String names the status code.
func (s RangeStatus) String() string {
	switch {
	case s == StatusOK:
		return "ok"
	case s >= StatusSysErr1 && s <= StatusSysErr5:
		return "system error"
	case s == StatusECEFail:
		return "early convergence estimate failed"
	case s == StatusNoConverge:
		return "no target"
	case s == StatusRangeIgnore:
		return "ignore threshold failed"
	case s == StatusSNR:
		return "ambient too high"
	case s == StatusRawUFlow:
		return "raw underflow"
	case s == StatusRawOFlow:
		return "raw overflow"
	case s == StatusRangeUFlow:
		return "range underflow"
	case s == StatusRangeOFlow:
		return "range overflow"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Gain is the ambient light analogue gain setting.
type Gain uint8

const (
	Gain20   Gain = 0x00
	Gain10   Gain = 0x01
	Gain5    Gain = 0x02
	Gain2_5  Gain = 0x03
	Gain1_67 Gain = 0x04
	Gain1_25 Gain = 0x05
	Gain1    Gain = 0x06
	Gain40   Gain = 0x07
)

// Factor returns the multiplier for g. Unknown settings clamp to Gain40.
func (g Gain) Factor() float64 {
	switch g {
	case Gain1:
		return 1
	case Gain1_25:
		return 1.25
	case Gain1_67:
		return 1.67
	case Gain2_5:
		return 2.5
	case Gain5:
		return 5
	case Gain10:
		return 10
	case Gain20:
		return 20
	}
	return 40
}

// Ranger reads range and light measurements.
type Ranger interface {
	// ReadRange returns the distance to the target in millimetres.
	ReadRange(s Selector) (uint8, error)

	// ReadRangeStatus returns the status of the last range measurement.
	ReadRangeStatus(s Selector) (RangeStatus, error)

	// ReadLux returns the ambient light level in lux.
	ReadLux(s Selector, g Gain) (float64, error)

	// Close releases the bus.
	Close() error
}

// Reading is one full sample from a sensor.
type Reading struct {
	Selector Selector
	RangeMM  uint8
	Status   RangeStatus
	Lux      float64
}

// Sample takes a range, status and lux reading from s.
// The first error stops the sample; the partial reading is returned with it.
func Sample(r Ranger, s Selector, g Gain) (Reading, error) {
	out := Reading{Selector: s}
	var err error
	if out.RangeMM, err = r.ReadRange(s); err != nil {
		return out, fmt.Errorf("read range %s: %w", s, err)
	}
	if out.Status, err = r.ReadRangeStatus(s); err != nil {
		return out, fmt.Errorf("read range status %s: %w", s, err)
	}
	if out.Lux, err = r.ReadLux(s, g); err != nil {
		return out, fmt.Errorf("read lux %s: %w", s, err)
	}
	return out, nil
}
