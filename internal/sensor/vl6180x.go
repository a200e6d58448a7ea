package sensor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// VL6180X registers
const (
	regModelID             = 0x000
	regInterruptConfig     = 0x014
	regInterruptClear      = 0x015
	regFreshOutOfReset     = 0x016
	regRangeStart          = 0x018
	regALSStart            = 0x038
	regALSGain             = 0x03F
	regALSPeriodHi         = 0x040
	regALSPeriodLo         = 0x041
	regRangeStatus         = 0x04D
	regInterruptStatusGPIO = 0x04F
	regALSValue            = 0x050
	regRangeValue          = 0x062
)

const modelID = 0xB4

// luxPerCount is the calibrated ALS count-to-lux factor at 100ms integration.
const luxPerCount = 0.32

// tuning is the recommended private and public register setup from the
// vendor application note, applied once after reset.
var tuning = []struct {
	reg uint16
	val byte
}{
	{0x0207, 0x01}, {0x0208, 0x01}, {0x0096, 0x00}, {0x0097, 0xFD},
	{0x00E3, 0x00}, {0x00E4, 0x04}, {0x00E5, 0x02}, {0x00E6, 0x01},
	{0x00E7, 0x03}, {0x00F5, 0x02}, {0x00D9, 0x05}, {0x00DB, 0xCE},
	{0x00DC, 0x03}, {0x00DD, 0xF8}, {0x009F, 0x00}, {0x00A3, 0x3C},
	{0x00B7, 0x00}, {0x00BB, 0x3C}, {0x00B2, 0x09}, {0x00CA, 0x09},
	{0x0198, 0x01}, {0x01B0, 0x17}, {0x01AD, 0x00}, {0x00FF, 0x05},
	{0x0100, 0x05}, {0x0199, 0x05}, {0x01A6, 0x1B}, {0x01AC, 0x3E},
	{0x01A7, 0x1F}, {0x0030, 0x00},
	{0x0011, 0x10}, // GPIO1 active high, new sample ready interrupt
	{0x010A, 0x30}, // averaging sample period
	{0x003F, 0x46}, // light and dark gain
	{0x0031, 0xFF}, // auto calibration period
	{0x0040, 0x63}, // ALS integration time 100ms
	{0x002E, 0x01}, // temperature calibration
	{0x001B, 0x09}, // ranging inter-measurement period 100ms
	{0x003E, 0x31}, // ALS inter-measurement period 500ms
	{0x0014, 0x24}, // new sample ready interrupt
}

// device is one addressed sensor on the bus; *i2c.Dev satisfies it.
type device interface {
	Tx(w, r []byte) error
}

// VL6180X drives one or more VL6180X sensors sharing an I2C bus.
type VL6180X struct {
	bus     io.Closer
	devs    map[Selector]device
	poll    time.Duration
	timeout time.Duration
	sleep   func(time.Duration)
}

// Open initialises periph.io, opens the named I2C bus ("" for the first one)
// and configures a sensor at each selector's address.
func Open(busName string, selectors ...Selector) (*VL6180X, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	if len(selectors) == 0 {
		selectors = []Selector{SelectorDefault}
	}
	devs := make(map[Selector]device, len(selectors))
	for _, s := range selectors {
		devs[s] = &i2c.Dev{Bus: b, Addr: s.Address()}
	}

	v := newVL6180X(b, devs)
	for _, s := range selectors {
		if err := v.begin(s); err != nil {
			b.Close()
			return nil, err
		}
	}
	return v, nil
}

func newVL6180X(bus io.Closer, devs map[Selector]device) *VL6180X {
	return &VL6180X{
		bus:     bus,
		devs:    devs,
		poll:    time.Millisecond,
		timeout: 500 * time.Millisecond,
		sleep:   time.Sleep,
	}
}

// begin checks the model id and loads the tuning table.
func (v *VL6180X) begin(s Selector) error {
	id, err := v.read8(s, regModelID)
	if err != nil {
		return fmt.Errorf("probe %s: %w", s, err)
	}
	if id != modelID {
		return fmt.Errorf("probe %s: unexpected model id %#02x", s, id)
	}
	for _, t := range tuning {
		if err := v.write8(s, t.reg, t.val); err != nil {
			return fmt.Errorf("configure %s: %w", s, err)
		}
	}
	if err := v.write8(s, regFreshOutOfReset, 0x00); err != nil {
		return fmt.Errorf("configure %s: %w", s, err)
	}
	return nil
}

// ReadRange performs a single-shot range measurement.
func (v *VL6180X) ReadRange(s Selector) (uint8, error) {
	if err := v.waitFor(s, regRangeStatus, func(b byte) bool { return b&0x01 != 0 }); err != nil {
		return 0, err
	}
	if err := v.write8(s, regRangeStart, 0x01); err != nil {
		return 0, err
	}
	if err := v.waitFor(s, regInterruptStatusGPIO, func(b byte) bool { return b&0x04 != 0 }); err != nil {
		return 0, err
	}
	mm, err := v.read8(s, regRangeValue)
	if err != nil {
		return 0, err
	}
	return mm, v.write8(s, regInterruptClear, 0x07)
}

// ReadRangeStatus returns the error code of the last range measurement.
func (v *VL6180X) ReadRangeStatus(s Selector) (RangeStatus, error) {
	b, err := v.read8(s, regRangeStatus)
	if err != nil {
		return 0, err
	}
	return RangeStatus(b >> 4), nil
}

// ReadLux performs a single-shot ambient light measurement with 100ms integration.
func (v *VL6180X) ReadLux(s Selector, g Gain) (float64, error) {
	cfg, err := v.read8(s, regInterruptConfig)
	if err != nil {
		return 0, err
	}
	cfg = cfg&^0x38 | 0x4<<3 // ALS new sample ready
	if g > Gain40 {
		g = Gain40
	}
	for _, w := range []struct {
		reg uint16
		val byte
	}{
		{regInterruptConfig, cfg},
		{regALSPeriodHi, 0},
		{regALSPeriodLo, 100},
		{regALSGain, 0x40 | byte(g)},
		{regALSStart, 0x01},
	} {
		if err := v.write8(s, w.reg, w.val); err != nil {
			return 0, err
		}
	}
	if err := v.waitFor(s, regInterruptStatusGPIO, func(b byte) bool { return (b>>3)&0x7 == 4 }); err != nil {
		return 0, err
	}
	count, err := v.read16(s, regALSValue)
	if err != nil {
		return 0, err
	}
	if err := v.write8(s, regInterruptClear, 0x07); err != nil {
		return 0, err
	}
	return float64(count) * luxPerCount / g.Factor(), nil
}

// Close releases the bus.
func (v *VL6180X) Close() error {
	if v.bus == nil {
		return nil
	}
	return v.bus.Close()
}

func (v *VL6180X) waitFor(s Selector, reg uint16, ready func(byte) bool) error {
	for waited := time.Duration(0); ; waited += v.poll {
		b, err := v.read8(s, reg)
		if err != nil {
			return err
		}
		if ready(b) {
			return nil
		}
		if waited >= v.timeout {
			return fmt.Errorf("%w: %s register %#03x", ErrTimeout, s, reg)
		}
		v.sleep(v.poll)
	}
}

var errNoDevice = errors.New("sensor: selector not configured")

func (v *VL6180X) dev(s Selector) (device, error) {
	d, ok := v.devs[s]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoDevice, s)
	}
	return d, nil
}

func (v *VL6180X) write8(s Selector, reg uint16, val byte) error {
	d, err := v.dev(s)
	if err != nil {
		return err
	}
	return d.Tx([]byte{byte(reg >> 8), byte(reg), val}, nil)
}

func (v *VL6180X) read8(s Selector, reg uint16) (byte, error) {
	d, err := v.dev(s)
	if err != nil {
		return 0, err
	}
	var r [1]byte
	if err := d.Tx([]byte{byte(reg >> 8), byte(reg)}, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (v *VL6180X) read16(s Selector, reg uint16) (uint16, error) {
	d, err := v.dev(s)
	if err != nil {
		return 0, err
	}
	var r [2]byte
	if err := d.Tx([]byte{byte(reg >> 8), byte(reg)}, r[:]); err != nil {
		return 0, err
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}
