package badge

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/sweeney/badge-sensor/internal/adv"
)

// NameLength is the size of Record.Name, including the NUL terminator.
const NameLength = adv.MaxFieldLength + 1

// Addr is a 6-byte BLE hardware address, most significant byte first.
type Addr [6]byte

// ParseAddr parses a colon-separated hardware address such as "c0:ff:ee:00:11:22".
func ParseAddr(s string) (Addr, error) {
	var a Addr
	hw, err := net.ParseMAC(s)
	if err != nil {
		return a, fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(hw) != len(a) {
		return a, fmt.Errorf("parse address %q: want 6 bytes, got %d", s, len(hw))
	}
	copy(a[:], hw)
	return a, nil
}

// String formats the address as lowercase colon-separated hex.
func (a Addr) String() string {
	return net.HardwareAddr(a[:]).String()
}

// Record is what the registry keeps for one nearby badge.
type Record struct {
	Group      Group
	Year       Year
	Appearance uint16
	Data       [adv.MaxFieldLength]byte
	DataLen    uint8
	Name       [NameLength]byte
	Addr       Addr
	RSSI       int8
	LastSeen   time.Time
}

// NewRecord builds a classified record from one observation.
func NewRecord(addr Addr, rssi int8, a *adv.Advertisement, seen time.Time) Record {
	g, y := Classify(a)
	r := Record{
		Group:      g,
		Year:       y,
		Appearance: a.Appearance,
		Addr:       addr,
		RSSI:       rssi,
		LastSeen:   seen,
	}
	r.DataLen = uint8(copy(r.Data[:], a.ManufacturerData()))
	r.SetName(a.Name())
	return r
}

// SetName stores up to NameLength-1 bytes of n, always leaving a NUL terminator.
func (r *Record) SetName(n string) {
	r.Name = [NameLength]byte{}
	copy(r.Name[:NameLength-1], n)
}

// NameString returns the name up to the first NUL.
func (r *Record) NameString() string {
	if i := bytes.IndexByte(r.Name[:], 0); i >= 0 {
		return string(r.Name[:i])
	}
	return string(r.Name[:])
}

// Payload returns the stored manufacturer data.
func (r *Record) Payload() []byte {
	return r.Data[:r.DataLen]
}

// Classified reports whether the record matched a catalog group.
func (r *Record) Classified() bool {
	return r.Group != GroupNone
}
