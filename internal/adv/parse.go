package adv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a block's length byte runs past the end of the payload.
var ErrTruncated = errors.New("adv: block runs past end of payload")

// ErrShortField is returned when a manufacturer block is too short to hold
// its company id.
var ErrShortField = errors.New("adv: field shorter than its encoding")

// Advertisement holds the fields decoded from one payload.
// Variable-length fields are capped at MaxFieldLength bytes.
type Advertisement struct {
	Appearance     uint16
	ManufacturerID uint16

	manufacturerData [MaxFieldLength]byte
	manufacturerLen  uint8
	shortName        [MaxFieldLength]byte
	shortNameLen     uint8
	longName         [MaxFieldLength]byte
	longNameLen      uint8
}

// ManufacturerData returns the manufacturer bytes following the company id.
// The slice aliases the Advertisement; copy it to keep it.
func (a *Advertisement) ManufacturerData() []byte {
	return a.manufacturerData[:a.manufacturerLen]
}

// ShortName returns the shortened local name, if any.
func (a *Advertisement) ShortName() string {
	return string(a.shortName[:a.shortNameLen])
}

// LongName returns the complete local name, if any.
func (a *Advertisement) LongName() string {
	return string(a.longName[:a.longNameLen])
}

// Name returns the complete name when present, otherwise the short name.
func (a *Advertisement) Name() string {
	if a.longNameLen > 0 {
		return a.LongName()
	}
	return a.ShortName()
}

// Parse decodes payload into an Advertisement.
//
// A zero length byte, or the end of the payload, ends the walk. Unknown block
// types are skipped. The appearance value is always the two bytes after its
// type byte; when the block declares fewer, the walk resumes after those two
// bytes. On error the returned Advertisement still carries every field decoded
// before the bad block; callers must not trust it.
func Parse(payload []byte) (Advertisement, error) {
	var a Advertisement
	off := 0
	for off < len(payload) {
		l := int(payload[off])
		if l == 0 {
			break
		}
		end := off + 1 + l
		if end > len(payload) {
			return a, fmt.Errorf("%w: length %d at offset %d, %d bytes left", ErrTruncated, l, off, len(payload)-off-1)
		}
		typ := payload[off+1]
		if typ == TypeAppearance && end < off+4 {
			end = off + 4
			if end > len(payload) {
				return a, fmt.Errorf("%w: appearance at offset %d, %d bytes left", ErrTruncated, off, len(payload)-off-2)
			}
		}
		value := payload[off+2 : end]

		switch typ {
		case TypeAppearance:
			a.Appearance = binary.LittleEndian.Uint16(value)
		case TypeManufacturerData:
			if len(value) < 2 {
				return a, fmt.Errorf("%w: manufacturer id at offset %d", ErrShortField, off)
			}
			a.ManufacturerID = binary.LittleEndian.Uint16(value)
			a.manufacturerLen = uint8(copy(a.manufacturerData[:], value[2:]))
		case TypeCompleteName:
			a.longNameLen = uint8(copy(a.longName[:], value))
		case TypeShortName:
			a.shortNameLen = uint8(copy(a.shortName[:], value))
		}

		off = end
	}
	return a, nil
}
