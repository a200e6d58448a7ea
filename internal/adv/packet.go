package adv

import "encoding/binary"

// Packet is a raw advertising payload under construction.
type Packet []byte

// AppendField appends an AD structure. Values that would push a length byte
// past 255 are cut short.
func (p Packet) AppendField(typ byte, b []byte) Packet {
	if len(b) > 254 {
		b = b[:254]
	}
	p = append(p, byte(len(b)+1), typ)
	return append(p, b...)
}

// AppendFlags appends a flags field.
func (p Packet) AppendFlags(f byte) Packet {
	return p.AppendField(TypeFlags, []byte{f})
}

// AppendAppearance appends a little-endian appearance field.
func (p Packet) AppendAppearance(a uint16) Packet {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], a)
	return p.AppendField(TypeAppearance, b[:])
}

// AppendManufacturerData appends a manufacturer field: company id (LE) then data.
func (p Packet) AppendManufacturerData(id uint16, data []byte) Packet {
	b := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(b, id)
	return p.AppendField(TypeManufacturerData, append(b, data...))
}

// AppendShortName appends a shortened local name field.
func (p Packet) AppendShortName(n string) Packet {
	return p.AppendField(TypeShortName, []byte(n))
}

// AppendCompleteName appends a complete local name field.
func (p Packet) AppendCompleteName(n string) Packet {
	return p.AppendField(TypeCompleteName, []byte(n))
}

// Fits reports whether the packet fits in a single legacy advertisement.
func (p Packet) Fits() bool {
	return len(p) <= MaxPacketLength
}

// Bytes returns the payload.
func (p Packet) Bytes() []byte {
	return p
}
