// Package adv parses and builds BLE advertising payloads.
// A payload is a sequence of AD structures: {len}{type}{len-1 bytes of value}.
package adv

// MaxPacketLength is the largest legacy advertising or scan response payload.
const MaxPacketLength = 31

// MaxFieldLength is the most bytes kept from a variable-length field
// (manufacturer data, short name, long name).
const MaxFieldLength = 16

// AD types understood by the parser and builder.
const (
	TypeFlags            = 0x01 // Flags
	TypeShortName        = 0x08 // Shortened Local Name
	TypeCompleteName     = 0x09 // Complete Local Name
	TypeTxPower          = 0x0A // Tx Power Level
	TypeAppearance       = 0x19 // Appearance
	TypeManufacturerData = 0xFF // Manufacturer Specific Data
)

// Advertising flags
const (
	FlagGeneralDiscoverable = 0x02 // LE General Discoverable Mode
	FlagLEOnly              = 0x04 // BR/EDR Not Supported
)
