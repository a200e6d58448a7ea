package adv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacketAppendField(t *testing.T) {
	p := Packet(nil).AppendField(0x42, []byte{1, 2, 3})
	assert.Equal(t, []byte{0x04, 0x42, 1, 2, 3}, p.Bytes())
}

func TestPacketAppendAppearanceLittleEndian(t *testing.T) {
	p := Packet(nil).AppendAppearance(0x27DC)
	assert.Equal(t, []byte{0x03, TypeAppearance, 0xDC, 0x27}, p.Bytes())
}

func TestPacketAppendManufacturerData(t *testing.T) {
	p := Packet(nil).AppendManufacturerData(0x5050, []byte{0x35})
	assert.Equal(t, []byte{0x04, TypeManufacturerData, 0x50, 0x50, 0x35}, p.Bytes())
}

func TestPacketNames(t *testing.T) {
	p := Packet(nil).AppendShortName("DC").AppendCompleteName("DCZia")
	assert.Equal(t, []byte{0x03, TypeShortName, 'D', 'C', 0x06, TypeCompleteName, 'D', 'C', 'Z', 'i', 'a'}, p.Bytes())
}

func TestPacketFits(t *testing.T) {
	p := Packet(nil).AppendFlags(FlagGeneralDiscoverable).AppendCompleteName("0123456789012345678901234")
	assert.True(t, p.Fits())
	p = p.AppendAppearance(0x27DC)
	assert.False(t, p.Fits())
}
