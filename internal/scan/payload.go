package scan

import (
	"context"
	"fmt"

	"github.com/sweeney/badge-sensor/internal/adv"
)

// advertisement is the subset of a driver advertisement used to recover its payload.
type advertisement interface {
	LocalName() string
	ManufacturerData() []byte
}

// payloadOf returns the raw advertising payload (plus scan response) when the
// driver exposes it, and otherwise rebuilds one from the decoded fields.
func payloadOf(a advertisement) adv.Packet {
	if raw, ok := a.(interface{ Data() []byte }); ok {
		p := append(adv.Packet(nil), raw.Data()...)
		if sr, ok := a.(interface{ ScanResponse() []byte }); ok {
			p = append(p, sr.ScanResponse()...)
		}
		return p
	}

	var p adv.Packet
	if md := a.ManufacturerData(); len(md) > 0 {
		p = p.AppendField(adv.TypeManufacturerData, md)
	}
	if n := a.LocalName(); n != "" {
		p = p.AppendCompleteName(n)
	}
	return p
}

// hciAdvertiser is the part of an HCI controller that broadcasts raw AD data.
type hciAdvertiser interface {
	SetAdvertisement(ad []byte, sr []byte) error
	Advertise() error
	StopAdvertising() error
}

// advertiseRaw puts payload on air byte for byte, with name as the complete
// local name in the scan response, until ctx is done.
func advertiseRaw(ctx context.Context, h hciAdvertiser, name string, payload adv.Packet) error {
	if !payload.Fits() {
		return fmt.Errorf("advertise: payload is %d bytes, max %d", len(payload), adv.MaxPacketLength)
	}
	var sr adv.Packet
	if name != "" {
		sr = sr.AppendCompleteName(name)
		if !sr.Fits() {
			sr = nil
		}
	}
	if err := h.SetAdvertisement(payload, sr); err != nil {
		return fmt.Errorf("set advertisement: %w", err)
	}
	if err := h.Advertise(); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}
	<-ctx.Done()
	h.StopAdvertising()
	return ctx.Err()
}
