package scan

import (
	"context"
	"sync"

	"github.com/sweeney/badge-sensor/internal/adv"
)

// Advertisement records one call to FakeRadio.Advertise.
type Advertisement struct {
	Name    string
	Payload adv.Packet
}

// FakeRadio is a test double that replays scripted events.
type FakeRadio struct {
	// Events are delivered in order by Scan, which then blocks until ctx is done.
	Events []Event

	// ScanError, if set, is returned by Scan before any event is delivered.
	ScanError error

	// AdvertiseError, if set, is returned by Advertise.
	AdvertiseError error

	mu         sync.Mutex
	advertised []Advertisement
	closed     bool
}

// NewFakeRadio creates a FakeRadio with the given events.
func NewFakeRadio(events []Event) *FakeRadio {
	return &FakeRadio{Events: events}
}

// Scan delivers the scripted events, then waits for ctx.
func (f *FakeRadio) Scan(ctx context.Context, h Handler) error {
	if f.ScanError != nil {
		return f.ScanError
	}
	for _, e := range f.Events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h(e)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Advertise records the advertisement and waits for ctx.
func (f *FakeRadio) Advertise(ctx context.Context, name string, payload adv.Packet) error {
	if f.AdvertiseError != nil {
		return f.AdvertiseError
	}
	f.mu.Lock()
	f.advertised = append(f.advertised, Advertisement{Name: name, Payload: append(adv.Packet(nil), payload...)})
	f.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

// Advertised returns a copy of every advertisement started so far.
func (f *FakeRadio) Advertised() []Advertisement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Advertisement(nil), f.advertised...)
}

// Close marks the radio as closed.
func (f *FakeRadio) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeRadio) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
