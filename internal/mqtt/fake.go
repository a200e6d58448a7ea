package mqtt

import (
	"sync"

	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Sightings contains all registry updates that were published.
	Sightings []nearby.Sighting

	// Events contains all infection events that were published.
	Events []logic.Event

	// Payloads contains the JSON payloads for infection events.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// SightingError, if set, will be returned by PublishSighting.
	SightingError error

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishSighting records the registry update.
func (f *FakePublisher) PublishSighting(s nearby.Sighting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SightingError != nil {
		return f.SightingError
	}
	f.Sightings = append(f.Sightings, s)
	return nil
}

// Publish records the infection event.
func (f *FakePublisher) Publish(event logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event, EncodingJSON)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event, EncodingJSON)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Snapshot returns copies of the recorded sightings, events and system events.
func (f *FakePublisher) Snapshot() ([]nearby.Sighting, []logic.Event, []SystemEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]nearby.Sighting(nil), f.Sightings...),
		append([]logic.Event(nil), f.Events...),
		append([]SystemEvent(nil), f.SystemEvents...)
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sightings = nil
	f.Events = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.SightingError = nil
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
