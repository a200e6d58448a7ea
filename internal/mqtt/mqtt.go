// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
)

// Topic suffixes under the configured prefix.
const (
	TopicSightings = "sightings"
	TopicEvents    = "events"
	TopicSystem    = "system"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "badge/sensor"

// ErrRateLimited is returned by PublishSighting when the sighting budget is spent.
var ErrRateLimited = errors.New("sighting rate limited")

// Topic joins prefix and suffix.
func Topic(prefix, suffix string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "/" + suffix
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishSighting sends one registry update. It may return
	// ErrRateLimited, which callers should treat as a silent drop.
	PublishSighting(s nearby.Sighting) error

	// Publish sends an infection state change to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SightingPayload is the message published for each registry update.
type SightingPayload struct {
	ID       string        `json:"id"`
	Sighting SightingInner `json:"sighting"`
}

// SightingInner contains the sighting details.
type SightingInner struct {
	Timestamp  string `json:"timestamp"`
	Outcome    string `json:"outcome"`
	Addr       string `json:"addr"`
	Group      string `json:"group"`
	Year       string `json:"year"`
	Appearance uint16 `json:"appearance"`
	Name       string `json:"name,omitempty"`
	RSSI       int8   `json:"rssi"`
	Data       string `json:"data,omitempty"`
	Rabies     bool   `json:"rabies"`
}

// FormatSighting creates the payload for a registry update.
func FormatSighting(s nearby.Sighting, enc Encoding) ([]byte, error) {
	r := s.Record
	return enc.Marshal(SightingPayload{
		ID: newID(r.LastSeen),
		Sighting: SightingInner{
			Timestamp:  r.LastSeen.UTC().Format(time.RFC3339),
			Outcome:    s.Outcome.String(),
			Addr:       r.Addr.String(),
			Group:      r.Group.String(),
			Year:       r.Year.String(),
			Appearance: r.Appearance,
			Name:       r.NameString(),
			RSSI:       r.RSSI,
			Data:       hex.EncodeToString(r.Payload()),
			Rabies:     logic.HasRabies(r),
		},
	})
}

// Payload represents the infection event message.
type Payload struct {
	ID     string        `json:"id"`
	Rabies RabiesPayload `json:"rabies"`
}

// RabiesPayload contains the infection event details.
type RabiesPayload struct {
	Timestamp string          `json:"timestamp"`
	Event     string          `json:"event"`
	State     string          `json:"state"`
	Carrier   *CarrierPayload `json:"carrier,omitempty"`
}

// CarrierPayload identifies the badge that caused an exposure.
type CarrierPayload struct {
	Addr  string `json:"addr"`
	Group string `json:"group"`
	RSSI  int8   `json:"rssi"`
}

// FormatPayload creates the payload for an infection event.
func FormatPayload(event logic.Event, enc Encoding) ([]byte, error) {
	p := Payload{
		ID: newID(event.Timestamp),
		Rabies: RabiesPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
		},
	}
	if event.Type != logic.EventCleared {
		p.Rabies.Carrier = &CarrierPayload{
			Addr:  event.Carrier.Addr.String(),
			Group: event.Carrier.Group.String(),
			RSSI:  event.Carrier.RSSI,
		}
	}
	return enc.Marshal(p)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots,
// which are always JSON).
func FormatSystemPayload(event SystemEvent, enc Encoding) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return enc.Marshal(payload)
}
