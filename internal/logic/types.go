// Package logic contains the game logic that runs on registry snapshots.
// This package has NO I/O dependencies (no radio, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/badge-sensor/internal/badge"
)

// State is the local badge's infection state.
type State string

const (
	StateHealthy  State = "HEALTHY"
	StateExposed  State = "EXPOSED"
	StateInfected State = "INFECTED"
)

// EventType represents an infection state transition.
type EventType string

const (
	EventExposed  EventType = "EXPOSED"
	EventCleared  EventType = "CLEARED"
	EventInfected EventType = "INFECTED"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State

	// Carrier is the closest rabid badge at the time of the event.
	// Zero for EventCleared.
	Carrier badge.Record
}

// Input is one registry snapshot taken at Time.
type Input struct {
	Nearby []badge.Record
	Time   time.Time
}

// Config holds the detector's tuning.
type Config struct {
	// Threshold is the weakest RSSI (dBm) at which a carrier counts as close.
	Threshold int8

	// Incubation is how long exposure must last before infection.
	Incubation time.Duration

	// Window ignores records not seen within this long; 0 disables the check.
	Window time.Duration
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Exposed  int
	Cleared  int
	Infected int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
