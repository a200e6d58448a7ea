package logic

import (
	"time"

	"github.com/sweeney/badge-sensor/internal/badge"
)

// Detector tracks exposure to rabid badges and decides when the local badge
// becomes infected. Infection is permanent for the life of the detector.
type Detector struct {
	cfg           Config
	state         State
	exposedSince  time.Time
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a healthy detector.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(cfg Config, startTime time.Time) *Detector {
	return &Detector{
		cfg:           cfg,
		state:         StateHealthy,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a registry snapshot and returns any events that should be emitted.
func (d *Detector) Process(input Input) []Event {
	if d.state == StateInfected {
		return nil
	}

	carrier, found := d.closestCarrier(input)
	if !found {
		if d.state == StateExposed {
			d.state = StateHealthy
			d.eventCounts.Cleared++
			return []Event{{Timestamp: input.Time, Type: EventCleared, State: d.state}}
		}
		return nil
	}

	var events []Event
	if d.state == StateHealthy {
		d.state = StateExposed
		d.exposedSince = input.Time
		d.eventCounts.Exposed++
		events = append(events, Event{Timestamp: input.Time, Type: EventExposed, State: d.state, Carrier: carrier})
	}

	// Exposure has lasted long enough
	if input.Time.Sub(d.exposedSince) >= d.cfg.Incubation {
		d.state = StateInfected
		d.eventCounts.Infected++
		events = append(events, Event{Timestamp: input.Time, Type: EventInfected, State: d.state, Carrier: carrier})
	}
	return events
}

// closestCarrier returns the strongest-signal rabid badge that is close and fresh.
func (d *Detector) closestCarrier(input Input) (carrier badge.Record, found bool) {
	for _, r := range input.Nearby {
		if !HasRabies(r) || r.RSSI < d.cfg.Threshold {
			continue
		}
		if d.cfg.Window > 0 && input.Time.Sub(r.LastSeen) > d.cfg.Window {
			continue
		}
		if !found || r.RSSI > carrier.RSSI {
			carrier, found = r, true
		}
	}
	return carrier, found
}

// Infected reports whether the local badge has caught rabies.
func (d *Detector) Infected() bool {
	return d.state == StateInfected
}

// CurrentState returns the infection state.
func (d *Detector) CurrentState() State {
	return d.state
}

// EventCountsSnapshot returns a copy of the event counts.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}
	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
