// Package status provides a thread-safe status tracker for the badge-sensor daemon.
// It is read by the HTTP handlers and by the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
	"github.com/sweeney/badge-sensor/internal/registry"
	"github.com/sweeney/badge-sensor/internal/sensor"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Name         string
	TickMs       int64
	HeartbeatMs  int64
	IncubationMs int64
	Threshold    int8
	Broker       string
	TopicPrefix  string
	Encoding     string
	HTTPPort     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Counts        logic.EventCounts
	Scan          nearby.Counts
	Dropped       uint64
	Nearby        []badge.Record
	Range         *sensor.Reading
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	nearby [registry.Capacity]badge.Record
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			State:     logic.StateHealthy,
			Config:    cfg,
		},
	}
}

// Update sets the infection state and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(state logic.State, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetNearby copies the registry contents and scan counters.
func (t *Tracker) SetNearby(records []badge.Record, scan nearby.Counts, dropped uint64) {
	t.mu.Lock()
	n := copy(t.nearby[:], records)
	t.snap.Nearby = t.nearby[:n]
	t.snap.Scan = scan
	t.snap.Dropped = dropped
	t.mu.Unlock()
}

// SetRange stores the last sensor reading.
func (t *Tracker) SetRange(r sensor.Reading) {
	t.mu.Lock()
	t.snap.Range = &r
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Nearby = append([]badge.Record(nil), t.snap.Nearby...)
	if t.snap.Range != nil {
		r := *t.snap.Range
		s.Range = &r
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
