package status

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Nearby        int          `json:"nearby"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Scan          ScanJSON     `json:"scan"`
	Range         *RangeJSON   `json:"range,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Exposed  int `json:"exposed"`
	Cleared  int `json:"cleared"`
	Infected int `json:"infected"`
}

// ScanJSON is the JSON representation of the scan pipeline counters.
type ScanJSON struct {
	Parsed       uint64 `json:"parsed"`
	Malformed    uint64 `json:"malformed"`
	Unclassified uint64 `json:"unclassified"`
	Inserted     uint64 `json:"inserted"`
	Refreshed    uint64 `json:"refreshed"`
	Evicted      uint64 `json:"evicted"`
	Dropped      uint64 `json:"dropped"`
}

// RangeJSON is the JSON representation of the last sensor reading.
type RangeJSON struct {
	Sensor  string  `json:"sensor"`
	RangeMM uint8   `json:"range_mm"`
	Status  string  `json:"status"`
	Lux     float64 `json:"lux"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Name         string `json:"name"`
	TickMs       int64  `json:"tick_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	IncubationMs int64  `json:"incubation_ms"`
	Threshold    int8   `json:"rssi_threshold"`
	Broker       string `json:"broker"`
	TopicPrefix  string `json:"topic_prefix"`
	Encoding     string `json:"encoding"`
	HTTPPort     string `json:"http_port"`
}

// BadgeJSON is the JSON representation of one nearby badge.
type BadgeJSON struct {
	Addr       string `json:"addr"`
	Group      string `json:"group"`
	Contact    string `json:"contact,omitempty"`
	Year       string `json:"year,omitempty"`
	Appearance string `json:"appearance"`
	Name       string `json:"name,omitempty"`
	RSSI       int8   `json:"rssi"`
	Data       string `json:"data,omitempty"`
	Rabies     bool   `json:"rabies"`
	LastSeen   string `json:"last_seen"`
}

// BadgesJSON is the top-level JSON envelope for the badge list.
type BadgesJSON struct {
	Timestamp string      `json:"timestamp"`
	Count     int         `json:"count"`
	Badges    []BadgeJSON `json:"badges"`
}

// NewBadgeJSON converts a registry record for display.
func NewBadgeJSON(r badge.Record) BadgeJSON {
	b := BadgeJSON{
		Addr:       r.Addr.String(),
		Group:      r.Group.String(),
		Contact:    badge.Contact(r.Group),
		Appearance: hex4(r.Appearance),
		Name:       r.NameString(),
		RSSI:       r.RSSI,
		Data:       hex.EncodeToString(r.Payload()),
		Rabies:     logic.HasRabies(r),
		LastSeen:   r.LastSeen.UTC().Format(time.RFC3339),
	}
	if r.Year != badge.YearUnknown {
		b.Year = r.Year.String()
	}
	return b
}

func hex4(v uint16) string {
	return "0x" + hex.EncodeToString([]byte{byte(v >> 8), byte(v)})
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	return StatusInner{
		State:         state,
		Nearby:        len(snap.Nearby),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Exposed:  snap.Counts.Exposed,
			Cleared:  snap.Counts.Cleared,
			Infected: snap.Counts.Infected,
		},
		Scan: ScanJSON{
			Parsed:       snap.Scan.Parsed,
			Malformed:    snap.Scan.Malformed,
			Unclassified: snap.Scan.Unclassified,
			Inserted:     snap.Scan.Inserted,
			Refreshed:    snap.Scan.Refreshed,
			Evicted:      snap.Scan.Evicted,
			Dropped:      snap.Dropped,
		},
		Config: ConfigJSON{
			Name:         snap.Config.Name,
			TickMs:       snap.Config.TickMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			IncubationMs: snap.Config.IncubationMs,
			Threshold:    snap.Config.Threshold,
			Broker:       snap.Config.Broker,
			TopicPrefix:  snap.Config.TopicPrefix,
			Encoding:     snap.Config.Encoding,
			HTTPPort:     snap.Config.HTTPPort,
		},
	}
}

func buildOptional(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	if snap.Range != nil {
		inner.Range = &RangeJSON{
			Sensor:  snap.Range.Selector.String(),
			RangeMM: snap.Range.RangeMM,
			Status:  snap.Range.Status.String(),
			Lux:     snap.Range.Lux,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildOptional(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildOptional(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatBadgesJSON returns the nearby badge list for the web endpoint.
func FormatBadgesJSON(snap Snapshot) []byte {
	out := BadgesJSON{
		Timestamp: snap.Now.UTC().Format(time.RFC3339),
		Count:     len(snap.Nearby),
		Badges:    make([]BadgeJSON, 0, len(snap.Nearby)),
	}
	for _, r := range snap.Nearby {
		out.Badges = append(out.Badges, NewBadgeJSON(r))
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return data
}

// FormatBadgeJSON returns the nearby badge with the given address, or false
// if it is not in the snapshot.
func FormatBadgeJSON(snap Snapshot, addr badge.Addr) ([]byte, bool) {
	for _, r := range snap.Nearby {
		if r.Addr == addr {
			data, _ := json.MarshalIndent(NewBadgeJSON(r), "", "  ")
			return data, true
		}
	}
	return nil, false
}
