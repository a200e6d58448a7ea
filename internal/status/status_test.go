package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
	"github.com/sweeney/badge-sensor/internal/sensor"
)

var start = time.Date(2026, 8, 8, 10, 0, 0, 0, time.UTC)

func rabid(addr byte, rssi int8) badge.Record {
	r := badge.Record{
		Group:      badge.GroupDCZia,
		Year:       badge.Year27,
		Appearance: uint16(badge.Year27),
		Addr:       badge.Addr{0xAA, 0, 0, 0, 0, addr},
		RSSI:       rssi,
		LastSeen:   start,
	}
	r.Data[0] = logic.MarkerRabies
	r.DataLen = 1
	r.SetName("zia")
	return r
}

func TestNewTracker(t *testing.T) {
	cfg := Config{Name: "DCZia", TickMs: 1000, Broker: "tcp://localhost:1883", HTTPPort: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	assert.True(t, snap.StartTime.Equal(start))
	assert.Equal(t, int64(1000), snap.Config.TickMs)
	assert.Equal(t, ":80", snap.Config.HTTPPort)
	assert.Equal(t, logic.StateHealthy, snap.State)
	assert.False(t, snap.MQTTConnected)
	assert.Empty(t, snap.Nearby)
	assert.Nil(t, snap.Range)
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.Update(logic.StateExposed, logic.EventCounts{Exposed: 3, Cleared: 2})

	snap := tr.Snapshot()
	assert.Equal(t, logic.StateExposed, snap.State)
	assert.Equal(t, 3, snap.Counts.Exposed)
	assert.Equal(t, 2, snap.Counts.Cleared)
}

func TestSetNearby(t *testing.T) {
	tr := NewTracker(start, Config{})
	recs := []badge.Record{rabid(1, -50), rabid(2, -60)}
	tr.SetNearby(recs, nearby.Counts{Parsed: 7, Malformed: 1}, 4)

	snap := tr.Snapshot()
	require.Len(t, snap.Nearby, 2)
	assert.Equal(t, int8(-60), snap.Nearby[1].RSSI)
	assert.Equal(t, uint64(7), snap.Scan.Parsed)
	assert.Equal(t, uint64(4), snap.Dropped)

	recs[0].RSSI = 0
	assert.Equal(t, int8(-50), tr.Snapshot().Nearby[0].RSSI, "tracker must copy records")
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.SetMQTTConnected(true)
	assert.True(t, tr.Snapshot().MQTTConnected)

	tr.SetMQTTConnected(false)
	assert.False(t, tr.Snapshot().MQTTConnected)
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(start, Config{})
	assert.Nil(t, tr.Snapshot().Network)

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})
	snap := tr.Snapshot()
	require.NotNil(t, snap.Network)
	assert.Equal(t, "192.168.1.42", snap.Network.IP)
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetNearby([]badge.Record{rabid(1, -50)}, nearby.Counts{}, 0)
	tr.SetRange(sensor.Reading{RangeMM: 90})

	snap := tr.Snapshot()
	snap.Nearby[0].RSSI = 0
	snap.Range.RangeMM = 1

	again := tr.Snapshot()
	assert.Equal(t, int8(-50), again.Nearby[0].RSSI)
	assert.Equal(t, uint8(90), again.Range.RangeMM)
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, snap.Uptime())
}

func TestFormatJSON(t *testing.T) {
	tr := NewTracker(start, Config{Name: "DCZia", Broker: "tcp://b:1883", Encoding: "json", HTTPPort: ":80"})
	tr.Update(logic.StateInfected, logic.EventCounts{Exposed: 1, Infected: 1})
	tr.SetNearby([]badge.Record{rabid(1, -50)}, nearby.Counts{Parsed: 2, Inserted: 1}, 0)
	tr.SetRange(sensor.Reading{Selector: sensor.Selector1, RangeMM: 42, Status: sensor.StatusOK, Lux: 12.5})
	tr.SetMQTTConnected(true)

	var got StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(tr.Snapshot()), &got))

	s := got.Status
	assert.Empty(t, s.Event)
	assert.Equal(t, "INFECTED", s.State)
	assert.Equal(t, 1, s.Nearby)
	assert.Equal(t, start.Format(time.RFC3339), s.StartTime)
	assert.True(t, s.MQTT.Connected)
	assert.Equal(t, "tcp://b:1883", s.MQTT.Broker)
	assert.Equal(t, 1, s.Counts.Infected)
	assert.Equal(t, uint64(2), s.Scan.Parsed)
	require.NotNil(t, s.Range)
	assert.Equal(t, "tof1", s.Range.Sensor)
	assert.Equal(t, uint8(42), s.Range.RangeMM)
	assert.Nil(t, s.Network)
	assert.Equal(t, "DCZia", s.Config.Name)
}

func TestFormatJSONUnknownState(t *testing.T) {
	var got StatusJSON
	require.NoError(t, json.Unmarshal(FormatJSON(Snapshot{}), &got))
	assert.Equal(t, "UNKNOWN", got.Status.State)
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetNetwork(&NetworkInfo{Type: "ethernet", IP: "10.0.0.2"})

	var got StatusJSON
	require.NoError(t, json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &got))
	assert.Equal(t, "SHUTDOWN", got.Status.Event)
	assert.Equal(t, "SIGTERM", got.Status.Reason)
	require.NotNil(t, got.Status.Network)
	assert.Equal(t, "ethernet", got.Status.Network.Type)
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(Snapshot{}, "STARTUP", "")
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	_, ok := raw["status"]["reason"]
	assert.False(t, ok)
	_, ok = raw["status"]["range"]
	assert.False(t, ok)
}

func TestFormatBadgesJSON(t *testing.T) {
	clean := badge.Record{Group: badge.GroupDC801, Appearance: 0x0801, Addr: badge.Addr{1, 2, 3, 4, 5, 6}, RSSI: -70, LastSeen: start}
	snap := Snapshot{Now: start, Nearby: []badge.Record{rabid(9, -40), clean}}

	var got BadgesJSON
	require.NoError(t, json.Unmarshal(FormatBadgesJSON(snap), &got))
	require.Equal(t, 2, got.Count)
	require.Len(t, got.Badges, 2)

	b := got.Badges[0]
	assert.Equal(t, "aa:00:00:00:00:09", b.Addr)
	assert.Equal(t, "DCZia", b.Group)
	assert.Equal(t, "@dczia", b.Contact)
	assert.Equal(t, "DC27", b.Year)
	assert.Equal(t, "0x27dc", b.Appearance)
	assert.Equal(t, "zia", b.Name)
	assert.Equal(t, "35", b.Data)
	assert.True(t, b.Rabies)

	b = got.Badges[1]
	assert.Equal(t, "0x0801", b.Appearance)
	assert.Empty(t, b.Year)
	assert.Empty(t, b.Data)
	assert.False(t, b.Rabies)
}

func TestFormatBadgesJSONEmpty(t *testing.T) {
	var got map[string]any
	require.NoError(t, json.Unmarshal(FormatBadgesJSON(Snapshot{Now: start}), &got))
	assert.Equal(t, []any{}, got["badges"])
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.Update(logic.StateExposed, logic.EventCounts{Exposed: i})
			tr.SetNearby([]badge.Record{rabid(byte(i), -50)}, nearby.Counts{}, 0)
			tr.SetMQTTConnected(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()
}
