package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
	"github.com/sweeney/badge-sensor/internal/registry"
)

var seen = time.Date(2026, 8, 9, 14, 30, 0, 0, time.UTC)

func carrier() badge.Record {
	r := badge.Record{
		Group:      badge.GroupDCZia,
		Year:       badge.Year27,
		Appearance: 0x27DC,
		Addr:       badge.Addr{0xC0, 0xFF, 0xEE, 0x00, 0x00, 0x01},
		RSSI:       -48,
		LastSeen:   seen,
	}
	r.Data[0] = logic.MarkerRabies
	r.Data[1] = 0x01
	r.DataLen = 2
	r.SetName("patient0")
	return r
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "badge/sensor/sightings", Topic("", TopicSightings))
	assert.Equal(t, "con/floor2/events", Topic("con/floor2", TopicEvents))
}

func TestFormatSighting(t *testing.T) {
	payload, err := FormatSighting(nearby.Sighting{Record: carrier(), Outcome: registry.Inserted}, EncodingJSON)
	require.NoError(t, err)

	var got SightingPayload
	require.NoError(t, json.Unmarshal(payload, &got))

	s := got.Sighting
	assert.Equal(t, "2026-08-09T14:30:00Z", s.Timestamp)
	assert.Equal(t, "inserted", s.Outcome)
	assert.Equal(t, "c0:ff:ee:00:00:01", s.Addr)
	assert.Equal(t, "DCZia", s.Group)
	assert.Equal(t, "DC27", s.Year)
	assert.Equal(t, uint16(0x27DC), s.Appearance)
	assert.Equal(t, "patient0", s.Name)
	assert.Equal(t, int8(-48), s.RSSI)
	assert.Equal(t, "3501", s.Data)
	assert.True(t, s.Rabies)

	id, err := ulid.Parse(got.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(seen), id.Time())
}

func TestFormatSightingCBOR(t *testing.T) {
	payload, err := FormatSighting(nearby.Sighting{Record: carrier(), Outcome: registry.Evicted}, EncodingCBOR)
	require.NoError(t, err)
	assert.False(t, json.Valid(payload))

	var got SightingPayload
	require.NoError(t, EncodingCBOR.Unmarshal(payload, &got))
	assert.Equal(t, "evicted", got.Sighting.Outcome)
	assert.Equal(t, "c0:ff:ee:00:00:01", got.Sighting.Addr)
	assert.Equal(t, int8(-48), got.Sighting.RSSI)
}

func TestFormatSightingIDsAreUnique(t *testing.T) {
	s := nearby.Sighting{Record: carrier()}
	a, err := FormatSighting(s, EncodingJSON)
	require.NoError(t, err)
	b, err := FormatSighting(s, EncodingJSON)
	require.NoError(t, err)

	var pa, pb SightingPayload
	require.NoError(t, json.Unmarshal(a, &pa))
	require.NoError(t, json.Unmarshal(b, &pb))
	assert.NotEqual(t, pa.ID, pb.ID)
}

func TestZeroTimestampGetsCurrentID(t *testing.T) {
	before := time.Now().Add(-time.Second)

	data, err := FormatSighting(nearby.Sighting{}, EncodingJSON)
	require.NoError(t, err)
	var sp SightingPayload
	require.NoError(t, json.Unmarshal(data, &sp))
	id, err := ulid.Parse(sp.ID)
	require.NoError(t, err)
	assert.False(t, ulid.Time(id.Time()).Before(before))

	for _, ts := range []time.Time{{}, time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)} {
		data, err = FormatPayload(logic.Event{Type: logic.EventCleared, Timestamp: ts}, EncodingCBOR)
		require.NoError(t, err)
		var p Payload
		require.NoError(t, EncodingCBOR.Unmarshal(data, &p))
		_, err = ulid.Parse(p.ID)
		require.NoError(t, err)
	}
}

func TestFormatPayload(t *testing.T) {
	tests := []struct {
		name        string
		event       logic.Event
		wantCarrier bool
	}{
		{"exposed", logic.Event{Timestamp: seen, Type: logic.EventExposed, State: logic.StateExposed, Carrier: carrier()}, true},
		{"infected", logic.Event{Timestamp: seen, Type: logic.EventInfected, State: logic.StateInfected, Carrier: carrier()}, true},
		{"cleared", logic.Event{Timestamp: seen, Type: logic.EventCleared, State: logic.StateHealthy}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatPayload(tt.event, EncodingJSON)
			require.NoError(t, err)

			var got Payload
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, "2026-08-09T14:30:00Z", got.Rabies.Timestamp)
			assert.Equal(t, string(tt.event.Type), got.Rabies.Event)
			assert.Equal(t, string(tt.event.State), got.Rabies.State)
			if !tt.wantCarrier {
				assert.Nil(t, got.Rabies.Carrier)
				return
			}
			require.NotNil(t, got.Rabies.Carrier)
			assert.Equal(t, "c0:ff:ee:00:00:01", got.Rabies.Carrier.Addr)
			assert.Equal(t, int8(-48), got.Rabies.Carrier.RSSI)
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("PDT", -7*3600)
	ev := logic.Event{Timestamp: time.Date(2026, 8, 9, 7, 30, 0, 0, loc), Type: logic.EventCleared}

	payload, err := FormatPayload(ev, EncodingJSON)
	require.NoError(t, err)
	var got Payload
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "2026-08-09T14:30:00Z", got.Rabies.Timestamp)
}

func TestWillPayloadFormat(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}, EncodingJSON)
	require.NoError(t, err)
	assert.Equal(t, `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`, string(payload))
}

func TestFormatSystemPayloadReconnected(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}, EncodingJSON)
	require.NoError(t, err)
	assert.Equal(t, `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`, string(payload))
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	for _, enc := range []Encoding{EncodingJSON, EncodingCBOR} {
		payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw}, enc)
		require.NoError(t, err)
		assert.Equal(t, raw, payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	require.NoError(t, f.PublishSighting(nearby.Sighting{Record: carrier()}))
	require.NoError(t, f.Publish(logic.Event{Timestamp: seen, Type: logic.EventExposed, Carrier: carrier()}))
	require.NoError(t, f.PublishSystem(SystemEvent{Timestamp: seen, Event: "STARTUP", Retained: true}))

	sightings, events, sys := f.Snapshot()
	assert.Len(t, sightings, 1)
	require.Len(t, events, 1)
	assert.Equal(t, logic.EventExposed, events[0].Type)
	require.Len(t, sys, 1)
	assert.True(t, sys[0].Retained)
	assert.Len(t, f.Payloads, 1)
	assert.Len(t, f.SystemPayloads, 1)
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	boom := errors.New("boom")
	f.SightingError = boom
	f.PublishError = boom
	f.PublishSystemError = boom

	assert.ErrorIs(t, f.PublishSighting(nearby.Sighting{}), boom)
	assert.ErrorIs(t, f.Publish(logic.Event{}), boom)
	assert.ErrorIs(t, f.PublishSystem(SystemEvent{}), boom)
	assert.Empty(t, f.Sightings)
	assert.Empty(t, f.Events)
	assert.Empty(t, f.SystemEvents)
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	require.NoError(t, f.Publish(logic.Event{Type: logic.EventCleared}))
	require.NoError(t, f.Close())
	assert.True(t, f.Closed)

	f.Reset()
	assert.Empty(t, f.Events)
	assert.Empty(t, f.Payloads)
	assert.False(t, f.Closed)
	assert.False(t, f.IsConnected())

	require.NoError(t, f.Publish(logic.Event{Type: logic.EventCleared}))
	assert.Len(t, f.Events, 1)
}
