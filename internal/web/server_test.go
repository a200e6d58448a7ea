package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
	"github.com/sweeney/badge-sensor/internal/sensor"
	"github.com/sweeney/badge-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 8, 8, 9, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Name:        "DCZia",
		TickMs:      1000,
		HeartbeatMs: 900000,
		Threshold:   -70,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPPort:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	ts := httptest.NewServer(New(":0", tr).Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func rabidRecord() badge.Record {
	r := badge.Record{
		Group:      badge.GroupDCZia,
		Year:       badge.Year27,
		Appearance: 0x27DC,
		Addr:       badge.Addr{0xC0, 0xFF, 0xEE, 0, 0, 7},
		RSSI:       -51,
		LastSeen:   time.Now().Add(-3 * time.Second),
	}
	r.Data[0] = logic.MarkerRabies
	r.DataLen = 1
	r.SetName("<patient0>")
	return r
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.StateExposed, logic.EventCounts{Exposed: 5, Cleared: 2})
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	assert.Equal(t, "EXPOSED", sj.Status.State)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, "tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	assert.Equal(t, 5, sj.Status.Counts.Exposed)
	assert.Equal(t, 2, sj.Status.Counts.Cleared)
	assert.Equal(t, int64(1000), sj.Status.Config.TickMs)
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "DefCon"})

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal([]byte(body), &sj))
	require.NotNil(t, sj.Status.Network)
	assert.Equal(t, "192.168.1.42", sj.Status.Network.IP)
}

func TestBadgesEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNearby([]badge.Record{rabidRecord()}, nearby.Counts{Inserted: 1}, 0)

	resp, body := get(t, ts.URL+"/badges.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var bj status.BadgesJSON
	require.NoError(t, json.Unmarshal([]byte(body), &bj))
	require.Equal(t, 1, bj.Count)
	assert.Equal(t, "c0:ff:ee:00:00:07", bj.Badges[0].Addr)
	assert.True(t, bj.Badges[0].Rabies)
}

func TestBadgeByAddress(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNearby([]badge.Record{rabidRecord()}, nearby.Counts{Inserted: 1}, 0)

	resp, body := get(t, ts.URL+"/badges/c0:ff:ee:00:00:07")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bj status.BadgeJSON
	require.NoError(t, json.Unmarshal([]byte(body), &bj))
	assert.Equal(t, "DCZia", bj.Group)
	assert.Equal(t, "<patient0>", bj.Name)

	resp, _ = get(t, ts.URL+"/badges/c0:ff:ee:00:00:08")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/badges/not-an-address")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.StateInfected, logic.EventCounts{Exposed: 1, Infected: 1})
	tr.SetNearby([]badge.Record{rabidRecord()}, nearby.Counts{Parsed: 12}, 0)
	tr.SetRange(sensor.Reading{Selector: sensor.Selector1, RangeMM: 87, Lux: 3.3})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	assert.Contains(t, body, "<title>DCZia Badge Sensor</title>")
	assert.Contains(t, body, `class="infected">INFECTED`)
	assert.Contains(t, body, "Nearby (1)")
	assert.Contains(t, body, `<tr class="rabid"><td>c0:ff:ee:00:00:07</td>`)
	assert.Contains(t, body, "&lt;patient0&gt;")
	assert.NotContains(t, body, "<patient0>")
	assert.Contains(t, body, "87 mm")
	assert.Contains(t, body, "3.3 lux")
}

func TestHTMLNoBadges(t *testing.T) {
	ts, _ := newTestServer(t)
	_, body := get(t, ts.URL+"/index.html")
	assert.Contains(t, body, "No badges in range.")
	assert.Contains(t, body, `class="healthy">HEALTHY`)
	assert.NotContains(t, body, "lux")
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	var before status.StatusJSON
	_, body := get(t, ts.URL+"/index.json")
	require.NoError(t, json.Unmarshal([]byte(body), &before))
	assert.Equal(t, "HEALTHY", before.Status.State)
	assert.Zero(t, before.Status.Nearby)

	tr.Update(logic.StateExposed, logic.EventCounts{Exposed: 1})
	tr.SetNearby([]badge.Record{rabidRecord()}, nearby.Counts{}, 0)

	var after status.StatusJSON
	_, body = get(t, ts.URL+"/index.json")
	require.NoError(t, json.Unmarshal([]byte(body), &after))
	assert.Equal(t, "EXPOSED", after.Status.State)
	assert.Equal(t, 1, after.Status.Nearby)
}
