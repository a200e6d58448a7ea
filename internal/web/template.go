package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/badge-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>{{.Config.Name}} Badge Sensor</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.healthy { color: green; font-weight: bold; }
.exposed { color: orange; font-weight: bold; }
.infected { color: red; font-weight: bold; }
.unknown { color: #888; }
.rabid { background: #fdd; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Config.Name}} Badge Sensor</h1>

<h2>Rabies</h2>
<table>
{{$state := stateOrUnknown (printf "%s" .State)}}<tr><th>State</th><td id="state" class="{{if eq $state "HEALTHY"}}healthy{{else if eq $state "EXPOSED"}}exposed{{else if eq $state "INFECTED"}}infected{{else}}unknown{{end}}">{{$state}}</td></tr>
<tr><th>Exposures</th><td>{{.Counts.Exposed}} ({{.Counts.Cleared}} cleared)</td></tr>
<tr><th>Threshold</th><td>{{.Config.Threshold}} dBm</td></tr>
</table>

<h2>Nearby ({{len .Nearby}})</h2>
{{if .Nearby}}<table id="nearby">
<tr><th>Address</th><th>Badge</th><th>Year</th><th>Name</th><th>RSSI</th><th>Seen</th></tr>
{{range .Nearby}}<tr{{if .Rabies}} class="rabid"{{end}}><td>{{.Addr}}</td><td>{{.Group}}</td><td>{{.Year}}</td><td>{{.Name}}</td><td>{{.RSSI}}</td><td>{{.Ago}} ago</td></tr>
{{end}}</table>{{else}}<p>No badges in range.</p>{{end}}

<h2>Scanner</h2>
<table>
<tr><th>Parsed</th><td>{{.Scan.Parsed}}</td></tr>
<tr><th>Malformed</th><td>{{.Scan.Malformed}}</td></tr>
<tr><th>Unclassified</th><td>{{.Scan.Unclassified}}</td></tr>
<tr><th>Evicted</th><td>{{.Scan.Evicted}}</td></tr>
{{if .Range}}<tr><th>Range ({{.Range.Selector}})</th><td>{{.Range.RangeMM}} mm, {{.Range.Status}}</td></tr>
<tr><th>Light</th><td>{{printf "%.1f" .Range.Lux}} lux</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<p><a href="/index.json">status JSON</a> | <a href="/badges.json">badges JSON</a></p>
</body>
</html>
`

// nearbyRow is a badge table row; Ago is relative to the snapshot time.
type nearbyRow struct {
	status.BadgeJSON
	Ago time.Duration
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	rows := make([]nearbyRow, len(snap.Nearby))
	for i, r := range snap.Nearby {
		rows[i] = nearbyRow{
			BadgeJSON: status.NewBadgeJSON(r),
			Ago:       snap.Now.Sub(r.LastSeen).Truncate(time.Second),
		}
	}
	data := struct {
		status.Snapshot
		Nearby []nearbyRow
		Uptime time.Duration
	}{
		Snapshot: snap,
		Nearby:   rows,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
