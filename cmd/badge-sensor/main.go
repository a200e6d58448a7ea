// Command badge-sensor scans for conference badges over BLE, plays the rabies
// game against nearby carriers and publishes what it sees to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/badge-sensor/internal/adv"
	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/config"
	"github.com/sweeney/badge-sensor/internal/gpio"
	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/mqtt"
	"github.com/sweeney/badge-sensor/internal/nearby"
	"github.com/sweeney/badge-sensor/internal/registry"
	"github.com/sweeney/badge-sensor/internal/scan"
	"github.com/sweeney/badge-sensor/internal/sensor"
	"github.com/sweeney/badge-sensor/internal/status"
	"github.com/sweeney/badge-sensor/internal/web"
)

// flagValues holds the command-line overrides. Only flags that were set on the
// command line replace values from the config file.
type flagValues struct {
	name             *string
	hci              *int
	broker           *string
	topicPrefix      *string
	encoding         *string
	heartbeat        *time.Duration
	tick             *time.Duration
	httpAddr         *string
	ledPin           *int
	sensorBus        *string
	threshold        *int
	incubation       *time.Duration
	keepUnclassified *bool
}

func registerFlags(fs *flag.FlagSet) *flagValues {
	d := config.Defaults()
	return &flagValues{
		name:             fs.String("name", d.Name, "Local badge name (max 16 bytes)"),
		hci:              fs.Int("hci", d.HCIDevice, "HCI device index"),
		broker:           fs.String("broker", d.MQTT.Broker, "MQTT broker address"),
		topicPrefix:      fs.String("topic-prefix", d.MQTT.TopicPrefix, "MQTT topic prefix"),
		encoding:         fs.String("encoding", d.MQTT.Encoding, "MQTT payload encoding (json or cbor)"),
		heartbeat:        fs.Duration("heartbeat", d.Heartbeat, "Heartbeat interval (0 to disable)"),
		tick:             fs.Duration("tick", d.Tick, "Game tick interval"),
		httpAddr:         fs.String("http", d.HTTP, "HTTP status address (empty to disable)"),
		ledPin:           fs.Int("pin-led", d.LEDPin, "BCM pin number for the indicator LED (-1 to disable)"),
		sensorBus:        fs.String("sensor-bus", "", "I2C bus of the VL6180X sensor (enables the sensor)"),
		threshold:        fs.Int("threshold", d.Rabies.Threshold, "Weakest RSSI (dBm) at which a carrier is close"),
		incubation:       fs.Duration("incubation", d.Rabies.Incubation, "Exposure time before infection"),
		keepUnclassified: fs.Bool("keep-unclassified", d.KeepUnclassified, "Track devices that match no badge group"),
	}
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, v *flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *v.name
		case "hci":
			cfg.HCIDevice = *v.hci
		case "broker":
			cfg.MQTT.Broker = *v.broker
		case "topic-prefix":
			cfg.MQTT.TopicPrefix = *v.topicPrefix
		case "encoding":
			cfg.MQTT.Encoding = *v.encoding
		case "heartbeat":
			cfg.Heartbeat = *v.heartbeat
		case "tick":
			cfg.Tick = *v.tick
		case "http":
			cfg.HTTP = *v.httpAddr
		case "pin-led":
			cfg.LEDPin = *v.ledPin
		case "sensor-bus":
			cfg.Sensor.Enabled = true
			cfg.Sensor.Bus = *v.sensorBus
		case "threshold":
			cfg.Rabies.Threshold = *v.threshold
		case "incubation":
			cfg.Rabies.Incubation = *v.incubation
		case "keep-unclassified":
			cfg.KeepUnclassified = *v.keepUnclassified
		}
	})
}

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	printNearby := flag.Duration("print-nearby", 0, "Scan for this long, print nearby badges and exit")
	values := registerFlags(flag.CommandLine)

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyFlags(cfg, flag.CommandLine, values)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printNearby); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printNearby time.Duration) error {
	radio, err := scan.NewBLERadio(cfg.HCIDevice)
	if err != nil {
		return fmt.Errorf("init radio: %w", err)
	}
	defer radio.Close()

	proc := nearby.NewProcessor(registry.New(), cfg.KeepUnclassified)

	// Print nearby mode
	if printNearby > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), printNearby)
		defer cancel()
		err := radio.Scan(ctx, func(ev scan.Event) { proc.Handle(ev) })
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("scan: %w", err)
		}
		printRegistry(os.Stdout, proc)
		return nil
	}

	var led gpio.Indicator
	if cfg.LEDPin >= 0 {
		if l, err := gpio.NewRealIndicator(cfg.LEDPin); err != nil {
			log.Printf("led disabled: %v", err)
		} else {
			led = l
			defer l.Close()
		}
	}

	var ranger sensor.Ranger
	if cfg.Sensor.Enabled {
		if r, err := sensor.Open(cfg.Sensor.Bus, sensor.SelectorDefault); err != nil {
			log.Printf("sensor disabled: %v", err)
		} else {
			ranger = r
			defer r.Close()
		}
	}

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:      cfg.MQTT.Broker,
		ClientID:    "badge-sensor-" + cfg.Name,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		Encoding:    mqtt.Encoding(cfg.MQTT.Encoding),
		RatePerSec:  cfg.MQTT.RatePerSec,
		Burst:       cfg.MQTT.Burst,
		BufferSize:  cfg.MQTT.BufferSize,
	})
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	sightings := make(chan nearby.Sighting, registry.Capacity)
	var dropped atomic.Uint64
	g.Go(func() error {
		return scanLoop(gctx, radio, scanHandler(proc, sightings, &dropped))
	})

	adverts := make(chan adv.Packet, 1)
	adverts <- beacon(cfg.Name, false)
	g.Go(func() error {
		return advertiseLoop(gctx, radio, cfg.Name, adverts)
	})

	var srv *web.Server
	if cfg.HTTP != "" {
		srv = web.New(cfg.HTTP, tracker)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
			return nil
		})
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: name=%s hci%d broker=%s tick=%v threshold=%ddBm incubation=%v",
		cfg.Name, cfg.HCIDevice, cfg.MQTT.Broker, cfg.Tick, cfg.Rabies.Threshold, cfg.Rabies.Incubation)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		cfg:        cfg,
		proc:       proc,
		dropped:    &dropped,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		led:        led,
		ranger:     ranger,
		adverts:    adverts,
		now:        time.Now,
	}
	loopErr := l.run(gctx, sightings, ticker.C, sigCh)

	cancel()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		srv.Shutdown(shutdownCtx)
		done()
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return loopErr
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Name:         cfg.Name,
		TickMs:       cfg.Tick.Milliseconds(),
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		IncubationMs: cfg.Rabies.Incubation.Milliseconds(),
		Threshold:    int8(cfg.Rabies.Threshold),
		Broker:       cfg.MQTT.Broker,
		TopicPrefix:  cfg.MQTT.TopicPrefix,
		Encoding:     cfg.MQTT.Encoding,
		HTTPPort:     cfg.HTTP,
	}
}

// scanHandler runs on the radio goroutine. The registry is updated here; the
// main loop only hears about the sighting if it keeps up.
func scanHandler(proc *nearby.Processor, out chan<- nearby.Sighting, dropped *atomic.Uint64) scan.Handler {
	return func(ev scan.Event) {
		s, ok, err := proc.Handle(ev)
		if err != nil || !ok {
			return
		}
		select {
		case out <- s:
		default:
			dropped.Add(1)
		}
	}
}

// beacon builds the local badge's advertisement.
func beacon(name string, infected bool) adv.Packet {
	return adv.Packet(nil).
		AppendFlags(adv.FlagGeneralDiscoverable|adv.FlagLEOnly).
		AppendAppearance(badge.AppearanceHome).
		AppendManufacturerData(badge.CompanyDCZia, []byte{logic.StatusByte(infected)}).
		AppendShortName(name)
}

// advertiseLoop keeps the latest packet from packets on air until ctx is done.
// Advertising errors are logged; the loop waits for the next packet before retrying.
func advertiseLoop(ctx context.Context, radio scan.Radio, name string, packets <-chan adv.Packet) error {
	var p adv.Packet
	select {
	case <-ctx.Done():
		return nil
	case p = <-packets:
	}

	for {
		actx, stop := context.WithCancel(ctx)
		errc := make(chan error, 1)
		go func(p adv.Packet) { errc <- radio.Advertise(actx, name, p) }(p)

		select {
		case p = <-packets:
			stop()
			<-errc
		case err := <-errc:
			stop()
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("advertise error: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case p = <-packets:
			}
		case <-ctx.Done():
			stop()
			<-errc
			return nil
		}
	}
}

// loop owns everything that runs on the main goroutine.
type loop struct {
	cfg        *config.Config
	proc       *nearby.Processor
	dropped    *atomic.Uint64
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	led        gpio.Indicator
	ranger     sensor.Ranger
	adverts    chan adv.Packet
	now        func() time.Time

	ledOn bool
	buf   [registry.Capacity]badge.Record
}

func (l *loop) run(ctx context.Context, sightings <-chan nearby.Sighting, tick <-chan time.Time, sig <-chan os.Signal) error {
	detector := logic.NewDetector(logic.Config{
		Threshold:  int8(l.cfg.Rabies.Threshold),
		Incubation: l.cfg.Rabies.Incubation,
		Window:     l.cfg.Rabies.Window,
	}, l.now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.shutdown(detector, signalName)
			return nil

		case <-ctx.Done():
			log.Printf("radio stopped, shutting down")
			l.shutdown(detector, "RADIO_ERROR")
			return nil

		case s := <-sightings:
			if err := l.publisher.PublishSighting(s); err != nil && !errors.Is(err, mqtt.ErrRateLimited) {
				log.Printf("sighting publish error: %v", err)
			}

		case <-tick:
			l.tick(detector, l.now())
		}
	}
}

func (l *loop) tick(detector *logic.Detector, t time.Time) {
	reg := l.proc.Registry()
	n := reg.Snapshot(l.buf[:])
	nearbyNow := l.buf[:n]

	events := detector.Process(logic.Input{Nearby: nearbyNow, Time: t})
	for _, event := range events {
		log.Printf("event: %s (state=%s carrier=%s rssi=%d)", event.Type, event.State, event.Carrier.Addr, event.Carrier.RSSI)
		if err := l.publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		if event.Type == logic.EventInfected {
			l.readvertise(beacon(l.cfg.Name, true))
		}
	}

	l.setLED(detector.CurrentState())

	if l.ranger != nil {
		reading, err := sensor.Sample(l.ranger, sensor.SelectorDefault, sensor.Gain1)
		if err != nil {
			log.Printf("sensor read error: %v", err)
		} else if l.tracker != nil {
			l.tracker.SetRange(reading)
		}
	}

	if l.tracker != nil {
		l.tracker.Update(detector.CurrentState(), detector.EventCountsSnapshot())
		l.tracker.SetNearby(nearbyNow, l.proc.Counts(), l.dropped.Load())
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
	}

	// Check for heartbeat
	if hbData := detector.CheckHeartbeat(t, l.cfg.Heartbeat); hbData != nil {
		log.Printf("heartbeat: uptime=%v nearby=%d exposed=%d cleared=%d infected=%d",
			hbData.Uptime, n, hbData.Counts.Exposed, hbData.Counts.Cleared, hbData.Counts.Infected)

		hbEvent := mqtt.SystemEvent{
			Timestamp: hbData.Timestamp,
			Event:     "HEARTBEAT",
		}
		if l.tracker != nil {
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				l.tracker.SetNetwork(net)
			}
			hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(hbEvent); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}
}

// setLED shows the infection state: off when healthy, blinking while exposed,
// steady when infected.
func (l *loop) setLED(state logic.State) {
	if l.led == nil {
		return
	}
	on := false
	switch state {
	case logic.StateExposed:
		on = !l.ledOn
	case logic.StateInfected:
		on = true
	}
	if on == l.ledOn {
		return
	}
	if err := l.led.Set(on); err != nil {
		log.Printf("led error: %v", err)
		return
	}
	l.ledOn = on
}

// readvertise replaces any packet the advertiser has not picked up yet.
func (l *loop) readvertise(p adv.Packet) {
	if l.adverts == nil {
		return
	}
	select {
	case <-l.adverts:
	default:
	}
	select {
	case l.adverts <- p:
	default:
	}
}

func (l *loop) shutdown(detector *logic.Detector, reason string) {
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if l.tracker != nil {
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
		l.tracker.Update(detector.CurrentState(), detector.EventCountsSnapshot())
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
	if l.led != nil && l.ledOn {
		l.led.Set(false)
		l.ledOn = false
	}
}

// errRadioStopped is returned when the radio stops scanning while the daemon is running.
var errRadioStopped = errors.New("radio stopped scanning")

// scanLoop runs radio.Scan until ctx is done. Any return before that,
// including a nil one, is an error so the errgroup shuts the daemon down.
func scanLoop(ctx context.Context, radio scan.Radio, h scan.Handler) error {
	err := radio.Scan(ctx, h)
	if ctx.Err() != nil {
		return nil
	}
	if err == nil {
		err = errRadioStopped
	}
	log.Printf("scan: %v", err)
	return fmt.Errorf("scan: %w", err)
}

func printRegistry(w io.Writer, proc *nearby.Processor) {
	var buf [registry.Capacity]badge.Record
	n := proc.Registry().Snapshot(buf[:])
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDR\tBADGE\tYEAR\tNAME\tRSSI\tRABIES")
	for _, r := range buf[:n] {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%v\n", r.Addr, r.Group, r.Year, r.NameString(), r.RSSI, logic.HasRabies(r))
	}
	tw.Flush()

	c := proc.Counts()
	fmt.Fprintf(w, "parsed=%d malformed=%d unclassified=%d inserted=%d refreshed=%d evicted=%d\n",
		c.Parsed, c.Malformed, c.Unclassified, c.Inserted, c.Refreshed, c.Evicted)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
