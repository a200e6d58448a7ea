package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/time/rate"

	"github.com/sweeney/badge-sensor/internal/logic"
	"github.com/sweeney/badge-sensor/internal/nearby"
)

const publishTimeout = 5 * time.Second

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Encoding    Encoding

	// RatePerSec and Burst bound sighting publishes. Zero rate disables the limit.
	RatePerSec float64
	Burst      int

	// BufferSize is how many messages are kept while the broker is unreachable.
	BufferSize int
}

// broker is the subset of paho.Client the publisher uses.
type broker interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while the
// connection is down are buffered and replayed when it comes back.
type RealPublisher struct {
	client  broker
	prefix  string
	enc     Encoding
	limiter *rate.Limiter
	now     func() time.Time

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // at least one successful connect
}

// NewRealPublisher creates a publisher and starts connecting in the background.
// It never blocks on the broker; paho keeps retrying.
func NewRealPublisher(o Options) *RealPublisher {
	p := newPublisher(nil, o)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}, p.enc)

	clientID := o.ClientID
	if clientID == "" {
		clientID = "badge-sensor"
	}
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(Topic(p.prefix, TopicSystem), will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	client := paho.NewClient(opts)
	p.client = client
	client.Connect()
	return p
}

func newPublisher(client broker, o Options) *RealPublisher {
	enc := o.Encoding
	if enc == "" {
		enc = EncodingJSON
	}
	limit := rate.Inf
	if o.RatePerSec > 0 {
		limit = rate.Limit(o.RatePerSec)
	}
	burst := o.Burst
	if burst < 1 {
		burst = 1
	}
	return &RealPublisher{
		client:  client,
		prefix:  o.TopicPrefix,
		enc:     enc,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
		buf:     newRingBuffer(o.BufferSize),
	}
}

// onConnect replays buffered messages and announces reconnections.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	msgs := p.buf.drain()
	first := !p.connected
	p.connected = true
	p.mu.Unlock()

	if first {
		log.Printf("mqtt: connected")
	} else {
		log.Printf("mqtt: reconnected")
	}
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: replay to %s: %v", m.topic, err)
		}
	}
	if first {
		return
	}
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}, p.enc)
	if err != nil {
		log.Printf("mqtt: format reconnected event: %v", err)
		return
	}
	if err := p.send(pending{topic: Topic(p.prefix, TopicSystem), payload: payload, qos: 1}); err != nil {
		log.Printf("mqtt: publish reconnected event: %v", err)
	}
}

// PublishSighting sends a registry update, subject to the rate limit.
func (p *RealPublisher) PublishSighting(s nearby.Sighting) error {
	if !p.limiter.AllowN(p.now(), 1) {
		return ErrRateLimited
	}
	payload, err := FormatSighting(s, p.enc)
	if err != nil {
		return fmt.Errorf("format sighting: %w", err)
	}
	return p.publish(pending{topic: Topic(p.prefix, TopicSightings), payload: payload})
}

// Publish sends an infection event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event, p.enc)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1: state changes are rare and must arrive
	return p.publish(pending{topic: Topic(p.prefix, TopicEvents), payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event, p.enc)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(pending{topic: Topic(p.prefix, TopicSystem), payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(m pending) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buf.push(m)
		p.mu.Unlock()
		return nil
	}
	return p.send(m)
}

func (p *RealPublisher) send(m pending) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// Buffered returns how many messages are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
