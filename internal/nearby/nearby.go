// Package nearby turns raw scan events into registry entries:
// parse, classify, then upsert.
package nearby

import (
	"fmt"
	"sync/atomic"

	"github.com/sweeney/badge-sensor/internal/adv"
	"github.com/sweeney/badge-sensor/internal/badge"
	"github.com/sweeney/badge-sensor/internal/registry"
	"github.com/sweeney/badge-sensor/internal/scan"
)

// Sighting is one observation that made it into the registry.
type Sighting struct {
	Record  badge.Record
	Outcome registry.Outcome
}

// Counts is a snapshot of the processor's counters.
type Counts struct {
	Parsed       uint64
	Malformed    uint64
	Unclassified uint64
	Inserted     uint64
	Refreshed    uint64
	Evicted      uint64
}

// Processor feeds scan events into a registry. Handle is safe to call from
// the radio's goroutine while other goroutines read the registry.
type Processor struct {
	reg              *registry.Registry
	keepUnclassified bool

	parsed       atomic.Uint64
	malformed    atomic.Uint64
	unclassified atomic.Uint64
	inserted     atomic.Uint64
	refreshed    atomic.Uint64
	evicted      atomic.Uint64
}

// NewProcessor creates a processor writing to reg. Unless keepUnclassified
// is set, advertisements that match no catalog group are counted and dropped.
func NewProcessor(reg *registry.Registry, keepUnclassified bool) *Processor {
	return &Processor{reg: reg, keepUnclassified: keepUnclassified}
}

// Handle processes one scan event. It returns false when the event was dropped
// (unclassified), and an error when the payload was malformed.
func (p *Processor) Handle(ev scan.Event) (Sighting, bool, error) {
	a, err := adv.Parse(ev.Payload)
	if err != nil {
		p.malformed.Add(1)
		return Sighting{}, false, fmt.Errorf("parse advertisement from %s: %w", ev.Addr, err)
	}
	p.parsed.Add(1)

	rec := badge.NewRecord(ev.Addr, ev.RSSI, &a, ev.Time)
	if !rec.Classified() {
		p.unclassified.Add(1)
		if !p.keepUnclassified {
			return Sighting{}, false, nil
		}
	}

	out := p.reg.Upsert(rec)
	switch out {
	case registry.Inserted:
		p.inserted.Add(1)
	case registry.Refreshed:
		p.refreshed.Add(1)
	case registry.Evicted:
		p.evicted.Add(1)
	}
	return Sighting{Record: rec, Outcome: out}, true, nil
}

// Counts returns the current counter values.
func (p *Processor) Counts() Counts {
	return Counts{
		Parsed:       p.parsed.Load(),
		Malformed:    p.malformed.Load(),
		Unclassified: p.unclassified.Load(),
		Inserted:     p.inserted.Load(),
		Refreshed:    p.refreshed.Load(),
		Evicted:      p.evicted.Load(),
	}
}

// Registry returns the registry the processor writes to.
func (p *Processor) Registry() *registry.Registry {
	return p.reg
}
