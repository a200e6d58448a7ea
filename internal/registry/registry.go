// Package registry keeps a fixed-size table of the badges seen most recently.
// It is safe for concurrent use: the scan handler upserts while the main loop
// and HTTP handlers read snapshots.
package registry

import (
	"sync"

	"github.com/sweeney/badge-sensor/internal/badge"
)

// Capacity is the number of badges the registry holds.
const Capacity = 16

// Outcome describes what an Upsert did.
type Outcome int

const (
	Inserted  Outcome = iota // new address appended
	Refreshed                // existing address updated in place
	Evicted                  // registry full; least recently seen badge replaced
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Refreshed:
		return "refreshed"
	case Evicted:
		return "evicted"
	}
	return "unknown"
}

type slot struct {
	rec  badge.Record
	tick uint64 // value of Registry.tick at the last upsert
}

// Registry holds up to Capacity records, unique by address, in insertion order.
// The zero value is ready to use.
type Registry struct {
	mu    sync.Mutex
	slots [Capacity]slot
	n     int
	tick  uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Upsert records an observation. A known address is refreshed in place; a new
// address is appended, or replaces the least recently upserted record when
// the registry is full.
func (r *Registry) Upsert(rec badge.Record) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tick++
	for i := 0; i < r.n; i++ {
		if r.slots[i].rec.Addr == rec.Addr {
			r.slots[i] = slot{rec: rec, tick: r.tick}
			return Refreshed
		}
	}
	if r.n < Capacity {
		r.slots[r.n] = slot{rec: rec, tick: r.tick}
		r.n++
		return Inserted
	}

	oldest := 0
	for i := 1; i < r.n; i++ {
		if r.slots[i].tick < r.slots[oldest].tick {
			oldest = i
		}
	}
	r.slots[oldest] = slot{rec: rec, tick: r.tick}
	return Evicted
}

// Count returns the number of stored records.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Snapshot copies the stored records into out and returns how many were copied.
// All records come from the same point in time. If out is shorter than
// Count, only the first len(out) records are copied.
func (r *Registry) Snapshot(out []badge.Record) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.n
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = r.slots[i].rec
	}
	return n
}

// Get returns the record at index i, or false if i is out of range.
func (r *Registry) Get(i int) (badge.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= r.n {
		return badge.Record{}, false
	}
	return r.slots[i].rec, true
}
