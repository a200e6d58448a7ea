package mqtt

import "log"

// pending is a formatted message waiting for the broker to come back.
type pending struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds the newest messages published while disconnected.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	msgs    []pending
	next    int // slot the next push writes
	n       int
	dropped uint64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{msgs: make([]pending, capacity)}
}

// push appends msg, overwriting the oldest entry when full.
func (r *ringBuffer) push(msg pending) {
	if r.n == len(r.msgs) {
		if r.dropped == 0 {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", len(r.msgs))
		}
		r.dropped++
	} else {
		r.n++
	}
	r.msgs[r.next] = msg
	r.next = (r.next + 1) % len(r.msgs)
}

// drain returns the buffered messages oldest first and empties the buffer.
func (r *ringBuffer) drain() []pending {
	if r.n == 0 {
		return nil
	}
	out := make([]pending, r.n)
	first := (r.next - r.n + len(r.msgs)) % len(r.msgs)
	for i := range out {
		out[i] = r.msgs[(first+i)%len(r.msgs)]
		r.msgs[(first+i)%len(r.msgs)] = pending{}
	}
	if r.dropped > 0 {
		log.Printf("mqtt: replaying %d buffered messages, %d dropped while offline", r.n, r.dropped)
	}
	r.n, r.next, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.n
}
