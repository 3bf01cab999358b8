// Package broadcast implements a single-producer, multi-consumer fan-out
// primitive with a bounded per-consumer backlog and an explicit lag
// notification.
//
// A producer-blocking mpmc channel cannot serve this contract — one slow
// listener would stall the producer and every other listener. Instead each
// subscriber owns a dedicated bounded channel; Send is always non-blocking
// and a full subscriber channel increments a per-subscriber dropped counter
// instead of blocking or silently overwriting, reported as an exact
// Lagged(n) count on the subscriber's next receive.
package broadcast

import (
	"sync"
	"sync/atomic"
)

// Chunk is an immutable, cheaply-cloneable opaque byte buffer — the unit
// that flows through the Broadcaster. It is never inspected by this package.
type Chunk []byte

// Event is what Receive returns: exactly one of Chunk, Lagged, or Closed is
// meaningful.
type Event struct {
	Chunk  Chunk
	Lagged int
	Closed bool
}

type subscriber struct {
	ch      chan Chunk
	dropped atomic.Int64
}

// Broadcaster is the fan-out primitive described above. The zero value is
// not usable; construct with New.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextID  uint64
	backlog int
	closeCh chan struct{}
	closed  bool
}

// New returns a Broadcaster with the given per-subscriber backlog capacity.
func New(backlog int) *Broadcaster {
	if backlog <= 0 {
		backlog = 1
	}
	return &Broadcaster{
		subs:    make(map[uint64]*subscriber),
		backlog: backlog,
		closeCh: make(chan struct{}),
	}
}

// Receiver is a live subscription returned by Subscribe.
type Receiver struct {
	id uint64
	b  *Broadcaster
	ch chan Chunk
	d  *atomic.Int64
}

// Subscribe registers a new receiver. It will see every chunk sent after
// this call returns; chunks sent before are not replayed.
func (b *Broadcaster) Subscribe() *Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{ch: make(chan Chunk, b.backlog)}
	b.subs[id] = sub

	return &Receiver{id: id, b: b, ch: sub.ch, d: &sub.dropped}
}

// Unsubscribe removes a receiver. It is idempotent.
func (r *Receiver) Unsubscribe() {
	r.b.mu.Lock()
	delete(r.b.subs, r.id)
	r.b.mu.Unlock()
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Send fans chunk out to every current subscriber. It never blocks and
// never errors: with zero subscribers the chunk is simply discarded. It
// returns the subscriber count at the moment of sending.
func (b *Broadcaster) Send(chunk Chunk) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- chunk:
		default:
			sub.dropped.Add(1)
		}
	}
	return len(b.subs)
}

// Receive blocks until a chunk is available, the receiver has lagged, or
// the Broadcaster has closed. A Lagged event is reported at most once per
// gap: any chunks that arrived before the gap and are still queued are
// delivered on subsequent calls: the read cursor advances to the oldest
// chunk still retained rather than skipping straight to the newest.
func (r *Receiver) Receive() Event {
	if n := r.d.Swap(0); n > 0 {
		return Event{Lagged: int(n)}
	}

	select {
	case c, ok := <-r.ch:
		if !ok {
			return Event{Closed: true}
		}
		return Event{Chunk: c}
	case <-r.b.closeCh:
		return Event{Closed: true}
	}
}

// Close shuts the Broadcaster down: a blocked Receive call returns Closed,
// and later calls return Closed once the receiver has no pending lag count
// or queued chunk left (while chunks are still queued, a call may return
// one of them instead). Callers must call this only after the producer has
// stopped sending, so subscribers observe Closed rather than hanging.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.closeCh)
}
