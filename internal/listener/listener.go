// Package listener implements the Listener Session: per-HTTP-connection
// bookkeeping around a Broadcaster subscription, plus the concurrent map of
// live listeners that the Status Surface reads.
package listener

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dimitrymd/webradio-sub000/internal/geo"
)

// Info is the read-only snapshot of a Listener exposed to the Status
// Surface, including the optional geo enrichment fields.
type Info struct {
	ID             string    `json:"id"`
	ConnectedAt    time.Time `json:"connected_at"`
	BytesDelivered uint64    `json:"bytes_delivered"`
	UserAgentClass string    `json:"user_agent_class"`

	IPHash  string  `json:"ip_hash,omitempty"`
	Country string  `json:"country,omitempty"`
	Region  string  `json:"region,omitempty"`
	City    string  `json:"city,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// Listener is one live HTTP connection's bookkeeping. The raw remote
// address is never retained past construction: only its geo.Enrichment
// (a salted hash plus optional coarse location) is kept.
type Listener struct {
	id             string
	connectedAt    time.Time
	bytesDelivered atomic.Uint64
	userAgentClass string
	enrichment     geo.Enrichment
}

// Store is the concurrent map of live Listeners keyed by id.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*Listener
	maxSize int
}

// NewStore returns an empty Store enforcing maxListeners as a hard cap.
func NewStore(maxListeners int) *Store {
	return &Store{byID: make(map[string]*Listener), maxSize: maxListeners}
}

// TryAdd creates and registers a new Listener from the incoming request, or
// reports false if the store is already at its configured capacity. It owns
// client-IP extraction and User-Agent classification so callers only ever
// hand it the raw request and a Resolver.
func (s *Store) TryAdd(r *http.Request, resolver *geo.Resolver) (*Listener, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byID) >= s.maxSize {
		return nil, false
	}

	l := &Listener{
		id:             uuid.NewString(),
		connectedAt:    time.Now(),
		userAgentClass: clientClass(r.Header.Get("User-Agent")),
		enrichment:     resolver.Resolve(clientIP(r)),
	}
	s.byID[l.id] = l
	return l, true
}

// Remove deregisters a Listener on disconnect. It is idempotent.
func (s *Store) Remove(l *Listener) {
	s.mu.Lock()
	delete(s.byID, l.id)
	s.mu.Unlock()
}

// Count returns the number of currently live listeners.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot returns a point-in-time copy of every live listener's Info, for
// the /api/stats projection.
func (s *Store) Snapshot() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.byID))
	for _, l := range s.byID {
		out = append(out, l.info())
	}
	return out
}

func (l *Listener) info() Info {
	e := l.enrichment
	return Info{
		ID:             l.id,
		ConnectedAt:    l.connectedAt,
		BytesDelivered: l.bytesDelivered.Load(),
		UserAgentClass: l.userAgentClass,
		IPHash:         e.IPHash,
		Country:        e.Country,
		Region:         e.Region,
		City:           e.City,
		Lat:            e.Lat,
		Lon:            e.Lon,
	}
}

// ID returns the listener's opaque session id.
func (l *Listener) ID() string { return l.id }

// AddBytes accumulates bytes written to this listener's response body.
func (l *Listener) AddBytes(n int) { l.bytesDelivered.Add(uint64(n)) }
