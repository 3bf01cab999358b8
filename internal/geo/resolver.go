// Package geo provides optional listener geolocation enrichment. It is
// disabled by default and becomes a privacy-preserving no-op whenever no
// GeoLite2 database path is configured.
package geo

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Enrichment is what Resolve returns: geo fields plus a salted hash of the
// IP, computed instead of retaining the raw address.
type Enrichment struct {
	IPHash  string
	Country string
	Region  string
	City    string
	Lat     float64
	Lon     float64
}

// Resolver wraps an optional GeoLite2-City database. The zero value
// (via New with an empty path) is a working no-op resolver.
type Resolver struct {
	mu   sync.RWMutex
	db   *geoip2.Reader
	salt []byte
	ok   bool
}

// New opens dbPath if non-empty. A failure to open logs a warning and
// leaves the Resolver in no-op mode rather than failing startup.
func New(dbPath, salt string) *Resolver {
	r := &Resolver{salt: []byte(salt)}
	if dbPath == "" {
		return r
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		log.Printf("geo: failed to open GeoLite2 database %s, continuing without geo: %v", dbPath, err)
		return r
	}
	r.db = db
	r.ok = true
	return r
}

// Close releases the underlying database, if one is open.
func (r *Resolver) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db != nil {
		r.db.Close()
	}
}

// Enabled reports whether a GeoLite2 database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ok
}

// Resolve enriches ip. If geo lookup is disabled or fails, it still returns
// a salted IP hash with empty location fields, so callers can always drop
// the raw address after calling Resolve.
func (r *Resolver) Resolve(ip net.IP) Enrichment {
	e := Enrichment{IPHash: r.hash(ip)}
	if ip == nil {
		return e
	}

	r.mu.RLock()
	db, ok := r.db, r.ok
	r.mu.RUnlock()
	if !ok {
		return e
	}

	city, err := db.City(ip)
	if err != nil {
		return e
	}
	if city.Country.IsoCode != "" {
		e.Country = city.Country.IsoCode
	}
	if len(city.Subdivisions) > 0 {
		e.Region = city.Subdivisions[0].Names["en"]
	}
	if name := city.City.Names["en"]; name != "" {
		e.City = name
	}
	e.Lat = round2(city.Location.Latitude)
	e.Lon = round2(city.Location.Longitude)
	return e
}

func (r *Resolver) hash(ip net.IP) string {
	if ip == nil {
		return ""
	}
	sum := sha256.Sum256(append(r.salt, []byte(ip.String())...))
	return hex.EncodeToString(sum[:])
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
