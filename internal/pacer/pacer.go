// Package pacer releases chunks at the rate implied by a track's bitrate,
// using a deadline schedule so transient delays never accumulate drift.
package pacer

import "time"

// Pacer computes successive deadlines t0, t0+Δ, t0+2Δ, ... for a bitrate
// and chunk size. The first WarmupChunks releases of a track are unpaced;
// steady-state pacing starts after that.
type Pacer struct {
	delta    time.Duration
	warmup   int
	released int
	nextAt   time.Time
	started  bool
}

// New returns a Pacer for bitrateBPS/chunkSizeBytes, with warmupChunks
// initial unpaced releases.
func New(bitrateBPS uint64, chunkSizeBytes int, warmupChunks int) *Pacer {
	delta := time.Duration(float64(chunkSizeBytes) * 8 / float64(bitrateBPS) * float64(time.Second))
	if delta <= 0 {
		delta = time.Millisecond
	}
	return &Pacer{delta: delta, warmup: warmupChunks}
}

// Delta returns the inter-chunk delay at steady state.
func (p *Pacer) Delta() time.Duration { return p.delta }

// Wait blocks until the next chunk's release deadline, or until done fires,
// whichever comes first. It returns false if done fired. During the
// configured warm-up window it returns immediately without blocking, so a
// freshly-subscribed listener gets a burst of chunks before steady pacing
// begins.
//
// Deadlines are computed by repeated addition from a fixed start time
// (t0 + nΔ), not by sleeping Δ after every release, so a producer that
// falls behind schedule catches up by releasing chunks back-to-back
// without ever sleeping negative or compounding error — but it never
// releases faster than the caller actually reads, since Wait only ever
// gates the *next* call; it cannot make the disk faster.
func (p *Pacer) Wait(done <-chan struct{}) bool {
	if p.released < p.warmup {
		p.released++
		return true
	}

	now := time.Now()
	if !p.started {
		p.nextAt = now
		p.started = true
	}

	p.released++
	p.nextAt = p.nextAt.Add(p.delta)

	wait := p.nextAt.Sub(now)
	if wait <= 0 {
		// Behind schedule: release immediately, schedule is already caught
		// up to "now" on the next call since nextAt keeps advancing by Δ.
		return true
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-done:
		return false
	}
}
