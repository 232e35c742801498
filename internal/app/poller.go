/**
 * @description
 * Background metrics refresher. Keeps a recent dashboard snapshot warm so the
 * portal can answer snapshot reads without waiting on the backend, and so a
 * slow backend never stacks overlapping refreshes.
 */
package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Poller refreshes the dashboard snapshot on a fixed interval. A refresh that
// outlives the interval causes the next tick to be skipped rather than queued.
type Poller struct {
	service  *Service
	interval time.Duration

	inFlight atomic.Bool

	mu       sync.RWMutex
	snapshot DashboardSnapshot
	primed   bool
}

// NewPoller creates a poller on top of the facade. A zero interval disables
// Run entirely.
func NewPoller(service *Service, interval time.Duration) *Poller {
	return &Poller{service: service, interval: interval}
}

// Run refreshes on every tick until ctx is cancelled. Blocking; run it in its
// own goroutine.
func (p *Poller) Run(ctx context.Context) {
	if p.interval <= 0 {
		log.Printf("level=info component=poller msg=\"refresh interval disabled\"")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh loads one snapshot unless a previous load is still running.
func (p *Poller) refresh(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		log.Printf("level=warn component=poller msg=\"previous refresh still running; skipping tick\"")
		return
	}
	defer p.inFlight.Store(false)

	snapshot := p.service.LoadDashboard(ctx)

	p.mu.Lock()
	p.snapshot = snapshot
	p.primed = true
	p.mu.Unlock()
}

// Snapshot returns the most recent dashboard snapshot and whether one has been
// taken yet.
func (p *Poller) Snapshot() (DashboardSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, p.primed
}
