// Package worker contains the background expiry sweep. The sweep is
// the only cancellation mechanism for abandoned checkouts: a client
// that walks away leaves a PENDING booking, and the sweep releases its
// seats once the hold window lapses.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/quickshow/quickshow/internal/monitoring"
	"github.com/quickshow/quickshow/internal/reservation"
)

// Sweeper periodically expires stale PENDING bookings through the
// reservation service.
type Sweeper struct {
	svc      *reservation.Service
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewSweeper returns a Sweeper ticking at the given interval. An
// interval of zero or less falls back to one minute.
func NewSweeper(svc *reservation.Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		stopCh:   make(chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the sweep loop. It runs until Stop is called or ctx
// is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		log.Printf("sweeper: running every %s (hold window %s)", s.interval, s.svc.HoldWindow())
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce performs a single sweep. Exposed so tests and shutdown paths
// can trigger a final pass deterministically.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	n, err := s.svc.ExpireStale(ctx, s.now())
	monitoring.SweepObserved(time.Since(start))
	if err != nil {
		log.Printf("sweeper: expire stale bookings: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweeper: expired %d stale booking(s)", n)
	}
}

// Stop terminates the loop and waits for the in-flight sweep to end.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}
