package discovery

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer spaces out requests by a random delay in [Min, Max].
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// DefaultPacer waits between half a second and a second.
func DefaultPacer() Pacer {
	return Pacer{Min: 500 * time.Millisecond, Max: time.Second}
}

// Delay returns the next delay.
func (p Pacer) Delay() time.Duration {
	if p.Max <= p.Min {
		return max(p.Min, 0)
	}
	return p.Min + rand.N(p.Max-p.Min+1)
}

// Wait sleeps for the next delay or until ctx is done.
func (p Pacer) Wait(ctx context.Context) error {
	return sleepContext(ctx, p.Delay())
}
