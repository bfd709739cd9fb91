package collector

import (
	"sync"
	"time"
)

// DefaultCooldown is how long the gate stays closed after the provider answers 429.
// The free polygon.io tier allows 5 requests per minute.
const DefaultCooldown = 60 * time.Second

// RateGate holds the single process-wide cooldown started by a rate-limited response.
type RateGate struct {
	mu        sync.Mutex
	trippedAt time.Time
	cooldown  time.Duration
	now       func() time.Time
}

// NewRateGate creates an open gate with the default cooldown.
func NewRateGate() *RateGate {
	return NewRateGateWithClock(DefaultCooldown, time.Now)
}

// NewRateGateWithClock creates an open gate with a custom cooldown and clock.
func NewRateGateWithClock(cooldown time.Duration, now func() time.Time) *RateGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &RateGate{cooldown: cooldown, now: now}
}

// CheckAvailable reports whether requests may be sent. When the cooldown is unset or has
// elapsed it is cleared and true is returned. Otherwise the remaining wait is returned and
// the cooldown is left untouched.
func (g *RateGate) CheckAvailable() (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.trippedAt.IsZero() {
		return true, 0
	}
	elapsed := g.now().Sub(g.trippedAt)
	if elapsed < g.cooldown {
		return false, g.cooldown - elapsed
	}
	g.trippedAt = time.Time{}
	return true, 0
}

// Trip starts the cooldown at the current time.
func (g *RateGate) Trip() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trippedAt = g.now()
}

// Cooldown returns the configured cooldown period.
func (g *RateGate) Cooldown() time.Duration {
	return g.cooldown
}
