// Package jitter supplies the randomized choices and pauses that make
// fetches and rendering sessions look less like automation.
package jitter

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Pacer is the randomness and timing source used by the fetch and render
// layers. Implementations must be safe for concurrent use.
type Pacer interface {
	// Pause blocks for a random duration in [min, max] or until ctx is done.
	Pause(ctx context.Context, min, max time.Duration) error

	// Between returns a random int in [min, max].
	Between(min, max int) int

	// Pick returns a random index in [0, n). n must be positive.
	Pick(n int) int
}

// human is the production Pacer backed by math/rand/v2 and real timers.
type human struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Pacer that really sleeps.
func New() Pacer {
	return &human{rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))}
}

func (h *human) Pause(ctx context.Context, min, max time.Duration) error {
	d := h.duration(min, max)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *human) Between(min, max int) int {
	if max <= min {
		return min
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return min + h.rng.IntN(max-min+1)
}

func (h *human) Pick(n int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.IntN(n)
}

func (h *human) duration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return min + time.Duration(h.rng.Int64N(int64(max-min)+1))
}

// Instant is a deterministic Pacer for tests: choices come from a seeded
// generator and pauses return immediately. Requested pauses are summed so
// tests can assert how long a real run would have waited.
type Instant struct {
	mu     sync.Mutex
	rng    *rand.Rand
	waited time.Duration
	pauses int
}

// NewInstant returns an Instant seeded with seed.
func NewInstant(seed uint64) *Instant {
	return &Instant{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (i *Instant) Pause(ctx context.Context, min, max time.Duration) error {
	i.mu.Lock()
	i.waited += min
	i.pauses++
	i.mu.Unlock()
	return ctx.Err()
}

func (i *Instant) Between(min, max int) int {
	if max <= min {
		return min
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return min + i.rng.IntN(max-min+1)
}

func (i *Instant) Pick(n int) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rng.IntN(n)
}

// Pauses returns how many pauses were requested.
func (i *Instant) Pauses() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pauses
}

// Waited returns the sum of the minimum durations of all requested pauses.
func (i *Instant) Waited() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.waited
}
