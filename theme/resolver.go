package theme

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

var ErrSimulatedFailure = errors.New("simulated resolution failure")

// DelayResolver waits a fixed delay and then picks a random palette.
type DelayResolver struct {
	Delay    time.Duration
	FailRate float64 // 0..1, fraction of requests that fail
	Palettes []Theme

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDelayResolver(delay time.Duration, failRate float64) *DelayResolver {
	return &DelayResolver{
		Delay:    delay,
		FailRate: failRate,
		Palettes: Palettes,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
}

func (r *DelayResolver) Resolve(ctx context.Context, _ Request) (Theme, error) {
	timer := time.NewTimer(r.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Theme{}, ctx.Err()
	case <-timer.C:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailRate > 0 && r.rng.Float64() < r.FailRate {
		return Theme{}, ErrSimulatedFailure
	}
	if len(r.Palettes) == 0 {
		return Default, nil
	}
	return r.Palettes[r.rng.IntN(len(r.Palettes))], nil
}

// ManualResolver blocks every request until the test completes it by ID.
type ManualResolver struct {
	mu      sync.Mutex
	waiting map[string]chan outcome
	arrived chan string
}

type outcome struct {
	theme Theme
	err   error
}

func NewManualResolver() *ManualResolver {
	return &ManualResolver{
		waiting: make(map[string]chan outcome),
		arrived: make(chan string, 64),
	}
}

func (m *ManualResolver) ch(id string) chan outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.waiting[id]
	if !ok {
		c = make(chan outcome, 1)
		m.waiting[id] = c
	}
	return c
}

func (m *ManualResolver) Resolve(ctx context.Context, req Request) (Theme, error) {
	c := m.ch(req.ID)
	select {
	case <-ctx.Done():
		return Theme{}, ctx.Err()
	case m.arrived <- req.ID:
	}
	select {
	case <-ctx.Done():
		return Theme{}, ctx.Err()
	case o := <-c:
		return o.theme, o.err
	}
}

// Arrived yields request IDs as resolvers start waiting.
func (m *ManualResolver) Arrived() <-chan string { return m.arrived }

func (m *ManualResolver) Succeed(id string, t Theme) { m.ch(id) <- outcome{theme: t} }

func (m *ManualResolver) Fail(id string, err error) { m.ch(id) <- outcome{err: err} }
