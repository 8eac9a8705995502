// Package engine provides the universe orchestrator and the cycle loop that
// drives it.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Engine drives a universe forward one cycle per interval. Every access to
// the universe goes through Exec so external mutations never interleave with
// a cycle advance.
type Engine struct {
	mu       sync.Mutex
	universe *Universe

	Interval time.Duration // Time between cycles
	paused   bool

	// OnCycle callbacks run after each cycle, still holding the lock.
	onCycle []func(u *Universe, r CycleReport)

	log *slog.Logger
}

// NewEngine wraps a universe.
func NewEngine(u *Universe, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{
		universe: u,
		Interval: interval,
		log:      slog.With("component", "engine"),
	}
}

// Exec runs fn with exclusive access to the universe.
func (e *Engine) Exec(fn func(u *Universe) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.universe)
}

// OnCycle registers a callback run after every cycle.
func (e *Engine) OnCycle(fn func(u *Universe, r CycleReport)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCycle = append(e.onCycle, fn)
}

// SetPaused stops or resumes automatic cycles. Step still works while paused.
func (e *Engine) SetPaused(p bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = p
}

// Paused reports whether automatic cycles are stopped.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Step advances n cycles immediately.
func (e *Engine) Step(n int) ([]CycleReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	reports, err := e.universe.AdvanceCycles(n)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		e.afterCycle(r)
	}
	return reports, nil
}

func (e *Engine) step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return
	}
	e.afterCycle(e.universe.AdvanceCycle())
}

func (e *Engine) afterCycle(r CycleReport) {
	for _, fn := range e.onCycle {
		fn(e.universe, r)
	}
	if r.Developing > 0 || r.Matured > 0 {
		e.log.Debug("cycle", "cycle", r.Cycle, "developing", r.Developing, "matured", r.Matured)
	}
}

// Run advances the universe once per interval until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info("cycle engine started", "cycle", e.cycle(), "interval", e.Interval)
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("cycle engine stopped", "cycle", e.cycle())
			return
		case <-ticker.C:
			e.step()
		}
	}
}

func (e *Engine) cycle() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.universe.Cycle
}
