package world

import (
	"sync"
	"time"

	"github.com/wricardo/multiworld-game/game/engine"
)

// IdleSweeper periodically evicts sessions that have not moved within the
// configured idle timeout, firing ReasonIdle on each (invariant I5's
// counterpart: lastActivity only ever advances, but staleness is what
// finally kills the agent).
type IdleSweeper struct {
	registry    *Registry
	idleTimeout time.Duration
	interval    time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

// NewIdleSweeper builds a sweeper that checks for stale sessions once a
// second.
func NewIdleSweeper(registry *Registry, idleTimeout time.Duration) *IdleSweeper {
	return &IdleSweeper{
		registry:    registry,
		idleTimeout: idleTimeout,
		interval:    time.Second,
		done:        make(chan struct{}),
	}
}

// Run blocks, sweeping at the configured interval until Stop is called.
// Callers invoke it in its own goroutine.
func (s *IdleSweeper) Run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

// sweep reads the stale sessions under the registry's lock, then kills
// each one after releasing it, so the death notification chain
// (Kill -> Died -> Registry.deregister) never tries to reacquire a lock
// this goroutine is still holding.
func (s *IdleSweeper) sweep() {
	stale := s.registry.staleSessions(s.idleTimeout)
	for _, rec := range stale {
		rec.Session.Kill(engine.ReasonIdle)
	}
}

// Stop halts the sweeper. Safe to call more than once.
func (s *IdleSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
