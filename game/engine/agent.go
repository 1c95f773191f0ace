package engine

import "sync"

// DeathReason is the exact, client-visible string explaining why an agent
// died. The three values below are the only ones this engine produces.
type DeathReason string

const (
	ReasonWanderedOut DeathReason = "Wandered out of the map"
	ReasonTrap        DeathReason = "Stepped on a trap"
	ReasonIdle        DeathReason = "Inactive for too long"
)

// MovedObserver is notified on every accepted translate, before any kill
// event that same step produces.
type MovedObserver func(prev, curr Vector)

// DiedObserver is notified exactly once, on the alive→dead transition.
type DiedObserver func(reason DeathReason)

// MoveOutcome is the result of a single Move call.
type MoveOutcome struct {
	Moved      bool
	Alive      bool
	Discovered *Tile
}

// historySize bounds the ring of recent events kept for diagnostic
// logging; it is not part of the wire contract.
const historySize = 10

// HistoryEntry is one Moved or Died event recorded in a LocalSession's
// diagnostic ring buffer.
type HistoryEntry struct {
	Prev   Vector
	Curr   Vector
	Died   bool
	Reason DeathReason
}

// LocalSession owns a single agent on a Grid: its position, alive flag,
// and the tile it last discovered. Callers are expected to serialize
// calls to Move per session (see world.ActionQueue); Kill may still race
// a concurrent Move from the idle sweeper, so the mutating fields carry
// their own mutex rather than relying solely on external serialization.
type LocalSession struct {
	grid *Grid

	mu             sync.Mutex
	alive          bool
	location       Vector
	discoveredTile *Tile
	history        []HistoryEntry

	obsMu    sync.Mutex
	movedObs []MovedObserver
	diedObs  []DiedObserver
}

// NewLocalSession creates a live agent at the spawn point (0,0) on grid.
func NewLocalSession(grid *Grid) *LocalSession {
	return &LocalSession{
		grid:     grid,
		alive:    true,
		location: Vector{X: 0, Y: 0},
	}
}

// OnMoved registers a Moved subscriber. Subscribers must not block; they
// should hand off work or synchronize on their own presentation lock.
func (s *LocalSession) OnMoved(fn MovedObserver) {
	s.obsMu.Lock()
	s.movedObs = append(s.movedObs, fn)
	s.obsMu.Unlock()
}

// OnDied registers a Died subscriber. Died fires exactly once, on the
// alive→dead transition.
func (s *LocalSession) OnDied(fn DiedObserver) {
	s.obsMu.Lock()
	s.diedObs = append(s.diedObs, fn)
	s.obsMu.Unlock()
}

// Alive reports whether the agent has not yet died.
func (s *LocalSession) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Location returns the agent's current position.
func (s *LocalSession) Location() Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// DiscoveredTile returns the tile that caused the most recent death, or
// nil if the agent is alive or died out of bounds.
func (s *LocalSession) DiscoveredTile() *Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discoveredTile
}

// History returns up to the last historySize Moved/Died events, oldest
// first. It exists for diagnostic logging only; there is no wire endpoint
// that exposes it.
func (s *LocalSession) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HistoryEntry(nil), s.history...)
}

func (s *LocalSession) recordHistory(entry HistoryEntry) {
	s.mu.Lock()
	s.history = append(s.history, entry)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.mu.Unlock()
}

// Move applies v to the agent per the admissible-move contract: rejected
// vectors and dead agents produce no side effect; accepted vectors always
// emit Moved before any resulting Died.
func (s *LocalSession) Move(v Vector) MoveOutcome {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return MoveOutcome{Moved: false, Alive: false, Discovered: nil}
	}
	if !IsAdmissibleMove(v) {
		s.mu.Unlock()
		return MoveOutcome{Moved: false, Alive: true, Discovered: nil}
	}

	prev := s.location
	curr := prev.Add(v)
	s.location = curr
	s.mu.Unlock()

	s.recordHistory(HistoryEntry{Prev: prev, Curr: curr})
	s.notifyMoved(prev, curr)

	if !s.grid.InBounds(curr.X, curr.Y) {
		s.kill(ReasonWanderedOut)
		return MoveOutcome{Moved: true, Alive: false, Discovered: nil}
	}

	if tile, isTrap := s.grid.TrapAt(curr.X, curr.Y); isTrap {
		s.mu.Lock()
		s.discoveredTile = &tile
		s.mu.Unlock()
		s.kill(ReasonTrap)
		return MoveOutcome{Moved: true, Alive: false, Discovered: &tile}
	}

	return MoveOutcome{Moved: true, Alive: true, Discovered: nil}
}

// Kill transitions the agent to dead and fires Died exactly once. It is
// idempotent: calling it on an already-dead agent is a no-op. This is the
// path the idle sweeper and the trap/bounds checks above both use.
func (s *LocalSession) Kill(reason DeathReason) {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	s.alive = false
	s.mu.Unlock()

	s.recordHistory(HistoryEntry{Died: true, Reason: reason})
	s.notifyDied(reason)
}

func (s *LocalSession) kill(reason DeathReason) { s.Kill(reason) }

func (s *LocalSession) notifyMoved(prev, curr Vector) {
	s.obsMu.Lock()
	obs := append([]MovedObserver(nil), s.movedObs...)
	s.obsMu.Unlock()
	for _, fn := range obs {
		fn(prev, curr)
	}
}

func (s *LocalSession) notifyDied(reason DeathReason) {
	s.obsMu.Lock()
	obs := append([]DiedObserver(nil), s.diedObs...)
	s.obsMu.Unlock()
	for _, fn := range obs {
		fn(reason)
	}
}
