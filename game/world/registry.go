package world

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/multiworld-game/game/engine"
	"github.com/wricardo/multiworld-game/game/visual"
)

// Error messages below are returned verbatim as the {"success":false,
// "message":...} wire payload, so their text is part of the contract.
var (
	ErrVSIDRequired    = errors.New("This server requires VSID to connect. None present.")
	ErrIdentifierInUse = errors.New("Identifier already in use")
	ErrTooManySessions = errors.New("Too many sessions")
	ErrUnknownSession  = errors.New("No living agent with requested session ID")
)

// ConnectRequest carries the already-sanitized fields a ConnectionHandler
// extracted from a /connect body.
type ConnectRequest struct {
	ClientID  string
	HasVSID   bool
	VSIDText  string
	VSIDColor visual.Color
	Username  string
}

// SessionRecord is everything the registry tracks about one live session.
type SessionRecord struct {
	SID          string
	ClientID     string
	Session      *engine.LocalSession
	Identifier   *visual.Identifier
	LastActivity time.Time
	Queue        *ActionQueue
}

// MoveResult is the outcome of a registry-level Move call.
type MoveResult struct {
	Moved      bool
	Alive      bool
	Discovered *engine.Tile
}

// ConnectedObserver is notified once a new session is admitted.
type ConnectedObserver func(rec *SessionRecord, username string)

// DiedObserver is notified once a session is deregistered following its
// agent's death.
type DiedObserver func(rec *SessionRecord, reason engine.DeathReason)

// MovedObserver is notified on every accepted move a session's agent
// makes, before any Died event that same move produces.
type MovedObserver func(rec *SessionRecord, prev, curr engine.Vector)

// Registry is the per-world SessionRegistry: it owns admission, lookup,
// and eviction of every LocalSession in one world, enforcing invariants
// I1-I3 under a single mutex.
type Registry struct {
	grid                 *engine.Grid
	requireVSID          bool
	maxSessionsPerClient int
	cooldown             time.Duration
	reservation          visual.ReservationContext

	mu             sync.Mutex
	sessions       map[string]*SessionRecord
	clientSessions map[string]map[string]bool
	vsidInUse      map[string]string

	obsMu        sync.Mutex
	connectedObs []ConnectedObserver
	diedObs      []DiedObserver
	movedObs     []MovedObserver
}

// NewRegistry creates an empty registry for one world.
func NewRegistry(grid *engine.Grid, requireVSID bool, maxSessionsPerClient int, cooldown time.Duration, reservation visual.ReservationContext) *Registry {
	return &Registry{
		grid:                 grid,
		requireVSID:          requireVSID,
		maxSessionsPerClient: maxSessionsPerClient,
		cooldown:             cooldown,
		reservation:          reservation,
		sessions:             make(map[string]*SessionRecord),
		clientSessions:       make(map[string]map[string]bool),
		vsidInUse:            make(map[string]string),
	}
}

// OnSessionConnected registers a SessionConnected subscriber.
func (r *Registry) OnSessionConnected(fn ConnectedObserver) {
	r.obsMu.Lock()
	r.connectedObs = append(r.connectedObs, fn)
	r.obsMu.Unlock()
}

// OnAgentDied registers an AgentDied subscriber, fired after the session
// has already been removed from the registry.
func (r *Registry) OnAgentDied(fn DiedObserver) {
	r.obsMu.Lock()
	r.diedObs = append(r.diedObs, fn)
	r.obsMu.Unlock()
}

// OnAgentMoved registers an AgentMoved subscriber.
func (r *Registry) OnAgentMoved(fn MovedObserver) {
	r.obsMu.Lock()
	r.movedObs = append(r.movedObs, fn)
	r.obsMu.Unlock()
}

// Connect admits a new session, enforcing VSID requirements, identifier
// uniqueness (I2), and the per-client quota (I3).
func (r *Registry) Connect(req ConnectRequest) (sid string, err error) {
	var ident *visual.Identifier

	if req.HasVSID {
		id, verr := visual.New(req.VSIDText, req.VSIDColor, r.reservation)
		if verr != nil {
			return "", ErrIdentifierInUse
		}
		ident = &id
	} else if r.requireVSID {
		return "", ErrVSIDRequired
	}

	r.mu.Lock()

	if ident != nil {
		if _, inUse := r.vsidInUse[ident.Key()]; inUse {
			r.mu.Unlock()
			return "", ErrIdentifierInUse
		}
	}

	if len(r.clientSessions[req.ClientID]) >= r.maxSessionsPerClient {
		r.mu.Unlock()
		return "", ErrTooManySessions
	}

	sid = uuid.NewString()
	session := engine.NewLocalSession(r.grid)
	rec := &SessionRecord{
		SID:          sid,
		ClientID:     req.ClientID,
		Session:      session,
		Identifier:   ident,
		LastActivity: time.Now(),
		Queue:        NewActionQueue(session, r.cooldown),
	}

	r.sessions[sid] = rec
	if r.clientSessions[req.ClientID] == nil {
		r.clientSessions[req.ClientID] = make(map[string]bool)
	}
	r.clientSessions[req.ClientID][sid] = true
	if ident != nil {
		r.vsidInUse[ident.Key()] = sid
	}

	r.mu.Unlock()

	session.OnDied(func(reason engine.DeathReason) {
		r.deregister(sid, reason)
	})
	session.OnMoved(func(prev, curr engine.Vector) {
		r.notifyMoved(rec, prev, curr)
	})

	r.notifyConnected(rec, req.Username)

	return sid, nil
}

// Move serializes v onto sid's ActionQueue and reports the executed
// outcome, advancing lastActivity per invariant I5.
func (r *Registry) Move(ctx context.Context, sid string, v engine.Vector) (MoveResult, error) {
	r.mu.Lock()
	rec, ok := r.sessions[sid]
	r.mu.Unlock()
	if !ok {
		return MoveResult{}, ErrUnknownSession
	}

	outcome, err := rec.Queue.Enqueue(ctx, v)
	if err != nil {
		return MoveResult{}, err
	}

	if outcome.Alive && outcome.Moved {
		r.touch(sid)
	}

	return MoveResult{Moved: outcome.Moved, Alive: outcome.Alive, Discovered: outcome.Discovered}, nil
}

// Count returns the number of live sessions in the world.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ClientSessionCount returns the number of live sessions a client owns,
// the quantity invariant I3 bounds.
func (r *Registry) ClientSessionCount(clientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clientSessions[clientID])
}

// staleSessions returns every session whose lastActivity predates the
// cutoff. It is the read IdleSweeper uses before calling Kill outside the
// lock.
func (r *Registry) staleSessions(idleTimeout time.Duration) []*SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-idleTimeout)
	var stale []*SessionRecord
	for _, rec := range r.sessions {
		if rec.LastActivity.Before(cutoff) {
			stale = append(stale, rec)
		}
	}
	return stale
}

func (r *Registry) touch(sid string) {
	r.mu.Lock()
	if rec, ok := r.sessions[sid]; ok {
		rec.LastActivity = time.Now()
	}
	r.mu.Unlock()
}

// deregister removes sid from the registry (invariant I4) and closes its
// ActionQueue. It always acquires the mutex itself and is never called
// while the caller already holds it, so it is safe to invoke both from a
// Move-triggered death (no lock held) and from the idle sweeper (which
// reads stale sessions, releases the lock, then kills them).
func (r *Registry) deregister(sid string, reason engine.DeathReason) {
	r.mu.Lock()
	rec, ok := r.sessions[sid]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, sid)
	if clients, ok := r.clientSessions[rec.ClientID]; ok {
		delete(clients, sid)
		if len(clients) == 0 {
			delete(r.clientSessions, rec.ClientID)
		}
	}
	if rec.Identifier != nil {
		delete(r.vsidInUse, rec.Identifier.Key())
	}
	r.mu.Unlock()

	rec.Queue.Close()
	r.notifyDied(rec, reason)
}

func (r *Registry) notifyConnected(rec *SessionRecord, username string) {
	r.obsMu.Lock()
	obs := append([]ConnectedObserver(nil), r.connectedObs...)
	r.obsMu.Unlock()
	for _, fn := range obs {
		fn(rec, username)
	}
}

func (r *Registry) notifyDied(rec *SessionRecord, reason engine.DeathReason) {
	r.obsMu.Lock()
	obs := append([]DiedObserver(nil), r.diedObs...)
	r.obsMu.Unlock()
	for _, fn := range obs {
		fn(rec, reason)
	}
}

func (r *Registry) notifyMoved(rec *SessionRecord, prev, curr engine.Vector) {
	r.obsMu.Lock()
	obs := append([]MovedObserver(nil), r.movedObs...)
	r.obsMu.Unlock()
	for _, fn := range obs {
		fn(rec, prev, curr)
	}
}
