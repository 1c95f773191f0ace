package world

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/multiworld-game/game/engine"
)

// ErrQueueClosed is returned when a move is submitted after the session's
// ActionQueue has already been torn down (the agent died and the registry
// deregistered its session).
var ErrQueueClosed = errors.New("world: action queue closed")

type moveRequest struct {
	vector engine.Vector
	resp   chan engine.MoveOutcome
}

// ActionQueue is the per-session tail-of-chain serializer: a single
// worker goroutine drains a request channel in arrival order,
// applying a fixed post-action cooldown before each response is ready.
// Because exactly one goroutine ever calls Session.Move, invariant I6
// holds without any additional locking.
type ActionQueue struct {
	session  *engine.LocalSession
	cooldown time.Duration

	requests  chan moveRequest
	done      chan struct{}
	closeOnce sync.Once
}

// NewActionQueue starts the worker goroutine for session and returns the
// queue handle. Close must be called once the session is no longer
// reachable to stop the goroutine.
func NewActionQueue(session *engine.LocalSession, cooldown time.Duration) *ActionQueue {
	q := &ActionQueue{
		session:  session,
		cooldown: cooldown,
		requests: make(chan moveRequest),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *ActionQueue) run() {
	for {
		select {
		case req := <-q.requests:
			outcome := q.session.Move(req.vector)
			if q.cooldown > 0 {
				time.Sleep(q.cooldown)
			}
			req.resp <- outcome
		case <-q.done:
			return
		}
	}
}

// Enqueue appends v as the next continuation for this session and blocks
// until it has executed (and the cooldown elapsed) or ctx is canceled.
// A cancellation before the request is accepted by the worker drops it
// without executing; a cancellation after it starts running does not
// abort the in-flight Move, it only stops Enqueue from waiting on the
// response.
func (q *ActionQueue) Enqueue(ctx context.Context, v engine.Vector) (engine.MoveOutcome, error) {
	resp := make(chan engine.MoveOutcome, 1)
	select {
	case q.requests <- moveRequest{vector: v, resp: resp}:
	case <-q.done:
		return engine.MoveOutcome{}, ErrQueueClosed
	case <-ctx.Done():
		return engine.MoveOutcome{}, ctx.Err()
	}

	select {
	case outcome := <-resp:
		return outcome, nil
	case <-ctx.Done():
		return engine.MoveOutcome{}, ctx.Err()
	}
}

// Close stops the worker goroutine. Safe to call more than once.
func (q *ActionQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
