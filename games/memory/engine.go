/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sort"
	"time"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPin      = errors.New("wrong room pin")
	ErrEngineStopped = errors.New("engine stopped")
)

// DefaultSettleDelay is the pause between resolving a flipped pair and
// mutating the board, long enough for clients to animate the reveal.
const DefaultSettleDelay = 900 * time.Millisecond

// Broadcaster delivers outbound frames. Both methods are called from the
// event loop and must not block.
type Broadcaster interface {
	// Broadcast sends msg to every player currently in the room.
	Broadcast(room *Room, msg any)
	// Send sends msg to a single connection.
	Send(connID string, msg any)
}

// Settings tunes an Engine.
type Settings struct {
	SettleDelay time.Duration
	MaxPairs    int
	Logf        func(format string, args ...any)
}

// Option customises an Engine, mostly for tests.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithScheduler replaces the function used to run settle callbacks later.
// fn must eventually be invoked on the same goroutine as every other
// engine call.
func WithScheduler(after func(d time.Duration, fn func())) Option {
	return func(e *Engine) { e.after = after }
}

// WithRand fixes the shuffle source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// Engine owns every room's game logic. None of its methods are safe for
// concurrent use; run them all from one goroutine, normally a Loop.
type Engine struct {
	rooms    *Registry
	out      Broadcaster
	settings Settings

	now   func() time.Time
	after func(d time.Duration, fn func())
	rng   *rand.Rand

	// connection id -> room ids it has joined
	memberships map[string]map[string]bool
}

// NewEngine wires an engine to its registry and outbound channel.
func NewEngine(rooms *Registry, out Broadcaster, settings Settings, opts ...Option) *Engine {
	if settings.SettleDelay < 0 {
		settings.SettleDelay = 0
	}

	e := &Engine{
		rooms:       rooms,
		out:         out,
		settings:    settings,
		now:         time.Now,
		memberships: make(map[string]map[string]bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rooms exposes the registry the engine mutates.
func (e *Engine) Rooms() *Registry {
	return e.rooms
}

// Memberships lists the rooms a connection belongs to, sorted.
func (e *Engine) Memberships(connID string) []string {
	ids := make([]string, 0, len(e.memberships[connID]))
	for id := range e.memberships[connID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// State returns the snapshot of a room.
func (e *Engine) State(roomID string) (RoomUpdate, error) {
	r, ok := e.rooms.Get(roomID)
	if !ok {
		return RoomUpdate{}, ErrRoomNotFound
	}

	return Snapshot(r), nil
}

// Handle decodes one inbound frame from connID and routes it. Malformed
// frames and unknown types are dropped.
func (e *Engine) Handle(connID string, frame []byte) {
	var msg Message[json.RawMessage]
	if err := json.Unmarshal(frame, &msg); err != nil {
		e.logf("GAMES: Dropped malformed frame from %s: %v", connID, err)
		return
	}

	switch msg.Type {
	case TypeJoin:
		var req JoinRequest
		if e.decode(connID, msg, &req) {
			if err := e.Join(connID, string(req.RoomID), string(req.Name), string(req.Pin)); err != nil {
				e.logf("GAMES: Rejected join of %s to %s: %v", connID, SanitizeRoomID(string(req.RoomID)), err)
			}
		}
	case TypeCreate:
		e.CreateRoom(connID)
	case TypeSetPin:
		var req SetPinRequest
		if e.decode(connID, msg, &req) {
			e.SetPin(connID, string(req.RoomID), string(req.Pin))
		}
	case TypeSetTimer:
		var req SetTimerRequest
		if e.decode(connID, msg, &req) {
			e.SetTimer(connID, string(req.RoomID), req.Seconds)
		}
	case TypeStart:
		var req StartRequest
		if e.decode(connID, msg, &req) {
			e.Start(connID, string(req.RoomID), append([]Pair(req.Pairs), ParsePairs(string(req.Text))...))
		}
	case TypeNewRound, TypePause, TypeResume, TypeReset:
		var req RoomRequest
		if !e.decode(connID, msg, &req) {
			return
		}

		switch msg.Type {
		case TypeNewRound:
			e.NewRound(connID, string(req.RoomID))
		case TypePause:
			e.Pause(connID, string(req.RoomID))
		case TypeResume:
			e.Resume(connID, string(req.RoomID))
		case TypeReset:
			e.Reset(connID, string(req.RoomID))
		}
	case TypeFlip:
		var req FlipRequest
		if e.decode(connID, msg, &req) {
			e.Flip(connID, string(req.RoomID), string(req.CardID))
		}
	default:
		// ignore unknown types
	}
}

func (e *Engine) decode(connID string, msg Message[json.RawMessage], v any) bool {
	if len(msg.Data) == 0 {
		return true
	}

	if err := json.Unmarshal(msg.Data, v); err != nil {
		e.logf("GAMES: Dropped malformed %s from %s: %v", msg.Type, connID, err)
		return false
	}

	return true
}

func (e *Engine) emit(r *Room) {
	e.out.Broadcast(r, Message[RoomUpdate]{Type: TypeRoomUpdate, Data: Snapshot(r)})
}

func (e *Engine) emitTimer(r *Room) {
	e.out.Broadcast(r, Message[TimerUpdate]{Type: TypeTimerUpdate, Data: Timer(r)})
}

func (e *Engine) sendError(connID, text string) {
	e.out.Send(connID, Message[RoomError]{Type: TypeRoomError, Data: RoomError{Message: text}})
}

func (e *Engine) touch(r *Room) {
	r.lastActive = e.now()
}

// schedule runs fn after d unless the room has been replaced or its
// generation has moved on by then.
func (e *Engine) schedule(r *Room, d time.Duration, fn func()) {
	gen := r.generation
	run := func() {
		if live, ok := e.rooms.Get(r.ID); !ok || live != r || r.generation != gen {
			e.logf("GAMES: Discarded stale settle callback for %s", r.ID)
			return
		}
		fn()
	}

	if e.after == nil || d <= 0 {
		run()
		return
	}

	e.after(d, run)
}

func (e *Engine) logf(format string, args ...any) {
	if e.settings.Logf != nil {
		e.settings.Logf(format, args...)
	}
}
