/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"slices"
	"time"
)

const (
	wrongPinMessage       = "Wrong room password / PIN."
	sessionExpiredMessage = "Session expired."
)

// Join adds connID to a room, creating the room (with connID as host and
// pin as its PIN) if it does not exist yet. Rejoining with the same
// connection keeps the existing player untouched. A wrong PIN is reported
// to the caller as room:error and returned as ErrWrongPin.
func (e *Engine) Join(connID, roomID, name, pin string) error {
	roomID = SanitizeRoomID(roomID)
	if roomID == "" || connID == "" {
		return nil
	}

	pin = SafePin(pin)

	r, created := e.rooms.Create(roomID)
	if created {
		r.HostID = connID
		r.Pin = pin
		e.logf("GAMES: Created room %s for %s", r.ID, connID)
	}

	e.touch(r)

	existing := r.Player(connID)

	if r.Pin != "" && pin != r.Pin && existing == nil {
		e.sendError(connID, wrongPinMessage)
		return ErrWrongPin
	}

	if existing == nil {
		p := &Player{
			ID:    connID,
			Name:  r.uniqueName(SafeName(name)),
			Stack: []StackEntry{},
		}
		r.Players = append(r.Players, p)

		if e.memberships[connID] == nil {
			e.memberships[connID] = make(map[string]bool)
		}
		e.memberships[connID][r.ID] = true

		e.logf("GAMES: Player %q joined %s", p.Name, r.ID)
	}

	e.emit(r)

	return nil
}

// CreateRoom mints an unused room id and returns it to the caller only.
// The room itself comes into being on the first join.
func (e *Engine) CreateRoom(connID string) string {
	id := e.rooms.NewRoomID()
	e.out.Send(connID, Message[RoomCreated]{Type: TypeRoomCreated, Data: RoomCreated{RoomID: id}})

	return id
}

// hostRoom returns the room only when connID is its host.
func (e *Engine) hostRoom(connID, roomID string) *Room {
	r, ok := e.rooms.Get(roomID)
	if !ok || connID == "" || r.HostID != connID {
		return nil
	}

	e.touch(r)

	return r
}

// SetPin changes or clears (empty pin) the room PIN.
func (e *Engine) SetPin(connID, roomID, pin string) {
	r := e.hostRoom(connID, roomID)
	if r == nil {
		return
	}

	r.Pin = SafePin(pin)
	e.emit(r)
}

// Start builds a new board from pairs and begins the first turn. Fewer
// than two usable pairs leaves the room as it was.
func (e *Engine) Start(connID, roomID string, pairs []Pair) {
	r := e.hostRoom(connID, roomID)
	if r == nil {
		return
	}

	clean := CleanPairs(pairs, e.settings.MaxPairs)
	if len(clean) < MinPairs {
		return
	}

	r.SourcePairs = clean
	e.beginRound(r)
}

// NewRound reshuffles the last deck and starts over.
func (e *Engine) NewRound(connID, roomID string) {
	r := e.hostRoom(connID, roomID)
	if r == nil || len(r.SourcePairs) < MinPairs {
		return
	}

	e.beginRound(r)
}

// Reset returns a running room to the lobby. Scores stay visible until the
// next start.
func (e *Engine) Reset(connID, roomID string) {
	r := e.hostRoom(connID, roomID)
	if r == nil || !r.Started {
		return
	}

	r.Started = false
	r.Paused = false
	r.Cards = []Card{}
	r.Flipped = r.Flipped[:0]
	r.TurnIndex = 0
	r.TurnEndsAt = time.Time{}
	r.bump()

	e.logf("GAMES: Reset %s to lobby", r.ID)
	e.emitTimer(r)
	e.emit(r)
}

func (e *Engine) beginRound(r *Room) {
	r.Cards = BuildDeck(r.SourcePairs, e.rng)
	r.resetPlayers()
	r.TurnIndex = 0
	r.Flipped = r.Flipped[:0]
	r.Started = true
	r.Paused = false
	r.bump()

	e.logf("GAMES: Started round with %d pairs in %s", len(r.SourcePairs), r.ID)
	e.startTurn(r)
	e.emit(r)
}

// Disconnect removes connID from every room it joined. Host duty passes to
// the earliest remaining joiner; empty rooms are deleted.
func (e *Engine) Disconnect(connID string) {
	for _, roomID := range e.Memberships(connID) {
		r, ok := e.rooms.Get(roomID)
		if !ok {
			continue
		}

		idx := r.playerIndex(connID)
		if idx < 0 {
			continue
		}

		wasCurrent := idx == r.TurnIndex
		r.Players = slices.Delete(r.Players, idx, idx+1)
		e.touch(r)

		if len(r.Players) == 0 {
			e.rooms.Delete(r.ID)
			r.bump()
			e.logf("GAMES: Room %s is empty, removed", r.ID)
			continue
		}

		if r.HostID == connID {
			r.HostID = r.Players[0].ID
			e.logf("GAMES: Host of %s passed to %q", r.ID, r.Players[0].Name)
		}

		if idx < r.TurnIndex {
			r.TurnIndex--
		}
		if r.TurnIndex >= len(r.Players) {
			r.TurnIndex = 0
		}

		if wasCurrent && r.Started {
			r.hideFlipped()
			r.bump()
			e.startTurn(r)
		}

		e.emit(r)
	}

	delete(e.memberships, connID)
}

// Reap tears down rooms idle since before cutoff.
func (e *Engine) Reap(cutoff time.Time) {
	for _, roomID := range e.rooms.Idle(cutoff) {
		r, ok := e.rooms.Get(roomID)
		if !ok {
			continue
		}

		for _, p := range r.Players {
			e.sendError(p.ID, sessionExpiredMessage)
			delete(e.memberships[p.ID], r.ID)
			if len(e.memberships[p.ID]) == 0 {
				delete(e.memberships, p.ID)
			}
		}

		r.bump()
		e.rooms.Delete(r.ID)
		e.logf("GAMES: Reaped idle room %s", r.ID)
	}
}
