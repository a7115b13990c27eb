/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import "time"

// startTurn sets a fresh deadline for the current player and announces it.
// It does nothing beyond clearing the deadline when the room is not
// started, is paused or is empty.
func (e *Engine) startTurn(r *Room) bool {
	if !r.Started || r.Paused || len(r.Players) == 0 {
		r.TurnEndsAt = time.Time{}
		return false
	}

	r.TurnEndsAt = e.now().Add(time.Duration(r.TurnSeconds) * time.Second)
	e.emitTimer(r)

	return true
}

// advanceTurn hides any unresolved face-up cards and hands the turn to the
// next player in join order. Pending settle callbacks for the old turn are
// invalidated.
func (e *Engine) advanceTurn(r *Room) {
	r.hideFlipped()
	r.bump()

	if len(r.Players) == 0 {
		r.TurnIndex = 0
		r.TurnEndsAt = time.Time{}
		return
	}

	r.TurnIndex = (r.TurnIndex + 1) % len(r.Players)
	e.startTurn(r)
	e.emit(r)
}

// Sweep advances every room whose turn deadline has passed. This is the
// only place turn timeouts are enforced.
func (e *Engine) Sweep() {
	now := e.now()

	for _, r := range e.rooms.Rooms() {
		if !r.Started || r.Paused || len(r.Players) == 0 || r.TurnEndsAt.IsZero() {
			continue
		}

		// A pair is mid-resolution; its callback restarts or advances the turn.
		if len(r.Flipped) == 2 {
			continue
		}

		if now.Before(r.TurnEndsAt) {
			continue
		}

		e.logf("GAMES: Turn timed out in %s", r.ID)
		e.advanceTurn(r)
	}
}

// SetTimer changes the turn length. A running turn restarts with the new
// length rather than keeping its remaining time.
func (e *Engine) SetTimer(connID, roomID string, seconds Seconds) {
	r := e.hostRoom(connID, roomID)
	if r == nil {
		return
	}

	if seconds.Valid {
		r.TurnSeconds = ClampSeconds(seconds.Value)
	} else {
		r.TurnSeconds = DefaultTurnSeconds
	}

	if r.Started {
		e.startTurn(r)
	}
	e.emit(r)
}

// Pause suspends the turn clock.
func (e *Engine) Pause(connID, roomID string) {
	r := e.hostRoom(connID, roomID)
	if r == nil || !r.Started || r.Paused {
		return
	}

	r.Paused = true
	r.TurnEndsAt = time.Time{}

	e.logf("GAMES: Paused %s", r.ID)
	e.emitTimer(r)
	e.emit(r)
}

// Resume restarts the clock with a full turn for the same player.
func (e *Engine) Resume(connID, roomID string) {
	r := e.hostRoom(connID, roomID)
	if r == nil || !r.Started || !r.Paused {
		return
	}

	r.Paused = false

	e.logf("GAMES: Resumed %s", r.ID)
	e.startTurn(r)
	e.emit(r)
}
