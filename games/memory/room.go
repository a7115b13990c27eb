/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"strconv"
	"time"
)

// Phase is the turn/timer state of a room.
type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseInTurn Phase = "in_turn"
	PhasePaused Phase = "paused"
)

// MatchReward is the number of points awarded per matched pair.
const MatchReward = 2

// StackEntry is one collected pair, in the order it was matched.
type StackEntry struct {
	PairID string `json:"pairId"`
	A      string `json:"a"`
	B      string `json:"b"`
}

// Player is a room member. Join order defines turn rotation.
type Player struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Score    int          `json:"score"`
	Attempts int          `json:"attempts"`
	Stack    []StackEntry `json:"stack"`
}

// Room is the canonical state of one game session. It is only ever touched
// from the engine's event loop, so it carries no lock.
type Room struct {
	ID          string
	HostID      string
	Pin         string
	Players     []*Player
	Cards       []Card
	TurnIndex   int
	Flipped     []string
	Started     bool
	Paused      bool
	TurnSeconds int
	TurnEndsAt  time.Time
	SourcePairs []Pair

	// generation is bumped whenever pending settle callbacks must be
	// discarded: round resets, turn advances, current player leaving.
	generation uint64
	lastActive time.Time
}

func newRoom(id string, now time.Time, turnSeconds int) *Room {
	return &Room{
		ID:          id,
		Players:     []*Player{},
		Cards:       []Card{},
		Flipped:     []string{},
		TurnSeconds: ClampSeconds(turnSeconds),
		lastActive:  now,
	}
}

// Phase reports where the room is in the turn state machine.
func (r *Room) Phase() Phase {
	switch {
	case !r.Started:
		return PhaseLobby
	case r.Paused:
		return PhasePaused
	default:
		return PhaseInTurn
	}
}

// Generation returns the current settle-callback generation.
func (r *Room) Generation() uint64 {
	return r.generation
}

func (r *Room) bump() {
	r.generation++
}

func (r *Room) playerIndex(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}

	return -1
}

// Player returns the member with the given connection id.
func (r *Room) Player(id string) *Player {
	if i := r.playerIndex(id); i >= 0 {
		return r.Players[i]
	}

	return nil
}

// Current returns the player whose turn it is, or nil.
func (r *Room) Current() *Player {
	if r.TurnIndex < 0 || r.TurnIndex >= len(r.Players) {
		return nil
	}

	return r.Players[r.TurnIndex]
}

// Card returns a pointer into the board for the given card id, or nil.
func (r *Room) Card(id string) *Card {
	for i := range r.Cards {
		if r.Cards[i].ID == id {
			return &r.Cards[i]
		}
	}

	return nil
}

func (r *Room) uniqueName(name string) string {
	taken := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		taken[p.Name] = true
	}

	if !taken[name] {
		return name
	}

	for n := 2; ; n++ {
		candidate := name + " " + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// hideFlipped turns every face-up, unmatched card in the flip buffer back
// down and empties the buffer.
func (r *Room) hideFlipped() {
	for _, id := range r.Flipped {
		if c := r.Card(id); c != nil && !c.IsMatched {
			c.IsFaceUp = false
		}
	}

	r.Flipped = r.Flipped[:0]
}

func (r *Room) resetPlayers() {
	for _, p := range r.Players {
		p.Score = 0
		p.Attempts = 0
		p.Stack = []StackEntry{}
	}
}
