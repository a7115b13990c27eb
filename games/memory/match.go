/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"strings"
	"time"
)

// Flip reveals a card for the player whose turn it is. Out-of-turn flips,
// flips while paused, flips of matched or already face-up cards and flips
// with two cards already showing are ignored.
func (e *Engine) Flip(connID, roomID, cardID string) {
	r, ok := e.rooms.Get(roomID)
	if !ok || !r.Started || r.Paused {
		return
	}

	current := r.Current()
	if current == nil || current.ID != connID {
		return
	}

	if len(r.Flipped) >= 2 {
		return
	}

	card := r.Card(cardID)
	if card == nil || card.IsMatched || card.IsFaceUp {
		return
	}

	e.touch(r)

	card.IsFaceUp = true
	r.Flipped = append(r.Flipped, card.ID)
	if len(r.Flipped) == 2 {
		current.Attempts++
	}
	e.emit(r)

	if len(r.Flipped) < 2 {
		return
	}

	first, second := r.Card(r.Flipped[0]), r.Card(r.Flipped[1])
	playerID := current.ID

	if first.PairID != second.PairID {
		e.schedule(r, e.settings.SettleDelay, func() {
			e.resolveMiss(r)
		})
		return
	}

	a, b := orient(first, second)
	e.out.Broadcast(r, Message[MatchAnimate]{
		Type: TypeMatchAnimate,
		Data: MatchAnimate{
			CardIDs:  [2]string{first.ID, second.ID},
			PlayerID: playerID,
			A:        a.Text,
			B:        b.Text,
		},
	})

	firstID, secondID := first.ID, second.ID
	e.schedule(r, e.settings.SettleDelay, func() {
		e.resolveMatch(r, playerID, firstID, secondID)
	})
}

// resolveMatch retires a matched pair, pays the player and keeps the turn
// with them.
func (e *Engine) resolveMatch(r *Room, playerID, firstID, secondID string) {
	first, second := r.Card(firstID), r.Card(secondID)
	player := r.Player(playerID)

	if first == nil || second == nil || player == nil {
		r.hideFlipped()
		e.emit(r)
		return
	}

	a, b := orient(first, second)

	for _, c := range []*Card{first, second} {
		c.IsMatched = true
		c.IsFaceUp = false
	}

	player.Score += MatchReward
	player.Stack = append(player.Stack, StackEntry{PairID: a.PairID, A: a.Text, B: b.Text})
	r.Flipped = r.Flipped[:0]

	e.logf("GAMES: %q matched %q/%q in %s", player.Name, a.Text, b.Text, r.ID)

	if boardCleared(r) {
		e.finishRound(r)
		return
	}

	e.startTurn(r)
	e.emit(r)
}

// resolveMiss turns a mismatched pair back down and passes the turn on.
func (e *Engine) resolveMiss(r *Room) {
	e.advanceTurn(r)
}

// finishRound stops the clock once every pair is collected. The board and
// scores stay visible until the host starts another round.
func (e *Engine) finishRound(r *Room) {
	r.Started = false
	r.Paused = false
	r.TurnEndsAt = time.Time{}
	r.bump()

	e.logf("GAMES: Board cleared in %s", r.ID)
	e.emitTimer(r)
	e.emit(r)
}

func boardCleared(r *Room) bool {
	for _, c := range r.Cards {
		if !c.IsMatched {
			return false
		}
	}

	return len(r.Cards) > 0
}

// orient returns the two cards of a pair as (A side, B side).
func orient(x, y *Card) (*Card, *Card) {
	if strings.HasSuffix(y.ID, "_a") && !strings.HasSuffix(x.ID, "_a") {
		return y, x
	}

	return x, y
}
