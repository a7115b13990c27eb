/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"math/rand/v2"
	"testing"
	"time"
)

type delivery struct {
	to   string // connection id, or "" for a room broadcast
	room string
	msg  any
}

type recorder struct {
	sent []delivery
}

func (r *recorder) Broadcast(room *Room, msg any) {
	r.sent = append(r.sent, delivery{room: room.ID, msg: msg})
}

func (r *recorder) Send(connID string, msg any) {
	r.sent = append(r.sent, delivery{to: connID, msg: msg})
}

func (r *recorder) updates() []RoomUpdate {
	var out []RoomUpdate
	for _, d := range r.sent {
		if m, ok := d.msg.(Message[RoomUpdate]); ok {
			out = append(out, m.Data)
		}
	}
	return out
}

func (r *recorder) animations() []MatchAnimate {
	var out []MatchAnimate
	for _, d := range r.sent {
		if m, ok := d.msg.(Message[MatchAnimate]); ok {
			out = append(out, m.Data)
		}
	}
	return out
}

func (r *recorder) errorsFor(connID string) []RoomError {
	var out []RoomError
	for _, d := range r.sent {
		if m, ok := d.msg.(Message[RoomError]); ok && d.to == connID {
			out = append(out, m.Data)
		}
	}
	return out
}

type harness struct {
	t       *testing.T
	engine  *Engine
	out     *recorder
	clock   time.Time
	pending []func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		t:     t,
		out:   &recorder{},
		clock: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	h.engine = NewEngine(
		NewRegistry(DefaultTurnSeconds, h.now),
		h.out,
		Settings{SettleDelay: DefaultSettleDelay, MaxPairs: 40},
		WithClock(h.now),
		WithScheduler(func(_ time.Duration, fn func()) { h.pending = append(h.pending, fn) }),
		WithRand(rand.New(rand.NewPCG(7, 11))),
	)

	return h
}

func (h *harness) now() time.Time {
	return h.clock
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

// settle fires every pending settle callback.
func (h *harness) settle() {
	pending := h.pending
	h.pending = nil
	for _, fn := range pending {
		fn()
	}
}

func (h *harness) room(id string) *Room {
	h.t.Helper()

	r, ok := h.engine.Rooms().Get(id)
	if !ok {
		h.t.Fatalf("room %s does not exist", id)
	}
	return r
}

// cardID returns the id of the card showing text.
func (h *harness) cardID(roomID, text string) string {
	h.t.Helper()

	for _, c := range h.room(roomID).Cards {
		if c.Text == text {
			return c.ID
		}
	}
	h.t.Fatalf("no card %q in room %s", text, roomID)
	return ""
}

// lobby creates room id hosted by the first conn, with the rest joined in order.
func (h *harness) lobby(id string, conns ...string) {
	h.t.Helper()

	for _, c := range conns {
		h.engine.Join(c, id, c, "")
	}
	if got := len(h.room(id).Players); got != len(conns) {
		h.t.Fatalf("expected %d players, got %d", len(conns), got)
	}
}

var animals = []Pair{{A: "cat", B: "gato"}, {A: "dog", B: "perro"}}

func checkInvariants(t *testing.T, u RoomUpdate) {
	t.Helper()

	if len(u.Flipped) > 2 {
		t.Fatalf("flipped has %d entries", len(u.Flipped))
	}
	if len(u.Players) > 0 && (u.TurnIndex < 0 || u.TurnIndex >= len(u.Players)) {
		t.Fatalf("turnIndex %d out of range for %d players", u.TurnIndex, len(u.Players))
	}

	live := u.Started && !u.Paused && len(u.Players) > 0
	if live != (u.TurnEndsAt != nil) {
		t.Fatalf("turnEndsAt=%v but started=%t paused=%t players=%d",
			u.TurnEndsAt, u.Started, u.Paused, len(u.Players))
	}

	for _, id := range u.Flipped {
		for _, c := range u.Cards {
			if c.ID == id && (c.IsMatched || !c.IsFaceUp) {
				t.Fatalf("card %s in flip buffer but matched=%t faceUp=%t", id, c.IsMatched, c.IsFaceUp)
			}
		}
	}
}
