/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"crypto/rand"
	"sort"
	"sync"
	"time"
)

const (
	roomIDLength  = 6
	roomIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry maps canonical room ids to rooms. Ids are sanitized on every
// call, so "abc12", " ABC12 " and "ABC12" all address the same room.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	now         func() time.Time
	turnSeconds int
}

// NewRegistry returns an empty registry whose new rooms start with the
// given turn length.
func NewRegistry(turnSeconds int, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}

	return &Registry{
		rooms:       make(map[string]*Room),
		now:         now,
		turnSeconds: ClampSeconds(turnSeconds),
	}
}

// Create returns the room for id, creating it if needed. An existing room is
// never overwritten. A nil room is returned when id sanitizes to nothing.
func (g *Registry) Create(id string) (room *Room, created bool) {
	id = SanitizeRoomID(id)
	if id == "" {
		return nil, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[id]; ok {
		return r, false
	}

	r := newRoom(id, g.now(), g.turnSeconds)
	g.rooms[id] = r

	return r, true
}

// Get looks up a room.
func (g *Registry) Get(id string) (*Room, bool) {
	id = SanitizeRoomID(id)

	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.rooms[id]

	return r, ok
}

// Delete removes a room. Deleting an unknown room is a no-op.
func (g *Registry) Delete(id string) {
	id = SanitizeRoomID(id)

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.rooms, id)
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}

// Rooms returns the live rooms ordered by id.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Idle returns the ids of rooms with no activity since cutoff.
func (g *Registry) Idle(cutoff time.Time) []string {
	var ids []string

	for _, r := range g.Rooms() {
		if r.lastActive.Before(cutoff) {
			ids = append(ids, r.ID)
		}
	}

	return ids
}

// NewRoomID mints a crypto-random room id that does not collide with any
// live room.
func (g *Registry) NewRoomID() string {
	for {
		id := randomRoomID(roomIDLength)

		if _, exists := g.Get(id); !exists {
			return id
		}
	}
}

func randomRoomID(n int) string {
	const limit = byte(255 - (256 % len(roomIDLetters)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		for _, b := range buf {
			if b > limit {
				continue
			}

			out = append(out, roomIDLetters[int(b)%len(roomIDLetters)])
			if len(out) == n {
				return string(out)
			}
		}
	}
}
