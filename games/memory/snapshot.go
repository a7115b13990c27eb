/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import "time"

// Snapshot assembles the room:update payload. It copies everything, so the
// result stays valid after the room mutates.
func Snapshot(r *Room) RoomUpdate {
	players := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		cp := *p
		cp.Stack = append([]StackEntry{}, p.Stack...)
		players = append(players, cp)
	}

	return RoomUpdate{
		RoomID:      r.ID,
		HostID:      r.HostID,
		Players:     players,
		Cards:       append([]Card{}, r.Cards...),
		TurnIndex:   r.TurnIndex,
		Flipped:     append([]string{}, r.Flipped...),
		Started:     r.Started,
		Paused:      r.Paused,
		Phase:       r.Phase(),
		TurnSeconds: r.TurnSeconds,
		TurnEndsAt:  epochMillis(r.TurnEndsAt),
	}
}

// Timer assembles the advisory timer:update payload.
func Timer(r *Room) TimerUpdate {
	return TimerUpdate{
		TurnEndsAt:  epochMillis(r.TurnEndsAt),
		TurnSeconds: r.TurnSeconds,
	}
}

func epochMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}

	ms := t.UnixMilli()

	return &ms
}
