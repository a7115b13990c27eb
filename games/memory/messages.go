/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Inbound event types.
const (
	TypeJoin     = "room:join"
	TypeCreate   = "room:create"
	TypeSetPin   = "teacher:setPin"
	TypeSetTimer = "teacher:setTimer"
	TypeStart    = "game:start"
	TypeNewRound = "game:newRound"
	TypePause    = "game:pause"
	TypeResume   = "game:resume"
	TypeReset    = "game:reset"
	TypeFlip     = "game:flip"
)

// Outbound event types.
const (
	TypeRoomUpdate   = "room:update"
	TypeTimerUpdate  = "timer:update"
	TypeMatchAnimate = "match:animate"
	TypeRoomError    = "room:error"
	TypeRoomCreated  = "room:created"
)

// Message is the envelope of every frame in both directions.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Term is a string field that also accepts numbers, booleans and null, so a
// sloppy client value is normalized instead of failing the whole frame.
// Falsy scalars (null, false, 0) decode to the empty string.
type Term string

func (t *Term) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Term(s)
	case b[0] == '{', b[0] == '[':
		*t = ""
	default:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil && f == 0 {
			*t = ""
			return nil
		}
		*t = Term(b)
	}

	return nil
}

// Seconds is a turn length read the way a loose numeric coercion would:
// null, false, "" and [] count as 0, true as 1, numeric strings as their
// value. Anything else (missing, objects, words) decodes to Valid=false.
type Seconds struct {
	Value int
	Valid bool
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	f, ok := looseNumber(b)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		*s = Seconds{}
		return nil
	}

	f = math.Floor(f)
	if f > math.MaxInt32 {
		f = math.MaxInt32
	} else if f < math.MinInt32 {
		f = math.MinInt32
	}

	*s = Seconds{Value: int(f), Valid: true}

	return nil
}

func looseNumber(b []byte) (float64, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0, false
	}

	switch {
	case bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		return 0, true
	case bytes.Equal(b, []byte("true")):
		return 1, true
	case b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return 0, false
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(str, 64)
		return f, err == nil
	case b[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return 0, false
		}
		switch len(items) {
		case 0:
			return 0, true
		case 1:
			// A lone element is read as text, so booleans are not numbers here.
			item := bytes.TrimSpace(items[0])
			if bytes.Equal(item, []byte("true")) || bytes.Equal(item, []byte("false")) {
				return 0, false
			}
			return looseNumber(item)
		}
		return 0, false
	case b[0] == '{':
		return 0, false
	}

	f, err := strconv.ParseFloat(string(b), 64)
	return f, err == nil
}

// Pairs is a pair list that drops entries it cannot decode.
type Pairs []Pair

func (p *Pairs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*p = nil
		return nil
	}

	out := make(Pairs, 0, len(raw))
	for _, r := range raw {
		var entry struct {
			A Term `json:"a"`
			B Term `json:"b"`
		}
		if err := json.Unmarshal(r, &entry); err != nil {
			continue
		}
		out = append(out, Pair{A: string(entry.A), B: string(entry.B)})
	}
	*p = out

	return nil
}

type JoinRequest struct {
	RoomID Term `json:"roomId"`
	Name   Term `json:"name"`
	Pin    Term `json:"pin"`
}

type SetPinRequest struct {
	RoomID Term `json:"roomId"`
	Pin    Term `json:"pin"`
}

type SetTimerRequest struct {
	RoomID  Term    `json:"roomId"`
	Seconds Seconds `json:"seconds"`
}

type StartRequest struct {
	RoomID Term  `json:"roomId"`
	Pairs  Pairs `json:"pairs"`
	Text   Term  `json:"text"`
}

type RoomRequest struct {
	RoomID Term `json:"roomId"`
}

type FlipRequest struct {
	RoomID Term `json:"roomId"`
	CardID Term `json:"cardId"`
}

// RoomUpdate is the full, authoritative room snapshot. Clients replace
// their state with every delivery.
type RoomUpdate struct {
	RoomID      string   `json:"roomId"`
	HostID      string   `json:"hostId"`
	Players     []Player `json:"players"`
	Cards       []Card   `json:"cards"`
	TurnIndex   int      `json:"turnIndex"`
	Flipped     []string `json:"flipped"`
	Started     bool     `json:"started"`
	Paused      bool     `json:"paused"`
	Phase       Phase    `json:"phase"`
	TurnSeconds int      `json:"turnSeconds"`
	TurnEndsAt  *int64   `json:"turnEndsAt"`
}

type TimerUpdate struct {
	TurnEndsAt  *int64 `json:"turnEndsAt"`
	TurnSeconds int    `json:"turnSeconds"`
}

type MatchAnimate struct {
	CardIDs  [2]string `json:"cardIds"`
	PlayerID string    `json:"playerId"`
	A        string    `json:"a"`
	B        string    `json:"b"`
}

type RoomError struct {
	Message string `json:"message"`
}

type RoomCreated struct {
	RoomID string `json:"roomId"`
}
