/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"strings"
	"unicode/utf8"
)

const (
	maxRoomIDLength = 18
	maxNameLength   = 18
	maxPinLength    = 12

	MinTurnSeconds     = 5
	MaxTurnSeconds     = 120
	DefaultTurnSeconds = 20
)

// SanitizeRoomID folds s to the canonical room id: uppercase A-Z, 0-9, '-'
// and '_', at most 18 characters. Every inbound room reference goes through
// here before touching the registry.
func SanitizeRoomID(s string) string {
	var b strings.Builder

	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if b.Len() == maxRoomIDLength {
			break
		}

		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	return b.String()
}

// SafeName trims and caps a display name, defaulting to "Player".
func SafeName(s string) string {
	s = clip(s, maxNameLength)
	if s == "" {
		return "Player"
	}

	return s
}

// SafePin trims and caps a room PIN. Empty means the room is open.
func SafePin(s string) string {
	return clip(s, maxPinLength)
}

// ClampSeconds bounds a requested turn length to [5,120].
func ClampSeconds(s int) int {
	return min(max(s, MinTurnSeconds), MaxTurnSeconds)
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	runes := []rune(s)

	return strings.TrimSpace(string(runes[:n]))
}
