/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// MinPairs is the smallest deck a round can be started with.
	MinPairs = 2

	maxTermLength = 80
)

// Pair is one matchable unit: two related terms.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Card is one face of a pair on the board.
type Card struct {
	ID        string `json:"id"`
	PairID    string `json:"pairId"`
	Text      string `json:"text"`
	IsFaceUp  bool   `json:"isFaceUp"`
	IsMatched bool   `json:"isMatched"`
}

// CleanPairs trims every term and drops entries with a missing side or
// that repeat an earlier pair. At most limit pairs are kept when limit > 0.
func CleanPairs(pairs []Pair, limit int) []Pair {
	out := make([]Pair, 0, len(pairs))
	seen := make(map[Pair]bool, len(pairs))

	for _, p := range pairs {
		c := Pair{A: clip(p.A, maxTermLength), B: clip(p.B, maxTermLength)}
		if c.A == "" || c.B == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}

// ParsePairs reads one "a,b" pair per line. Blank and incomplete lines are skipped.
func ParsePairs(text string) []Pair {
	var pairs []Pair

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		a, b, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}

		// Anything past a second comma belongs to neither term.
		b, _, _ = strings.Cut(b, ",")

		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if a == "" || b == "" {
			continue
		}

		pairs = append(pairs, Pair{A: a, B: b})
	}

	return pairs
}

// BuildDeck turns pairs into 2*len(pairs) face-down cards in a uniformly
// random order. Each call allocates a fresh id namespace, so two builds from
// the same pairs never share card or pair ids.
func BuildDeck(pairs []Pair, rng *rand.Rand) []Card {
	ns := uuid.NewString()
	cards := make([]Card, 0, len(pairs)*2)

	for i, p := range pairs {
		pairID := "pair_" + ns + "_" + strconv.Itoa(i)
		cards = append(cards,
			Card{ID: "c_" + pairID + "_a", PairID: pairID, Text: p.A},
			Card{ID: "c_" + pairID + "_b", PairID: pairID, Text: p.B},
		)
	}

	shuffle(cards, rng)

	return cards
}

// shuffle is an in-place Fisher-Yates.
func shuffle(cards []Card, rng *rand.Rand) {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	for i := len(cards) - 1; i > 0; i-- {
		j := intN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
