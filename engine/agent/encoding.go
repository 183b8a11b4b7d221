// Package agent encodes a seat's view of a round into the fixed-length
// feature vector consumed by policy-driven participants.
package agent

import (
	"strconv"
	"strings"

	engine "github.com/hazz2-game/hazz2/engine"
)

const (
	ObsDim     = 62
	NumActions = 25 // action indices 0..24; index len(hand) means draw

	MaxOppHand = 25
	MaxPenalty = 10
)

// Section offsets within an Observation.
const (
	OffHandRanks = 0
	OffTopRank   = 10
	OffTopSuit   = 20
	OffMask      = 24
	OffOppHand   = 49
	OffMyTurn    = 50
	OffPenalty   = 51
)

// Observation is the 62-slot feature vector. Slots 52..61 are reserved.
type Observation [ObsDim]int16

// Encode writes the observation of seat into out.
// out is zeroed internally before writing.
func Encode(g *engine.GameState, seat uint8, out *Observation) {
	*out = Observation{}

	// Hand rank histogram: 10 slots
	for _, c := range g.Hand(seat) {
		if i := engine.RankIndex(c.Rank()); i >= 0 {
			out[OffHandRanks+i]++
		}
	}
	// offset = 10

	// Top card rank one-hot: 10 slots, then suit one-hot: 4 slots
	if top := g.DiscardTop(); top.Valid() {
		out[OffTopRank+engine.RankIndex(top.Rank())] = 1
		out[OffTopSuit+int(top.Suit())] = 1
	}
	// offset = 24

	// Legal move mask: 25 slots, playable indices plus the draw index
	for _, a := range ValidActions(g, seat) {
		if a < NumActions {
			out[OffMask+a] = 1
		}
	}
	// offset = 49

	// Next opponent hand size, clamped
	if opp := g.NextOpponent(seat); opp != engine.NoPlayer {
		out[OffOppHand] = int16(min(g.HandLen(opp), MaxOppHand))
	}

	// The observation is only built for the seat being asked to act.
	out[OffMyTurn] = 1

	out[OffPenalty] = int16(min(int(g.Penalty), MaxPenalty))
	// offset = 52
}

// ValidActions returns the playable hand indices followed by the draw
// action, whose index equals the hand size.
func ValidActions(g *engine.GameState, seat uint8) []int {
	return append(g.ValidIndices(seat), g.DrawAction(seat))
}

// Key renders the observation as comma-separated integers, the lookup
// key of a Q-table.
func (o *Observation) Key() string {
	var b strings.Builder
	for i, v := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}

// Slice returns the observation as a plain int slice for JSON payloads.
func (o *Observation) Slice() []int {
	out := make([]int, ObsDim)
	for i, v := range o {
		out[i] = int(v)
	}
	return out
}

// FromSlice rebuilds an Observation from a decoded payload. Missing
// trailing slots stay zero, extra ones are ignored.
func FromSlice(s []int) Observation {
	var o Observation
	for i := 0; i < len(s) && i < ObsDim; i++ {
		o[i] = int16(s[i])
	}
	return o
}
