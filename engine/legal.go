package engine

// IsPlayable reports whether c may be played on the current discard top.
// While a penalty is stacked only the penalty rank is legal; otherwise the
// card must match the top card's rank or the active suit. No rank is
// exempt from this predicate.
func (g *GameState) IsPlayable(c Card) bool {
	if g.Penalty > 0 {
		return c.Rank() == PenaltyRank
	}
	top := g.DiscardTop()
	if top == EmptyCard {
		return true
	}
	return c.Rank() == top.Rank() || c.Suit() == g.ActiveSuit
}

// ValidIndices returns the hand positions of seat that are playable, in
// ascending order.
func (g *GameState) ValidIndices(seat uint8) []int {
	if seat >= MaxPlayers {
		return nil
	}
	p := &g.Players[seat]
	out := make([]int, 0, p.HandLen)
	for i := uint8(0); i < p.HandLen; i++ {
		if g.IsPlayable(p.Hand[i]) {
			out = append(out, int(i))
		}
	}
	return out
}

// DrawAction returns the action index that stands for drawing, which is
// one past the last hand position.
func (g *GameState) DrawAction(seat uint8) int { return g.HandLen(seat) }

// MostFrequentSuit returns the suit seat holds most of. Ties go to the
// suit that appears first in hand order. An empty hand keeps the active
// suit.
func (g *GameState) MostFrequentSuit(seat uint8) uint8 {
	if seat >= MaxPlayers || g.Players[seat].HandLen == 0 {
		return g.ActiveSuit
	}
	p := &g.Players[seat]
	var counts [NumSuits]int
	for i := uint8(0); i < p.HandLen; i++ {
		counts[p.Hand[i].Suit()]++
	}
	best := p.Hand[0].Suit()
	for i := uint8(1); i < p.HandLen; i++ {
		s := p.Hand[i].Suit()
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}
