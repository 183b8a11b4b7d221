package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidIndex        = errors.New("invalid card index")
	ErrNotPlayable         = errors.New("card not playable")
	ErrAwaitingSuitChoice  = errors.New("awaiting suit choice")
	ErrNoSuitChoicePending = errors.New("no suit choice pending")
	ErrInvalidSuit         = errors.New("invalid suit")
	ErrRoundOver           = errors.New("round is not in progress")
	ErrTurnLoop            = errors.New("turn advance exceeded iteration cap")
)

// Effect describes what a played card did to the shared state.
type Effect struct {
	Penalty uint8 // stack after a penalty-rank play, else 0
	Skip    bool
	Choice  bool // a suit choice is now owed by the player
}

// Outcome is the result of one applied action.
type Outcome struct {
	Seat       uint8
	Played     Card // EmptyCard unless the action was a play
	Effect     Effect
	Count      int    // cards requested by a draw
	Drawn      []Card // cards actually drawn, owner-only information
	Reshuffled bool
	ChosenSuit uint8 // set by ChooseSuit
	Finished   bool  // the play emptied the player's hand
	Position   int   // 1-based finish position when Finished
	RoundOver  bool
	Forced     bool // the round hit the turn ceiling
}

// checkTurn validates that seat may submit a play or draw.
func (g *GameState) checkTurn(seat uint8) error {
	switch g.Phase {
	case PhaseIdle, PhaseRoundOver:
		return ErrRoundOver
	case PhaseAwaitingSuitChoice:
		return ErrAwaitingSuitChoice
	}
	if seat != g.CurrentPlayer() {
		return ErrNotYourTurn
	}
	return nil
}

func (g *GameState) penaltyStep() uint8 {
	if g.Rules.PenaltyPerCard == 0 {
		return 2
	}
	return g.Rules.PenaltyPerCard
}

// Play plays the card at idx from seat's hand. Nothing is mutated unless
// the play is legal.
func (g *GameState) Play(seat uint8, idx int) (Outcome, error) {
	if err := g.checkTurn(seat); err != nil {
		return Outcome{}, err
	}
	p := &g.Players[seat]
	if idx < 0 || idx >= int(p.HandLen) {
		return Outcome{}, fmt.Errorf("%w: %d (hand size %d)", ErrInvalidIndex, idx, p.HandLen)
	}
	card := p.Hand[idx]
	if !g.IsPlayable(card) {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotPlayable, card)
	}

	copy(p.Hand[idx:p.HandLen-1], p.Hand[idx+1:p.HandLen])
	p.HandLen--
	p.Hand[p.HandLen] = 0
	g.Discard[g.DiscardLen] = card
	g.DiscardLen++
	g.ActiveSuit = card.Suit()

	out := Outcome{Seat: seat, Played: card}
	switch card.Rank() {
	case PenaltyRank:
		g.Penalty += g.penaltyStep()
		out.Effect.Penalty = g.Penalty
	case SkipRank:
		g.SkipNext = true
		out.Effect.Skip = true
	}

	if p.HandLen == 0 {
		// A finishing seven opens no suit choice; the card's suit stands.
		g.finish(seat, &out)
		if g.IsTerminal() {
			return out, nil
		}
		return out, g.endTurn(&out)
	}

	if card.Rank() == ChoiceRank {
		out.Effect.Choice = true
		g.PendingSuit = seat
		g.Phase = PhaseAwaitingSuitChoice
		return out, nil
	}
	return out, g.endTurn(&out)
}

// Draw draws for seat: the whole penalty stack if one is pending (and
// clears it), otherwise a single card.
func (g *GameState) Draw(seat uint8) (Outcome, error) {
	if err := g.checkTurn(seat); err != nil {
		return Outcome{}, err
	}
	count := 1
	if g.Penalty > 0 {
		count = int(g.Penalty)
		g.Penalty = 0
	}
	drawn, reshuffled := g.ApplyDraw(seat, count)
	out := Outcome{Seat: seat, Played: EmptyCard, Count: count, Drawn: drawn, Reshuffled: reshuffled}
	return out, g.endTurn(&out)
}

// ChooseSuit resolves a pending suit choice and advances the turn.
func (g *GameState) ChooseSuit(seat, suit uint8) (Outcome, error) {
	switch g.Phase {
	case PhaseIdle, PhaseRoundOver:
		return Outcome{}, ErrRoundOver
	case PhaseAwaitingAction:
		return Outcome{}, ErrNoSuitChoicePending
	}
	if seat != g.PendingSuit {
		return Outcome{}, ErrNotYourTurn
	}
	if suit >= NumSuits {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidSuit, suit)
	}
	g.ActiveSuit = suit
	g.PendingSuit = NoPlayer
	g.Phase = PhaseAwaitingAction
	out := Outcome{Seat: seat, Played: EmptyCard, ChosenSuit: suit}
	return out, g.endTurn(&out)
}

// ApplyDraw moves up to count cards from the deck into seat's hand,
// recycling the discard pile when the deck runs out. It returns the cards
// drawn, which may be fewer than count when no card is left to recycle.
func (g *GameState) ApplyDraw(seat uint8, count int) (drawn []Card, reshuffled bool) {
	p := &g.Players[seat]
	drawn = make([]Card, 0, count)
	for len(drawn) < count {
		if g.DeckLen == 0 {
			if !g.recycleDiscard() {
				break
			}
			reshuffled = true
		}
		g.DeckLen--
		c := g.Deck[g.DeckLen]
		g.Deck[g.DeckLen] = 0
		p.Hand[p.HandLen] = c
		p.HandLen++
		drawn = append(drawn, c)
	}
	return drawn, reshuffled
}

// recycleDiscard moves every discard card except the top back into the
// deck and shuffles it. Returns false if there was nothing to move.
func (g *GameState) recycleDiscard() bool {
	if g.DiscardLen <= 1 {
		return false
	}
	top := g.Discard[g.DiscardLen-1]
	count := g.DiscardLen - 1
	for i := uint8(0); i < count; i++ {
		g.Deck[g.DeckLen+i] = g.Discard[i]
		g.Discard[i] = 0
	}
	g.DeckLen += count
	g.Discard[count] = 0
	g.Discard[0] = top
	g.DiscardLen = 1
	g.shuffleDeck()
	return true
}

// endTurn advances past the acting seat and applies the turn ceiling.
func (g *GameState) endTurn(out *Outcome) error {
	if err := g.advanceTurn(); err != nil {
		g.Phase = PhaseRoundOver
		return err
	}
	g.TotalTurns++
	if g.Rules.MaxTurns > 0 && g.TotalTurns > g.Rules.MaxTurns {
		g.forceRoundOver()
		out.RoundOver = true
		out.Forced = true
	}
	return nil
}

// advanceTurn moves TurnPos to the next active seat, or the one after it
// when a skip is pending. Each step scans at most MaxSkipIterations seats.
func (g *GameState) advanceTurn() error {
	steps := 1
	if g.SkipNext {
		steps = 2
		g.SkipNext = false
	}
	n := int(g.NumPlayers)
	if n == 0 {
		return ErrTurnLoop
	}
	limit := g.Rules.skipCap()
	pos := int(g.TurnPos)
	for s := 0; s < steps; s++ {
		found := false
		for scanned := 0; scanned < limit; scanned++ {
			pos = (pos + 1) % n
			if g.IsActive(g.TurnOrder[pos]) {
				found = true
				break
			}
		}
		if !found {
			return ErrTurnLoop
		}
	}
	g.TurnPos = uint8(pos)
	return nil
}

// finish removes seat from the active roster. When only one seat is left
// it is appended as the loser and the round ends.
func (g *GameState) finish(seat uint8, out *Outcome) {
	g.ActiveMask &^= 1 << seat
	g.FinishOrder[g.FinishLen] = seat
	g.FinishLen++
	out.Finished = true
	out.Position = int(g.FinishLen)

	if g.NumActive() == 1 {
		last := g.ActivePlayers()[0]
		g.ActiveMask = 0
		g.FinishOrder[g.FinishLen] = last
		g.FinishLen++
		g.Phase = PhaseRoundOver
		g.SkipNext = false
		out.RoundOver = true
	}
}

// forceRoundOver ends a runaway round: seats still holding cards follow
// the finished ones in turn order.
func (g *GameState) forceRoundOver() {
	for i := uint8(0); i < g.NumPlayers; i++ {
		if s := g.TurnOrder[i]; g.IsActive(s) {
			g.FinishOrder[g.FinishLen] = s
			g.FinishLen++
		}
	}
	g.ActiveMask = 0
	g.PendingSuit = NoPlayer
	g.Phase = PhaseRoundOver
	g.Forced = true
}
