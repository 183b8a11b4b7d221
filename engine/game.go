// Package engine implements the Hazz2 card game rules.
//
// The engine is a pure state machine over a flat value type: seats are
// small integers, there is no I/O and no locking. A coordinator owns one
// GameState per round and feeds it validated actions one at a time.
package engine

import "errors"

const (
	MaxPlayers = 4
	DeckSize   = 40
)

// PlayerState holds one seat's hand.
type PlayerState struct {
	Hand    [DeckSize]Card
	HandLen uint8
}

// GameState holds the complete, self-contained state of one Hazz2 round.
// It contains no pointers or slices, so == compares two states exactly
// and a plain assignment is a full snapshot.
type GameState struct {
	Players    [MaxPlayers]PlayerState
	Deck       [DeckSize]Card
	DeckLen    uint8
	Discard    [DeckSize]Card
	DiscardLen uint8

	NumPlayers  uint8
	TurnOrder   [MaxPlayers]uint8 // seats in play order, randomized at deal
	TurnPos     uint8             // index into TurnOrder of the current seat
	ActiveMask  uint8             // bit per seat still holding cards
	FinishOrder [MaxPlayers]uint8 // seats in finishing order; last entrant loses
	FinishLen   uint8

	ActiveSuit  uint8
	Penalty     uint8
	SkipNext    bool
	PendingSuit uint8 // seat owing a suit choice, or NoPlayer
	Phase       Phase
	Forced      bool // round ended by the turn ceiling
	TotalTurns  uint16

	RNG   uint64
	Rules HouseRules
}

var (
	// ErrPlayerCount is returned by Deal for tables outside 2..MaxPlayers.
	ErrPlayerCount = errors.New("unsupported player count")
	// ErrNoStarter is returned by Deal when every undealt card is special.
	ErrNoStarter = errors.New("no non-special starter left in the deck")
)

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

func (g *GameState) nextRand() uint64 {
	x := g.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n uint64) uint64 {
	return g.nextRand() % n
}

func (g *GameState) shuffleDeck() {
	for i := int(g.DeckLen) - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	}
}

// ---------------------------------------------------------------------------
// NewGame and Deal
// ---------------------------------------------------------------------------

// NewGame initializes a GameState with the full 40-card deck, unshuffled.
func NewGame(seed uint64, rules HouseRules) GameState {
	var g GameState
	g.RNG = seed
	if g.RNG == 0 {
		g.RNG = 1 // xorshift can't start at 0
	}
	g.Rules = rules
	g.Deck = FullDeck()
	g.DeckLen = DeckSize
	g.PendingSuit = NoPlayer
	for i := range g.FinishOrder {
		g.FinishOrder[i] = NoPlayer
	}
	return g
}

// Deal shuffles the deck, deals CardsPerPlayer cards to every seat,
// turns up a non-special starter card and randomizes the turn order.
func (g *GameState) Deal() error {
	n := g.Rules.numPlayers()
	if n < 2 || n > MaxPlayers {
		return ErrPlayerCount
	}
	if int(n)*int(g.Rules.CardsPerPlayer) >= DeckSize {
		return ErrPlayerCount
	}
	g.NumPlayers = n
	g.shuffleDeck()

	for c := uint8(0); c < g.Rules.CardsPerPlayer; c++ {
		for p := uint8(0); p < n; p++ {
			g.DeckLen--
			g.Players[p].Hand[c] = g.Deck[g.DeckLen]
			g.Players[p].HandLen++
		}
	}

	if !g.deckHasPlain() {
		return ErrNoStarter
	}
	// Redraw the starter while it carries an effect.
	g.DeckLen--
	starter := g.Deck[g.DeckLen]
	for starter.IsSpecial() {
		g.Deck[g.DeckLen] = starter
		g.DeckLen++
		g.shuffleDeck()
		g.DeckLen--
		starter = g.Deck[g.DeckLen]
	}
	g.Discard[0] = starter
	g.DiscardLen = 1
	g.ActiveSuit = starter.Suit()

	for p := uint8(0); p < n; p++ {
		g.TurnOrder[p] = p
		g.ActiveMask |= 1 << p
	}
	for i := int(n) - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		g.TurnOrder[i], g.TurnOrder[j] = g.TurnOrder[j], g.TurnOrder[i]
	}
	g.TurnPos = 0
	g.Phase = PhaseAwaitingAction
	return nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// IsTerminal returns true when the round is over.
func (g *GameState) IsTerminal() bool { return g.Phase == PhaseRoundOver }

// CurrentPlayer returns the seat whose turn it is.
func (g *GameState) CurrentPlayer() uint8 { return g.TurnOrder[g.TurnPos] }

// ActingPlayer returns the seat that must act next: the suit chooser while
// a choice is pending, otherwise the current player. NoPlayer once the
// round is over.
func (g *GameState) ActingPlayer() uint8 {
	switch g.Phase {
	case PhaseAwaitingSuitChoice:
		return g.PendingSuit
	case PhaseAwaitingAction:
		return g.CurrentPlayer()
	}
	return NoPlayer
}

// DiscardTop returns the top card of the discard pile, or EmptyCard if empty.
func (g *GameState) DiscardTop() Card {
	if g.DiscardLen == 0 {
		return EmptyCard
	}
	return g.Discard[g.DiscardLen-1]
}

// Hand returns a copy of seat's hand in index order.
func (g *GameState) Hand(seat uint8) []Card {
	if seat >= MaxPlayers {
		return nil
	}
	p := &g.Players[seat]
	out := make([]Card, p.HandLen)
	copy(out, p.Hand[:p.HandLen])
	return out
}

// HandLen returns the number of cards seat holds.
func (g *GameState) HandLen(seat uint8) int {
	if seat >= MaxPlayers {
		return 0
	}
	return int(g.Players[seat].HandLen)
}

// IsActive reports whether seat is still playing this round.
func (g *GameState) IsActive(seat uint8) bool {
	return seat < MaxPlayers && g.ActiveMask&(1<<seat) != 0
}

// ActivePlayers returns the active seats in turn order.
func (g *GameState) ActivePlayers() []uint8 {
	out := make([]uint8, 0, g.NumPlayers)
	for i := uint8(0); i < g.NumPlayers; i++ {
		if s := g.TurnOrder[i]; g.IsActive(s) {
			out = append(out, s)
		}
	}
	return out
}

// NumActive returns the number of seats still holding cards.
func (g *GameState) NumActive() int {
	n := 0
	for m := g.ActiveMask; m != 0; m &= m - 1 {
		n++
	}
	return n
}

// Order returns the round's turn order.
func (g *GameState) Order() []uint8 {
	out := make([]uint8, g.NumPlayers)
	copy(out, g.TurnOrder[:g.NumPlayers])
	return out
}

// Finished returns the finish order so far.
func (g *GameState) Finished() []uint8 {
	out := make([]uint8, g.FinishLen)
	copy(out, g.FinishOrder[:g.FinishLen])
	return out
}

// Loser returns the last seat in the finish order once the round is over.
func (g *GameState) Loser() uint8 {
	if !g.IsTerminal() || g.FinishLen == 0 {
		return NoPlayer
	}
	return g.FinishOrder[g.FinishLen-1]
}

// NextOpponent returns the first active seat after seat in turn order,
// or NoPlayer if seat has no active opponent.
func (g *GameState) NextOpponent(seat uint8) uint8 {
	pos := -1
	for i := uint8(0); i < g.NumPlayers; i++ {
		if g.TurnOrder[i] == seat {
			pos = int(i)
			break
		}
	}
	if pos < 0 {
		return NoPlayer
	}
	for k := 1; k < int(g.NumPlayers); k++ {
		s := g.TurnOrder[(pos+k)%int(g.NumPlayers)]
		if g.IsActive(s) {
			return s
		}
	}
	return NoPlayer
}

// ---------------------------------------------------------------------------
// Conservation
// ---------------------------------------------------------------------------

// CardCount returns |Deck| + Σ|Hands| + |Discard|.
func (g *GameState) CardCount() int {
	n := int(g.DeckLen) + int(g.DiscardLen)
	for i := range g.Players {
		n += int(g.Players[i].HandLen)
	}
	return n
}

// Conserved reports whether deck, hands and discard pile together hold
// every card of the set exactly once.
func (g *GameState) Conserved() bool {
	if g.CardCount() != DeckSize {
		return false
	}
	var seen [256]bool
	mark := func(cards []Card) bool {
		for _, c := range cards {
			if !c.Valid() || seen[c] {
				return false
			}
			seen[c] = true
		}
		return true
	}
	if !mark(g.Deck[:g.DeckLen]) || !mark(g.Discard[:g.DiscardLen]) {
		return false
	}
	for i := range g.Players {
		if !mark(g.Players[i].Hand[:g.Players[i].HandLen]) {
			return false
		}
	}
	return true
}

func (g *GameState) deckHasPlain() bool {
	for _, c := range g.Deck[:g.DeckLen] {
		if !c.IsSpecial() {
			return true
		}
	}
	return false
}
