package engine

// Suit constants, packed into the upper 4 bits of Card.
const (
	SuitCoins  uint8 = 0
	SuitCups   uint8 = 1
	SuitSwords uint8 = 2
	SuitClubs  uint8 = 3
)

// Rank constants, packed into the lower 4 bits of Card.
// The 40-card deck has no eights or nines.
const (
	RankAce    uint8 = 1
	RankTwo    uint8 = 2
	RankThree  uint8 = 3
	RankFour   uint8 = 4
	RankFive   uint8 = 5
	RankSix    uint8 = 6
	RankSeven  uint8 = 7
	RankJack   uint8 = 10
	RankKnight uint8 = 11
	RankKing   uint8 = 12
)

// Special ranks and their effects.
const (
	PenaltyRank = RankTwo   // +2 to the penalty stack
	SkipRank    = RankAce   // next player loses their turn
	ChoiceRank  = RankSeven // player names the active suit
)

const (
	NumSuits = 4
	NumRanks = 10
)

// Ranks lists the valid ranks in feature order.
var Ranks = [NumRanks]uint8{
	RankAce, RankTwo, RankThree, RankFour, RankFive,
	RankSix, RankSeven, RankJack, RankKnight, RankKing,
}

var suitNames = [NumSuits]string{"Coins", "Cups", "Swords", "Clubs"}

var rankNames = map[uint8]string{
	RankAce: "Ace", RankTwo: "Two", RankThree: "Three", RankFour: "Four",
	RankFive: "Five", RankSix: "Six", RankSeven: "Seven",
	RankJack: "Jack", RankKnight: "Knight", RankKing: "King",
}

// RankIndex returns the position of rank in Ranks, or -1.
func RankIndex(rank uint8) int {
	switch {
	case rank >= RankAce && rank <= RankSeven:
		return int(rank) - 1
	case rank >= RankJack && rank <= RankKing:
		return int(rank) - 3
	}
	return -1
}

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// Valid reports whether c is one of the 40 cards of the set.
func (c Card) Valid() bool {
	return c != EmptyCard && c.Suit() < NumSuits && RankIndex(c.Rank()) >= 0
}

// IsSpecial reports whether the card's rank carries an effect.
func (c Card) IsSpecial() bool {
	r := c.Rank()
	return r == PenaltyRank || r == SkipRank || r == ChoiceRank
}

// String renders the card as "<rank> of <suit>", e.g. "Seven of Cups".
func (c Card) String() string {
	if !c.Valid() {
		return "Empty"
	}
	return RankName(c.Rank()) + " of " + SuitName(c.Suit())
}

// SuitName returns the display name of suit, or "" if out of range.
func SuitName(suit uint8) string {
	if suit >= NumSuits {
		return ""
	}
	return suitNames[suit]
}

// RankName returns the display name of rank, or "" if not a valid rank.
func RankName(rank uint8) string { return rankNames[rank] }

// FullDeck returns the 40 distinct cards in suit-major order.
func FullDeck() [DeckSize]Card {
	var deck [DeckSize]Card
	i := 0
	for suit := uint8(0); suit < NumSuits; suit++ {
		for _, rank := range Ranks {
			deck[i] = NewCard(suit, rank)
			i++
		}
	}
	return deck
}

// Phase is the round's position in the turn state machine.
type Phase uint8

const (
	PhaseIdle               Phase = iota // not dealt yet
	PhaseAwaitingAction                  // current player must play or draw
	PhaseAwaitingSuitChoice              // chooser owes a suit after a seven
	PhaseRoundOver                       // terminal for the round
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingAction:
		return "awaiting_action"
	case PhaseAwaitingSuitChoice:
		return "awaiting_suit_choice"
	case PhaseRoundOver:
		return "round_over"
	}
	return "unknown"
}

// NoPlayer marks an unset seat reference.
const NoPlayer uint8 = 0xFF
