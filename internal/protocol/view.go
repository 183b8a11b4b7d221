package protocol

import engine "github.com/hazz2-game/hazz2/engine"

// CardView is the wire form of a card.
type CardView struct {
	Suit     int    `json:"suit"`
	Rank     int    `json:"rank"`
	Repr     string `json:"repr"`
	SuitName string `json:"suit_name"`
	RankName string `json:"rank_name"`
}

// CardOf converts an engine card.
func CardOf(c engine.Card) CardView {
	return CardView{
		Suit:     int(c.Suit()),
		Rank:     int(c.Rank()),
		Repr:     c.String(),
		SuitName: engine.SuitName(c.Suit()),
		RankName: engine.RankName(c.Rank()),
	}
}

// CardsOf converts a slice of engine cards.
func CardsOf(cs []engine.Card) []CardView {
	out := make([]CardView, len(cs))
	for i, c := range cs {
		out[i] = CardOf(c)
	}
	return out
}

// View is the state seen by one participant. Hand is only ever the
// recipient's own hand; opponents appear as counts.
type View struct {
	Player            Role         `json:"player"`
	Hand              []CardView   `json:"hand"`
	HandSize          int          `json:"hand_size"`
	TopCard           *CardView    `json:"top_card"`
	CurrentSuit       int          `json:"current_suit"`
	PenaltyStack      int          `json:"penalty_stack"`
	DeckSize          int          `json:"deck_size"`
	CurrentPlayer     Role         `json:"current_player"`
	TurnOrder         []Role       `json:"turn_order"`
	ActivePlayers     []Role       `json:"active_players"`
	Opponents         map[Role]int `json:"opponents"`
	ValidCardIndices  []int        `json:"valid_card_indices"`
	Round             int          `json:"round"`
	TotalTurns        int          `json:"total_turns"`
	FinishOrder       []Role       `json:"finish_order"`
	PendingSuitChoice Role         `json:"pending_suit_choice,omitempty"`
}

// WatchView is the ownership-free view sent to an observer.
type WatchView struct {
	Observer      Role         `json:"observer"`
	HandSizes     map[Role]int `json:"hand_sizes"`
	TopCard       *CardView    `json:"top_card"`
	CurrentSuit   int          `json:"current_suit"`
	PenaltyStack  int          `json:"penalty_stack"`
	DeckSize      int          `json:"deck_size"`
	CurrentPlayer Role         `json:"current_player"`
	TurnOrder     []Role       `json:"turn_order"`
	ActivePlayers []Role       `json:"active_players"`
	Round         int          `json:"round"`
	TotalTurns    int          `json:"total_turns"`
	FinishOrder   []Role       `json:"finish_order"`
	RoundsLeft    int          `json:"rounds_left"`
}

// Last action descriptors.
const (
	LastRoundStart = "round_start"
	LastPlay       = "play"
	LastDraw       = "draw"
	LastSuitChosen = "suit_chosen"
)

// Effect describes the special effect of a play.
type Effect struct {
	Penalty    int  `json:"penalty,omitempty"`
	Skip       bool `json:"skip,omitempty"`
	Seven      bool `json:"seven,omitempty"`
	ChosenSuit *int `json:"chosen_suit,omitempty"`
}

// LastAction describes the action that produced a broadcast.
type LastAction struct {
	Action     string     `json:"action"`
	Player     Role       `json:"player,omitempty"`
	Card       *CardView  `json:"card,omitempty"`
	Effect     *Effect    `json:"effect,omitempty"`
	Count      int        `json:"count,omitempty"`
	Drawn      []CardView `json:"drawn,omitempty"`
	Reshuffled bool       `json:"reshuffled,omitempty"`
	Suit       *int       `json:"suit,omitempty"`
	Finished   bool       `json:"finished,omitempty"`
	Position   int        `json:"position,omitempty"`
	TurnOrder  []Role     `json:"turn_order,omitempty"`
}

// RoundResult is broadcast when a round ends.
type RoundResult struct {
	Round         int    `json:"round"`
	FinishOrder   []Role `json:"finish_order"`
	Loser         Role   `json:"loser"`
	Turns         int    `json:"turns"`
	Forced        bool   `json:"forced"`
	StopRequested bool   `json:"stop_requested"`
}

// RoundRecord is one entry of the session log.
type RoundRecord struct {
	Round       int    `json:"round"`
	FinishOrder []Role `json:"finish_order"`
	Turns       int    `json:"turns"`
	Forced      bool   `json:"forced,omitempty"`
	Watched     bool   `json:"watched,omitempty"`
}

// Standing tallies one role's results over the session.
type Standing struct {
	Rounds int `json:"rounds"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// SessionReport is broadcast when the session stops.
type SessionReport struct {
	GameStopped bool              `json:"game_stopped"`
	TotalRounds int               `json:"total_rounds"`
	AllRounds   []RoundRecord     `json:"all_rounds"`
	Standings   map[Role]Standing `json:"standings"`
}
