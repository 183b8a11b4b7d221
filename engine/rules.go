package engine

// HouseRules holds configurable game rule settings.
type HouseRules struct {
	NumPlayers        uint8  // seats dealt in (2–4); 0 treated as MaxPlayers
	CardsPerPlayer    uint8  // initial hand size
	PenaltyPerCard    uint8  // added to the stack per penalty-rank play
	MaxTurns          uint16 // turn ceiling before a forced round end; 0 = unlimited
	MaxSkipIterations uint8  // cap on seats scanned per turn advance step
}

// DefaultHouseRules returns the standard Hazz2 rules for a full table.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		NumPlayers:        MaxPlayers,
		CardsPerPlayer:    4,
		PenaltyPerCard:    2,
		MaxTurns:          500,
		MaxSkipIterations: 10,
	}
}

// numPlayers returns the effective number of seats, treating 0 as MaxPlayers.
func (r *HouseRules) numPlayers() uint8 {
	if r.NumPlayers == 0 {
		return MaxPlayers
	}
	return r.NumPlayers
}

func (r *HouseRules) skipCap() int {
	if r.MaxSkipIterations == 0 {
		return 10
	}
	return int(r.MaxSkipIterations)
}
