package engine

import "testing"

// newDealtGame creates a standard four-seat round that has been dealt.
func newDealtGame(t *testing.T) *GameState {
	t.Helper()
	g := NewGame(42, DefaultHouseRules())
	if err := g.Deal(); err != nil {
		t.Fatalf("Deal: %v", err)
	}
	return &g
}

// newTable builds a round with fixed hands and a fixed discard top. The
// remaining cards form the deck and the turn order is seat order.
func newTable(t *testing.T, top Card, hands ...[]Card) *GameState {
	t.Helper()
	rules := DefaultHouseRules()
	rules.NumPlayers = uint8(len(hands))
	g := NewGame(7, rules)
	g.NumPlayers = rules.NumPlayers

	used := map[Card]bool{top: true}
	for s, h := range hands {
		for _, c := range h {
			if used[c] {
				t.Fatalf("newTable: card %s used twice", c)
			}
			used[c] = true
			p := &g.Players[s]
			p.Hand[p.HandLen] = c
			p.HandLen++
		}
		g.TurnOrder[s] = uint8(s)
		g.ActiveMask |= 1 << s
	}

	g.Deck = [DeckSize]Card{}
	g.DeckLen = 0
	for _, c := range FullDeck() {
		if !used[c] {
			g.Deck[g.DeckLen] = c
			g.DeckLen++
		}
	}
	g.Discard[0] = top
	g.DiscardLen = 1
	g.ActiveSuit = top.Suit()
	g.Phase = PhaseAwaitingAction
	if !g.Conserved() {
		t.Fatal("newTable: state does not conserve the card set")
	}
	return &g
}

func TestNewGameDeck(t *testing.T) {
	g := NewGame(42, DefaultHouseRules())
	if g.DeckLen != DeckSize {
		t.Fatalf("DeckLen = %d, want %d", g.DeckLen, DeckSize)
	}
	if !g.Conserved() {
		t.Error("fresh game should hold the full set in the deck")
	}
	if g.Phase != PhaseIdle {
		t.Errorf("Phase = %s, want idle", g.Phase)
	}
}

// TestDeal checks the deal guarantees across many seeds.
func TestDeal(t *testing.T) {
	for seed := uint64(1); seed <= 200; seed++ {
		for _, n := range []uint8{2, 3, 4} {
			rules := DefaultHouseRules()
			rules.NumPlayers = n
			g := NewGame(seed, rules)
			if err := g.Deal(); err != nil {
				t.Fatalf("seed %d n %d: Deal: %v", seed, n, err)
			}
			for p := uint8(0); p < n; p++ {
				if g.Players[p].HandLen != 4 {
					t.Fatalf("seed %d: seat %d has %d cards, want 4", seed, p, g.Players[p].HandLen)
				}
			}
			top := g.DiscardTop()
			if top.IsSpecial() {
				t.Fatalf("seed %d: starter %s is special", seed, top)
			}
			if g.ActiveSuit != top.Suit() {
				t.Fatalf("seed %d: ActiveSuit = %d, want starter suit %d", seed, g.ActiveSuit, top.Suit())
			}
			if !g.Conserved() {
				t.Fatalf("seed %d: deal lost or duplicated cards", seed)
			}
			seen := map[uint8]bool{}
			for _, s := range g.Order() {
				seen[s] = true
			}
			if len(seen) != int(n) || g.NumActive() != int(n) {
				t.Fatalf("seed %d: turn order %v is not a permutation of %d seats", seed, g.Order(), n)
			}
			if g.Phase != PhaseAwaitingAction || g.ActingPlayer() != g.TurnOrder[0] {
				t.Fatalf("seed %d: round should start awaiting the first seat in turn order", seed)
			}
		}
	}
}

func TestDealRejectsPlayerCount(t *testing.T) {
	rules := DefaultHouseRules()
	rules.NumPlayers = 1
	g := NewGame(1, rules)
	if err := g.Deal(); err != ErrPlayerCount {
		t.Errorf("Deal with 1 seat: err = %v, want ErrPlayerCount", err)
	}
}

// TestDealWithoutPlainStarter deals 19 cards each to two seats, leaving two
// cards that are sometimes both special.
func TestDealWithoutPlainStarter(t *testing.T) {
	hit := 0
	for seed := uint64(1); seed <= 2000; seed++ {
		rules := DefaultHouseRules()
		rules.NumPlayers = 2
		rules.CardsPerPlayer = 19
		g := NewGame(seed, rules)
		err := g.Deal()
		switch err {
		case nil:
			if g.DiscardTop().IsSpecial() {
				t.Fatalf("seed %d: starter %s is special", seed, g.DiscardTop())
			}
		case ErrNoStarter:
			hit++
			for _, c := range g.Deck[:g.DeckLen] {
				if !c.IsSpecial() {
					t.Fatalf("seed %d: ErrNoStarter with plain %s in the deck", seed, c)
				}
			}
		default:
			t.Fatalf("seed %d: Deal: %v", seed, err)
		}
	}
	if hit == 0 {
		t.Error("no seed left only special cards undealt")
	}
}

func TestNextOpponent(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCups, RankJack)},
		[]Card{NewCard(SuitCups, RankKing)},
	)
	if got := g.NextOpponent(0); got != 1 {
		t.Errorf("NextOpponent(0) = %d, want 1", got)
	}
	g.ActiveMask &^= 1 << 1
	if got := g.NextOpponent(0); got != 2 {
		t.Errorf("NextOpponent(0) with seat 1 out = %d, want 2", got)
	}
	if got := g.NextOpponent(2); got != 0 {
		t.Errorf("NextOpponent(2) = %d, want 0", got)
	}
}
