package engine

import "testing"

// TestFullDeck verifies the 40-card set: 4 suits x 10 ranks, no duplicates.
func TestFullDeck(t *testing.T) {
	deck := FullDeck()
	seen := make(map[Card]bool)
	perSuit := make(map[uint8]int)
	for i, c := range deck {
		if !c.Valid() {
			t.Fatalf("deck[%d] = %#x is not a valid card", i, uint8(c))
		}
		if seen[c] {
			t.Errorf("duplicate card %s at index %d", c, i)
		}
		seen[c] = true
		perSuit[c.Suit()]++
	}
	if len(seen) != DeckSize {
		t.Errorf("got %d unique cards, want %d", len(seen), DeckSize)
	}
	for s := uint8(0); s < NumSuits; s++ {
		if perSuit[s] != NumRanks {
			t.Errorf("suit %d has %d cards, want %d", s, perSuit[s], NumRanks)
		}
	}
}

func TestRankIndex(t *testing.T) {
	for i, r := range Ranks {
		if got := RankIndex(r); got != i {
			t.Errorf("RankIndex(%d) = %d, want %d", r, got, i)
		}
	}
	for _, r := range []uint8{0, 8, 9, 13, 15} {
		if got := RankIndex(r); got != -1 {
			t.Errorf("RankIndex(%d) = %d, want -1", r, got)
		}
	}
}

func TestCardPacking(t *testing.T) {
	c := NewCard(SuitSwords, RankKnight)
	if c.Suit() != SuitSwords || c.Rank() != RankKnight {
		t.Fatalf("NewCard round trip: suit=%d rank=%d", c.Suit(), c.Rank())
	}
	if got := c.String(); got != "Knight of Swords" {
		t.Errorf("String() = %q, want %q", got, "Knight of Swords")
	}
	if EmptyCard.Valid() {
		t.Error("EmptyCard should not be valid")
	}
	if NewCard(SuitCoins, 8).Valid() {
		t.Error("rank 8 should not be valid")
	}
}

func TestIsSpecial(t *testing.T) {
	tests := []struct {
		rank uint8
		want bool
	}{
		{RankAce, true},
		{RankTwo, true},
		{RankSeven, true},
		{RankThree, false},
		{RankSix, false},
		{RankJack, false},
		{RankKing, false},
	}
	for _, tt := range tests {
		if got := NewCard(SuitCups, tt.rank).IsSpecial(); got != tt.want {
			t.Errorf("IsSpecial(rank %d) = %v, want %v", tt.rank, got, tt.want)
		}
	}
}
