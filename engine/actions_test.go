package engine

import (
	"errors"
	"slices"
	"testing"
)

// TestPenaltyStacking: a two stacks to 2, a second two to 4, and a draw
// takes all 4 and clears the stack.
func TestPenaltyStacking(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankTwo), NewCard(SuitCoins, RankSix)},
		[]Card{NewCard(SuitCups, RankTwo), NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitClubs, RankThree), NewCard(SuitClubs, RankSix)},
	)

	out, err := g.Play(0, 0)
	if err != nil {
		t.Fatalf("Play(0,0): %v", err)
	}
	if g.Penalty != 2 || out.Effect.Penalty != 2 {
		t.Fatalf("Penalty after first two = %d (effect %d), want 2", g.Penalty, out.Effect.Penalty)
	}
	if _, err := g.Play(1, 0); err != nil {
		t.Fatalf("Play(1,0): %v", err)
	}
	if g.Penalty != 4 {
		t.Fatalf("Penalty after second two = %d, want 4", g.Penalty)
	}

	before := g.HandLen(2)
	out, err = g.Draw(2)
	if err != nil {
		t.Fatalf("Draw(2): %v", err)
	}
	if len(out.Drawn) != 4 || out.Count != 4 {
		t.Errorf("drew %d cards (count %d), want 4", len(out.Drawn), out.Count)
	}
	if g.HandLen(2) != before+4 {
		t.Errorf("HandLen(2) = %d, want %d", g.HandLen(2), before+4)
	}
	if g.Penalty != 0 {
		t.Errorf("Penalty after draw = %d, want 0", g.Penalty)
	}
	if !g.Conserved() {
		t.Error("conservation violated")
	}
}

func TestDrawSingleWithoutPenalty(t *testing.T) {
	g := newDealtGame(t)
	cur := g.CurrentPlayer()
	deck := g.DeckLen
	out, err := g.Draw(cur)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(out.Drawn) != 1 || g.DeckLen != deck-1 {
		t.Errorf("drew %d, DeckLen %d -> %d", len(out.Drawn), deck, g.DeckLen)
	}
	if g.TotalTurns != 1 {
		t.Errorf("TotalTurns = %d, want 1", g.TotalTurns)
	}
	if g.CurrentPlayer() == cur {
		t.Error("turn did not advance after a draw")
	}
}

// TestSuitChoice: a seven suspends the turn until the same player names a
// suit; actions from anyone else leave the state untouched.
func TestSuitChoice(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankSeven), NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCups, RankThree), NewCard(SuitCups, RankFour)},
		[]Card{NewCard(SuitClubs, RankThree)},
	)

	out, err := g.Play(0, 0)
	if err != nil {
		t.Fatalf("Play seven: %v", err)
	}
	if !out.Effect.Choice || g.Phase != PhaseAwaitingSuitChoice || g.PendingSuit != 0 {
		t.Fatalf("after seven: choice=%v phase=%s pending=%d", out.Effect.Choice, g.Phase, g.PendingSuit)
	}
	if g.ActingPlayer() != 0 {
		t.Errorf("ActingPlayer = %d, want chooser 0", g.ActingPlayer())
	}

	snap := *g
	if _, err := g.Draw(1); !errors.Is(err, ErrAwaitingSuitChoice) {
		t.Errorf("Draw by other seat: err = %v, want ErrAwaitingSuitChoice", err)
	}
	if _, err := g.Play(1, 0); !errors.Is(err, ErrAwaitingSuitChoice) {
		t.Errorf("Play by other seat: err = %v, want ErrAwaitingSuitChoice", err)
	}
	if _, err := g.ChooseSuit(1, SuitCups); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("ChooseSuit by other seat: err = %v, want ErrNotYourTurn", err)
	}
	if _, err := g.ChooseSuit(0, 9); !errors.Is(err, ErrInvalidSuit) {
		t.Errorf("ChooseSuit(9): err = %v, want ErrInvalidSuit", err)
	}
	if *g != snap {
		t.Fatal("rejected messages mutated the state")
	}

	out, err = g.ChooseSuit(0, SuitCups)
	if err != nil {
		t.Fatalf("ChooseSuit: %v", err)
	}
	if g.ActiveSuit != SuitCups || out.ChosenSuit != SuitCups {
		t.Errorf("ActiveSuit = %d, want Cups", g.ActiveSuit)
	}
	if g.Phase != PhaseAwaitingAction || g.PendingSuit != NoPlayer {
		t.Errorf("phase=%s pending=%d after choice", g.Phase, g.PendingSuit)
	}
	if g.CurrentPlayer() != 1 {
		t.Errorf("CurrentPlayer = %d, want 1", g.CurrentPlayer())
	}
	if _, err := g.ChooseSuit(1, SuitCups); !errors.Is(err, ErrNoSuitChoicePending) {
		t.Errorf("second ChooseSuit: err = %v, want ErrNoSuitChoicePending", err)
	}
}

// TestSkipAdvancesTwo: an ace passes over the next seat.
func TestSkipAdvancesTwo(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankAce), NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCups, RankThree)},
		[]Card{NewCard(SuitClubs, RankThree)},
	)
	out, err := g.Play(0, 0)
	if err != nil {
		t.Fatalf("Play ace: %v", err)
	}
	if !out.Effect.Skip {
		t.Error("ace should report a skip effect")
	}
	if g.CurrentPlayer() != 2 {
		t.Errorf("CurrentPlayer = %d, want 2 (seat 1 skipped)", g.CurrentPlayer())
	}
	if g.SkipNext {
		t.Error("skip flag should be consumed by the advance")
	}
}

// TestTurnMonotonicity: plain plays visit active seats in turn order and
// eliminated seats are passed over.
func TestTurnMonotonicity(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankSix), NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCoins, RankThree), NewCard(SuitSwords, RankSix)},
		[]Card{NewCard(SuitCoins, RankFour), NewCard(SuitClubs, RankSix)},
	)
	for _, want := range []uint8{1, 2, 0} {
		if _, err := g.Draw(g.CurrentPlayer()); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if g.CurrentPlayer() != want {
			t.Fatalf("CurrentPlayer = %d, want %d", g.CurrentPlayer(), want)
		}
	}
	g.ActiveMask &^= 1 << 1
	if _, err := g.Draw(0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if g.CurrentPlayer() != 2 {
		t.Errorf("CurrentPlayer = %d, want 2 with seat 1 out", g.CurrentPlayer())
	}
}

// TestElimination: one finish with three active continues; the next
// finish leaves one seat, who is appended as loser.
func TestElimination(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankSix)},
		[]Card{NewCard(SuitCoins, RankThree)},
		[]Card{NewCard(SuitClubs, RankThree), NewCard(SuitClubs, RankFour)},
	)

	out, err := g.Play(0, 0)
	if err != nil {
		t.Fatalf("Play(0,0): %v", err)
	}
	if !out.Finished || out.Position != 1 || out.RoundOver {
		t.Fatalf("first finish: %+v", out)
	}
	if g.NumActive() != 2 || g.IsActive(0) {
		t.Fatalf("NumActive = %d, seat 0 active = %v", g.NumActive(), g.IsActive(0))
	}
	if int(g.FinishLen)+g.NumActive() != 3 {
		t.Error("finish order + active count should equal starting seats")
	}
	if g.CurrentPlayer() != 1 {
		t.Fatalf("CurrentPlayer = %d, want 1", g.CurrentPlayer())
	}

	out, err = g.Play(1, 0)
	if err != nil {
		t.Fatalf("Play(1,0): %v", err)
	}
	if !out.RoundOver || !g.IsTerminal() {
		t.Fatal("round should end when one seat remains")
	}
	if got, want := g.Finished(), []uint8{0, 1, 2}; !slices.Equal(got, want) {
		t.Errorf("FinishOrder = %v, want %v", got, want)
	}
	if g.Loser() != 2 {
		t.Errorf("Loser = %d, want 2", g.Loser())
	}
	if _, err := g.Draw(2); !errors.Is(err, ErrRoundOver) {
		t.Errorf("Draw after round over: err = %v, want ErrRoundOver", err)
	}
}

// TestFinishingSevenOpensNoChoice: emptying the hand with a seven ends
// the player's involvement; the turn moves on.
func TestFinishingSevenOpensNoChoice(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankSeven)},
		[]Card{NewCard(SuitCups, RankThree)},
		[]Card{NewCard(SuitClubs, RankThree)},
	)
	out, err := g.Play(0, 0)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if out.Effect.Choice || g.Phase != PhaseAwaitingAction {
		t.Errorf("choice=%v phase=%s, want no pending choice", out.Effect.Choice, g.Phase)
	}
	if g.ActiveSuit != SuitCoins {
		t.Errorf("ActiveSuit = %d, want the seven's suit", g.ActiveSuit)
	}
}

// TestRejectionLeavesStateUnchanged covers every rule violation.
func TestRejectionLeavesStateUnchanged(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCups, RankThree)},
	)
	snap := *g

	if _, err := g.Play(1, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out of turn: err = %v", err)
	}
	if _, err := g.Draw(1); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out of turn draw: err = %v", err)
	}
	if _, err := g.Play(0, 5); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("bad index: err = %v", err)
	}
	if _, err := g.Play(0, -1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("negative index: err = %v", err)
	}
	if _, err := g.Play(0, 0); !errors.Is(err, ErrNotPlayable) {
		t.Errorf("unplayable: err = %v", err)
	}
	if _, err := g.ChooseSuit(0, SuitCups); !errors.Is(err, ErrNoSuitChoicePending) {
		t.Errorf("choice without seven: err = %v", err)
	}
	if *g != snap {
		t.Error("rejected actions mutated the state")
	}
}

func TestTurnCeilingForcesRoundOver(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankSix)},
		[]Card{NewCard(SuitCups, RankThree)},
		[]Card{NewCard(SuitClubs, RankThree)},
	)
	g.Rules.MaxTurns = 2

	if _, err := g.Play(0, 0); err != nil { // seat 0 finishes, turn 1
		t.Fatalf("Play: %v", err)
	}
	if _, err := g.Draw(1); err != nil { // turn 2
		t.Fatalf("Draw: %v", err)
	}
	out, err := g.Draw(2) // turn 3 exceeds the ceiling
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !out.RoundOver || !out.Forced || !g.Forced || !g.IsTerminal() {
		t.Fatalf("expected forced round over, got %+v", out)
	}
	if got, want := g.Finished(), []uint8{0, 1, 2}; !slices.Equal(got, want) {
		t.Errorf("FinishOrder = %v, want %v", got, want)
	}
}

func TestTurnLoopIsFatalToRound(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCoins, RankSix), NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCups, RankThree)},
		[]Card{NewCard(SuitClubs, RankThree)},
	)
	g.Rules.MaxSkipIterations = 1
	g.ActiveMask &^= 1 << 1

	if _, err := g.Draw(0); !errors.Is(err, ErrTurnLoop) {
		t.Fatalf("err = %v, want ErrTurnLoop", err)
	}
	if !g.IsTerminal() {
		t.Error("a turn loop should end the round")
	}
}

// TestRecycleKeepsTop: an empty deck is refilled from the discard pile,
// leaving the top card as the pile's sole member.
func TestRecycleKeepsTop(t *testing.T) {
	g := newTable(t, NewCard(SuitCoins, RankFive),
		[]Card{NewCard(SuitCups, RankSix)},
		[]Card{NewCard(SuitCups, RankThree)},
	)
	top := g.DiscardTop()
	n := uint8(0)
	for i := uint8(0); i < g.DeckLen; i++ {
		g.Discard[n] = g.Deck[i]
		g.Deck[i] = 0
		n++
	}
	g.Discard[n] = top
	g.DiscardLen = n + 1
	g.DeckLen = 0
	if !g.Conserved() {
		t.Fatal("setup broke conservation")
	}

	out, err := g.Draw(0)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !out.Reshuffled || len(out.Drawn) != 1 {
		t.Errorf("Reshuffled=%v drawn=%d", out.Reshuffled, len(out.Drawn))
	}
	if g.DiscardLen != 1 || g.DiscardTop() != top {
		t.Errorf("discard = %d cards, top %s; want 1, %s", g.DiscardLen, g.DiscardTop(), top)
	}
	if !g.Conserved() {
		t.Error("conservation violated after recycle")
	}
}

// TestRandomPlayoutInvariants drives whole rounds with a naive policy and
// checks the state invariants after every action.
func TestRandomPlayoutInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 100; seed++ {
		rules := DefaultHouseRules()
		rules.NumPlayers = uint8(2 + seed%3)
		g := NewGame(seed, rules)
		if err := g.Deal(); err != nil {
			t.Fatalf("Deal: %v", err)
		}
		for step := 0; !g.IsTerminal(); step++ {
			if step > 5000 {
				t.Fatalf("seed %d: round did not terminate", seed)
			}
			seat := g.ActingPlayer()
			var err error
			if g.Phase == PhaseAwaitingSuitChoice {
				_, err = g.ChooseSuit(seat, g.MostFrequentSuit(seat))
			} else if valid := g.ValidIndices(seat); len(valid) > 0 {
				_, err = g.Play(seat, valid[int(g.nextRand()%uint64(len(valid)))])
			} else {
				_, err = g.Draw(seat)
			}
			if err != nil {
				t.Fatalf("seed %d step %d: %v", seed, step, err)
			}
			if !g.Conserved() {
				t.Fatalf("seed %d step %d: conservation violated", seed, step)
			}
			if int(g.FinishLen)+g.NumActive() != int(g.NumPlayers) {
				t.Fatalf("seed %d step %d: finish %d + active %d != %d", seed, step, g.FinishLen, g.NumActive(), g.NumPlayers)
			}
		}
		seen := map[uint8]bool{}
		for _, s := range g.Finished() {
			if seen[s] {
				t.Fatalf("seed %d: seat %d finished twice", seed, s)
			}
			seen[s] = true
		}
		if len(seen) != int(g.NumPlayers) {
			t.Fatalf("seed %d: finish order %v incomplete", seed, g.Finished())
		}
	}
}
