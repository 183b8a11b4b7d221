// Package policy holds the decision makers behind non-interactive
// participants. A policy only ever sees what its role was sent; the
// coordinator validates whatever it picks.
package policy

import (
	"fmt"
	"math/rand/v2"

	"github.com/hazz2-game/hazz2/engine/agent"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// Situation is what a participant knows when asked to act.
type Situation struct {
	Observation  agent.Observation
	ValidActions []int // playable hand indices followed by the draw action
	Hand         []protocol.CardView
	ValidCards   []int
}

// FromRequest extracts the situation from an action request.
func FromRequest(req protocol.Request) Situation {
	s := Situation{
		Observation:  agent.FromSlice(req.Observation),
		ValidActions: req.ValidActions,
	}
	if req.State != nil {
		s.Hand = req.State.Hand
		s.ValidCards = req.State.ValidCardIndices
	}
	if s.ValidActions == nil {
		s.ValidActions = append(append([]int{}, s.ValidCards...), len(s.Hand))
	}
	return s
}

// DrawAction is the action index that stands for drawing.
func (s Situation) DrawAction() int { return len(s.Hand) }

// Decision is a policy's answer: play the card at CardIndex, or draw.
type Decision struct {
	Draw      bool
	CardIndex int
}

// DecisionFor maps an action index onto a decision. Indices past the
// hand mean draw.
func DecisionFor(action, handSize int) Decision {
	if action < 0 || action >= handSize {
		return Decision{Draw: true}
	}
	return Decision{CardIndex: action}
}

// Action converts the decision into a protocol message.
func (d Decision) Action() protocol.Action {
	if d.Draw {
		return protocol.Draw()
	}
	return protocol.Play(d.CardIndex)
}

func (d Decision) String() string {
	if d.Draw {
		return "draw"
	}
	return fmt.Sprintf("play %d", d.CardIndex)
}

// Policy chooses an action for one request.
type Policy interface {
	Name() string
	Choose(s Situation) (Decision, error)
}

// ---------------------------------------------------------------------------
// Random
// ---------------------------------------------------------------------------

// Random plays a uniformly chosen playable card and draws when it has none.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a random policy. A zero seed draws one from the runtime.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

func (*Random) Name() string { return "random" }

func (p *Random) Choose(s Situation) (Decision, error) {
	if len(s.ValidCards) == 0 {
		return Decision{Draw: true}, nil
	}
	return Decision{CardIndex: s.ValidCards[p.rng.IntN(len(s.ValidCards))]}, nil
}

// ---------------------------------------------------------------------------
// Heuristic
// ---------------------------------------------------------------------------

// Heuristic plays the playable card whose rank and suit are most common in
// the hand, scoring each card as rank count plus suit count. Ties go to
// the earliest playable index.
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Choose(s Situation) (Decision, error) {
	if len(s.ValidCards) == 0 {
		return Decision{Draw: true}, nil
	}
	ranks := make(map[int]int)
	suits := make(map[int]int)
	for _, c := range s.Hand {
		ranks[c.Rank]++
		suits[c.Suit]++
	}
	best, bestScore := -1, -1
	for _, i := range s.ValidCards {
		if i < 0 || i >= len(s.Hand) {
			continue
		}
		c := s.Hand[i]
		if score := ranks[c.Rank] + suits[c.Suit]; score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Decision{Draw: true}, nil
	}
	return Decision{CardIndex: best}, nil
}

// MostFrequentSuit returns the suit hand holds most of, ties going to the
// suit seen first. An empty hand yields 0.
func MostFrequentSuit(hand []protocol.CardView) int {
	if len(hand) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, c := range hand {
		counts[c.Suit]++
	}
	best := hand[0].Suit
	for _, c := range hand[1:] {
		if counts[c.Suit] > counts[best] {
			best = c.Suit
		}
	}
	return best
}

// Options selects the optional policy sources.
type Options struct {
	QTablePath string // qagent table; empty plays an untrained table
	LuaScript  string // replaces the heuristic when set
	Seed       uint64
}

// ForRole builds the policy a role plays with when run as a bot.
func ForRole(role protocol.Role, opts Options) (Policy, error) {
	switch role {
	case protocol.RoleQAgent:
		if opts.QTablePath == "" {
			return NewQTable(), nil
		}
		q, err := LoadQTable(opts.QTablePath)
		if err != nil {
			return nil, err
		}
		return q, nil
	case protocol.RoleRandom:
		return NewRandom(opts.Seed), nil
	case protocol.RoleHeuristic, protocol.RoleHuman:
		if opts.LuaScript != "" {
			l, err := NewLuaFile(opts.LuaScript)
			if err != nil {
				return nil, err
			}
			return l, nil
		}
		return Heuristic{}, nil
	}
	return nil, fmt.Errorf("no policy for role %q", role)
}
