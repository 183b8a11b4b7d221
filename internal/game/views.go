package game

import (
	engine "github.com/hazz2-game/hazz2/engine"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// viewFor builds the state view of role. Only role's own hand is revealed;
// every other seat appears as a card count.
// Assumes lock is held by caller.
func (c *Coordinator) viewFor(role protocol.Role) *protocol.View {
	g := c.game
	v := &protocol.View{
		Player:           role,
		Hand:             []protocol.CardView{},
		CurrentSuit:      int(g.ActiveSuit),
		PenaltyStack:     int(g.Penalty),
		DeckSize:         int(g.DeckLen),
		CurrentPlayer:    c.actingRole(),
		TurnOrder:        c.roles(g.Order()),
		ActivePlayers:    c.roles(g.ActivePlayers()),
		Opponents:        make(map[protocol.Role]int),
		ValidCardIndices: []int{},
		Round:            c.round,
		TotalTurns:       int(g.TotalTurns),
		FinishOrder:      c.roles(g.Finished()),
	}
	if top := g.DiscardTop(); top.Valid() {
		cv := protocol.CardOf(top)
		v.TopCard = &cv
	}
	if g.Phase == engine.PhaseAwaitingSuitChoice {
		v.PendingSuitChoice = c.roleOf(g.PendingSuit)
	}

	seat, seated := c.seatOf(role)
	if seated {
		v.Hand = protocol.CardsOf(g.Hand(seat))
		v.HandSize = g.HandLen(seat)
		v.ValidCardIndices = g.ValidIndices(seat)
	}
	for i, r := range c.seats {
		if !seated || uint8(i) != seat {
			v.Opponents[r] = g.HandLen(uint8(i))
		}
	}
	return v
}

// watchView builds the observer's view: hand sizes only.
// Assumes lock is held by caller.
func (c *Coordinator) watchView() *protocol.WatchView {
	g := c.game
	v := &protocol.WatchView{
		Observer:      c.settings.Observer,
		HandSizes:     make(map[protocol.Role]int, len(c.seats)),
		CurrentSuit:   int(g.ActiveSuit),
		PenaltyStack:  int(g.Penalty),
		DeckSize:      int(g.DeckLen),
		CurrentPlayer: c.actingRole(),
		TurnOrder:     c.roles(g.Order()),
		ActivePlayers: c.roles(g.ActivePlayers()),
		Round:         c.round,
		TotalTurns:    int(g.TotalTurns),
		FinishOrder:   c.roles(g.Finished()),
		RoundsLeft:    c.watchLeft,
	}
	if top := g.DiscardTop(); top.Valid() {
		cv := protocol.CardOf(top)
		v.TopCard = &cv
	}
	for i, r := range c.seats {
		v.HandSizes[r] = g.HandLen(uint8(i))
	}
	return v
}

// broadcast sends every seated subscriber its own view, and the observer
// the watch view when in watch mode.
// Assumes lock is held by caller.
func (c *Coordinator) broadcast(last *protocol.LastAction) {
	for _, role := range c.seats {
		if _, ok := c.subscribers[role]; !ok {
			continue
		}
		c.send(role, protocol.Inform{
			Event:      protocol.EventState,
			State:      c.viewFor(role),
			LastAction: scopeLastAction(last, role),
		})
	}
	if c.mode != ModeWatch {
		return
	}
	obs := c.settings.Observer
	if _, ok := c.subscribers[obs]; ok {
		c.send(obs, protocol.Inform{
			Event:      protocol.EventWatch,
			Watch:      c.watchView(),
			LastAction: scopeLastAction(last, obs),
		})
	}
}

// scopeLastAction strips the drawn cards unless role drew them.
func scopeLastAction(last *protocol.LastAction, role protocol.Role) *protocol.LastAction {
	if last == nil || last.Drawn == nil || last.Player == role {
		return last
	}
	cp := *last
	cp.Drawn = nil
	return &cp
}

// describe converts an engine outcome into the broadcast descriptor.
func describe(out engine.Outcome, role protocol.Role) *protocol.LastAction {
	if out.Played == engine.EmptyCard {
		return &protocol.LastAction{
			Action:     protocol.LastDraw,
			Player:     role,
			Count:      out.Count,
			Drawn:      protocol.CardsOf(out.Drawn),
			Reshuffled: out.Reshuffled,
		}
	}
	card := protocol.CardOf(out.Played)
	return &protocol.LastAction{
		Action: protocol.LastPlay,
		Player: role,
		Card:   &card,
		Effect: &protocol.Effect{
			Penalty: int(out.Effect.Penalty),
			Skip:    out.Effect.Skip,
			Seven:   out.Effect.Choice,
		},
		Finished: out.Finished,
		Position: out.Position,
	}
}

// actionPayload is the feed payload of a play or draw; drawn cards stay private.
func actionPayload(last *protocol.LastAction) map[string]any {
	p := map[string]any{}
	if last.Card != nil {
		p["card"] = last.Card.Repr
	}
	if last.Effect != nil {
		p["penalty"] = last.Effect.Penalty
		p["skip"] = last.Effect.Skip
		p["seven"] = last.Effect.Seven
		if last.Effect.ChosenSuit != nil {
			p["chosen_suit"] = *last.Effect.ChosenSuit
		}
	}
	if last.Action == protocol.LastDraw {
		p["count"] = last.Count
		p["drawn"] = len(last.Drawn)
		p["reshuffled"] = last.Reshuffled
	}
	if last.Finished {
		p["finished_position"] = last.Position
	}
	return p
}
