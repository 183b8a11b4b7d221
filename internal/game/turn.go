package game

import (
	"errors"
	"time"

	engine "github.com/hazz2-game/hazz2/engine"
	"github.com/hazz2-game/hazz2/engine/agent"
	"github.com/hazz2-game/hazz2/internal/metrics"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// rejectCode maps an engine error to its wire code.
func rejectCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn), errors.Is(err, engine.ErrAwaitingSuitChoice):
		return protocol.CodeNotYourTurn
	case errors.Is(err, engine.ErrInvalidIndex):
		return protocol.CodeInvalidCardIndex
	case errors.Is(err, engine.ErrNotPlayable):
		return protocol.CodeCardNotPlayable
	case errors.Is(err, engine.ErrInvalidSuit):
		return protocol.CodeInvalidSuit
	}
	return protocol.CodeUnknownAction
}

// handleAction applies a play or draw from role.
func (c *Coordinator) handleAction(from protocol.Role, m protocol.Action) {
	if !c.roundInProgress() {
		c.log.Debugf("Ignoring %s from %s: no round in progress.", m.Action, from)
		return
	}
	g := c.game
	if g.Phase == engine.PhaseAwaitingSuitChoice {
		chooser := c.roleOf(g.PendingSuit)
		c.log.Debugf("Round %d: ignoring %s from %s while %s chooses a suit.", c.round, m.Action, from, chooser)
		if from == chooser {
			c.requestAction()
		}
		return
	}

	seat, seated := c.seatOf(from)
	if !seated || seat != g.CurrentPlayer() {
		c.reject(from, engine.ErrNotYourTurn)
		return
	}

	var (
		out engine.Outcome
		err error
	)
	switch m.Action {
	case protocol.ActionPlay:
		if m.CardIndex == nil {
			c.rejectCode(from, protocol.CodeMissingCardIndex, "play without card_index")
			return
		}
		out, err = g.Play(seat, *m.CardIndex)
	case protocol.ActionDraw:
		out, err = g.Draw(seat)
	default:
		c.rejectCode(from, protocol.CodeUnknownAction, string(m.Action))
		return
	}
	if err != nil {
		if errors.Is(err, engine.ErrTurnLoop) {
			c.abortRound(err)
			return
		}
		c.reject(from, err)
		return
	}
	c.resolve(out, string(m.Action))
}

// handleSuitChoice resolves a pending seven. Anything but a choice from the
// designated chooser is ignored.
func (c *Coordinator) handleSuitChoice(from protocol.Role, m protocol.SuitChoice) {
	if !c.roundInProgress() || c.game.Phase != engine.PhaseAwaitingSuitChoice {
		c.log.Debugf("Ignoring suit choice from %s: none pending.", from)
		return
	}
	if chooser := c.roleOf(c.game.PendingSuit); from != chooser {
		c.log.Debugf("Round %d: ignoring suit choice from %s, waiting on %s.", c.round, from, chooser)
		return
	}
	c.applySuit(c.game.PendingSuit, uint8(m.Suit))
}

func (c *Coordinator) applySuit(seat, suit uint8) {
	out, err := c.game.ChooseSuit(seat, suit)
	if err != nil {
		if errors.Is(err, engine.ErrTurnLoop) {
			c.abortRound(err)
			return
		}
		c.reject(c.roleOf(seat), err)
		return
	}
	role := c.roleOf(seat)
	s := int(suit)
	last := &protocol.LastAction{Action: protocol.LastSuitChosen, Player: role, Suit: &s}
	metrics.Actions.WithLabelValues(protocol.LastSuitChosen).Inc()
	c.log.Infof("Round %d: %s chose %s.", c.round, role, engine.SuitName(suit))
	c.logAction(role, protocol.LastSuitChosen, map[string]any{"suit": s})
	c.finishTurn(out, last)
}

// handleInvalid answers a frame that failed validation.
func (c *Coordinator) handleInvalid(from protocol.Role, m protocol.Invalid) {
	if m.Code == protocol.CodeUnknownCommand {
		c.send(from, protocol.InfoMessage(protocol.InfoUnknownCommand))
		return
	}
	if c.roundInProgress() && c.game.Phase == engine.PhaseAwaitingSuitChoice && from != c.actingRole() {
		c.log.Debugf("Round %d: ignoring invalid %s from %s during suit choice.", c.round, m.Type, from)
		return
	}
	if c.roundInProgress() && m.Type == protocol.KindAction && from != c.actingRole() {
		c.reject(from, engine.ErrNotYourTurn)
		return
	}
	c.rejectCode(from, m.Code, m.Reason)
}

// reject answers err and re-issues the outstanding request.
func (c *Coordinator) reject(from protocol.Role, err error) {
	c.rejectCode(from, rejectCode(err), err.Error())
}

func (c *Coordinator) rejectCode(from protocol.Role, code, detail string) {
	metrics.Rejections.WithLabelValues(code).Inc()
	c.log.WithField("code", code).Warnf("Rejected message from %s: %s", from, detail)

	rej := protocol.Reject{Error: code, Detail: detail}
	if c.roundInProgress() {
		rej.CurrentPlayer = c.actingRole()
	}
	c.send(from, rej)
	if c.roundInProgress() {
		c.requestAction()
	}
}

// resolve publishes an applied play or draw. A seven played by a
// non-interactive participant is resolved immediately with the suit it
// holds most of.
func (c *Coordinator) resolve(out engine.Outcome, kind string) {
	g := c.game
	role := c.roleOf(out.Seat)
	last := describe(out, role)
	metrics.Actions.WithLabelValues(kind).Inc()

	if out.Effect.Choice && !role.Interactive() {
		suit := g.MostFrequentSuit(out.Seat)
		res, err := g.ChooseSuit(out.Seat, suit)
		if err != nil {
			if errors.Is(err, engine.ErrTurnLoop) {
				c.abortRound(err)
				return
			}
			c.log.WithError(err).Errorf("Round %d: auto suit choice for %s failed.", c.round, role)
			return
		}
		s := int(suit)
		last.Effect.ChosenSuit = &s
		out.RoundOver, out.Forced = res.RoundOver, res.Forced
	}

	if out.Played != engine.EmptyCard {
		c.log.Infof("Round %d: %s played %s.", c.round, role, out.Played)
	} else {
		c.log.Infof("Round %d: %s drew %d of %d.", c.round, role, len(out.Drawn), out.Count)
	}
	if out.Finished {
		c.log.Infof("Round %d: %s finished in position %d.", c.round, role, out.Position)
	}
	c.logAction(role, kind, actionPayload(last))
	c.finishTurn(out, last)
}

// finishTurn broadcasts the result of an applied action, then ends the
// round or asks the next participant.
func (c *Coordinator) finishTurn(out engine.Outcome, last *protocol.LastAction) {
	if !c.game.Conserved() {
		c.log.Errorf("Round %d: card conservation violated after %s.", c.round, last.Action)
	}
	c.lastAction = last
	c.broadcast(last)
	if out.RoundOver || c.game.IsTerminal() {
		c.roundOver()
		return
	}
	c.onTurnAdvanced()
}

// onTurnAdvanced starts a new turn: bumps TurnID, arms the timeout and
// sends the request.
func (c *Coordinator) onTurnAdvanced() {
	c.turnID++
	c.scheduleTurnTimer()
	c.requestAction()
}

// requestAction (re-)issues the outstanding request to the acting role.
func (c *Coordinator) requestAction() {
	if !c.roundInProgress() {
		return
	}
	g := c.game
	seat := g.ActingPlayer()
	role := c.roleOf(seat)

	if g.Phase == engine.PhaseAwaitingSuitChoice {
		c.send(role, protocol.Request{
			Request:  protocol.RequestSuitChoice,
			Hand:     protocol.CardsOf(g.Hand(seat)),
			HandSize: g.HandLen(seat),
			Suits:    []int{0, 1, 2, 3},
		})
		return
	}

	req := protocol.Request{
		Request:  protocol.RequestAction,
		State:    c.viewFor(role),
		HandSize: g.HandLen(seat),
	}
	if !role.Interactive() {
		var obs agent.Observation
		agent.Encode(g, seat, &obs)
		req.Observation = obs.Slice()
		req.ValidActions = agent.ValidActions(g, seat)
	}
	c.send(role, req)
}

// scheduleTurnTimer arms the auto-move for the current turn.
func (c *Coordinator) scheduleTurnTimer() {
	c.stopTurnTimer()
	if c.settings.TurnTimeout <= 0 || !c.roundInProgress() {
		return
	}
	expected := c.turnID
	c.turnTimer = time.AfterFunc(c.settings.TurnTimeout, func() {
		c.Mu.Lock()
		defer c.Mu.Unlock()
		if c.closed || c.turnID != expected || !c.roundInProgress() {
			return
		}
		c.turnTimer = nil
		c.handleTimeout()
	})
}

// handleTimeout moves for a participant that let the turn expire: a draw,
// or its most frequent suit when a choice is pending.
func (c *Coordinator) handleTimeout() {
	g := c.game
	seat := g.ActingPlayer()
	role := c.roleOf(seat)
	c.log.Warnf("Round %d: %s timed out on turn %d, moving for it.", c.round, role, c.turnID)
	c.logAction(role, "player_timeout", map[string]any{"turn": c.turnID})

	if g.Phase == engine.PhaseAwaitingSuitChoice {
		c.applySuit(seat, g.MostFrequentSuit(seat))
		return
	}
	out, err := g.Draw(seat)
	if err != nil {
		if errors.Is(err, engine.ErrTurnLoop) {
			c.abortRound(err)
			return
		}
		c.log.WithError(err).Errorf("Round %d: timeout draw for %s failed.", c.round, role)
		return
	}
	c.resolve(out, string(protocol.ActionDraw))
}
