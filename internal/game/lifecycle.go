package game

import (
	"fmt"
	"time"

	engine "github.com/hazz2-game/hazz2/engine"
	"github.com/hazz2-game/hazz2/internal/metrics"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// handleSubscribe registers a role. A participant that reconnects during a
// round gets the current state and, if it owes a move, the request again.
func (c *Coordinator) handleSubscribe(m protocol.Subscribe) {
	_, again := c.subscribers[m.Player]
	c.subscribers[m.Player] = m.Address
	metrics.Connections.Set(float64(len(c.subscribers)))
	c.log.WithField("address", m.Address).Infof("%s subscribed (reconnect: %v).", m.Player, again)
	c.send(m.Player, protocol.Confirm{Status: "subscribed", Player: m.Player})

	if !c.roundInProgress() {
		return
	}
	if _, seated := c.seatOf(m.Player); seated {
		c.send(m.Player, protocol.Inform{
			Event:      protocol.EventState,
			State:      c.viewFor(m.Player),
			LastAction: scopeLastAction(c.lastAction, m.Player),
		})
		if c.actingRole() == m.Player {
			c.requestAction()
		}
	} else if c.mode == ModeWatch && m.Player == c.settings.Observer {
		c.send(m.Player, protocol.Inform{
			Event:      protocol.EventWatch,
			Watch:      c.watchView(),
			LastAction: scopeLastAction(c.lastAction, m.Player),
		})
	}
}

func (c *Coordinator) handleCommand(from protocol.Role, m protocol.Command) {
	switch m.Command {
	case protocol.CommandStart:
		c.startSession(from, ModeNormal, 0)
	case protocol.CommandWatch:
		c.startSession(from, ModeWatch, m.Rounds)
	case protocol.CommandStop:
		c.stopSession(from)
	default:
		c.send(from, protocol.InfoMessage(protocol.InfoUnknownCommand))
	}
}

// rosterFor returns the roles dealt in under mode.
func (c *Coordinator) rosterFor(mode Mode) []protocol.Role {
	if mode == ModeWatch {
		return protocol.Without(c.settings.Roster, c.settings.Observer)
	}
	return append([]protocol.Role{}, c.settings.Roster...)
}

func (c *Coordinator) missing(roster []protocol.Role) []protocol.Role {
	var out []protocol.Role
	for _, r := range roster {
		if _, ok := c.subscribers[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Coordinator) startSession(from protocol.Role, mode Mode, rounds int) {
	if c.running {
		c.send(from, protocol.InfoMessage(protocol.InfoAlreadyRunning))
		return
	}
	roster := c.rosterFor(mode)
	if missing := c.missing(roster); len(missing) > 0 {
		c.log.Infof("%s asked to %s, but %v are not connected.", from, mode, missing)
		c.send(from, protocol.InfoMessage(protocol.MissingParticipants(missing)))
		return
	}

	c.running = true
	c.stopRequested = false
	c.mode = mode
	c.watchLeft = 0
	if mode == ModeWatch {
		c.watchLeft = max(rounds, 1)
	}
	metrics.SessionRunning.Set(1)
	c.log.Infof("Session started by %s in %s mode (watch rounds: %d).", from, mode, c.watchLeft)
	c.logAction(from, "session_start", map[string]any{"mode": string(mode), "rounds": c.watchLeft})
	c.startRound()
}

func (c *Coordinator) stopSession(from protocol.Role) {
	if !c.running {
		c.send(from, protocol.InfoMessage(protocol.InfoNoGameRunning))
		return
	}
	c.stopRequested = true
	c.log.Infof("Stop requested by %s.", from)
	if c.roundInProgress() {
		// The unfinished round is not recorded.
		metrics.Rounds.WithLabelValues("aborted").Inc()
		c.logAction(from, "round_aborted", map[string]any{"reason": "stop"})
		c.game.Phase = engine.PhaseRoundOver
	}
	c.endSession()
}

func (c *Coordinator) nextSeed() uint64 {
	if c.settings.Seed != 0 {
		return c.settings.Seed + uint64(c.round)
	}
	return uint64(time.Now().UnixNano())
}

// startRound deals a fresh round for the current mode and asks the first
// player to act.
func (c *Coordinator) startRound() {
	c.stopTimers()
	c.round++

	roster := c.rosterFor(c.mode)
	rules := c.settings.Rules
	rules.NumPlayers = uint8(len(roster))
	g := engine.NewGame(c.nextSeed(), rules)
	if err := g.Deal(); err != nil {
		c.log.WithError(err).Errorf("Round %d: deal failed for %d players.", c.round, len(roster))
		c.endSession()
		return
	}
	c.game = &g
	c.seats = roster

	order := c.roles(g.Order())
	c.log.Infof("Round %d: started in %s mode. Turn order %v, starter %s.", c.round, c.mode, order, g.DiscardTop())
	last := &protocol.LastAction{Action: protocol.LastRoundStart, TurnOrder: order}
	c.lastAction = last
	c.logAction("", "round_start", map[string]any{"turn_order": order, "starter": g.DiscardTop().String()})
	c.broadcast(last)
	c.onTurnAdvanced()
}

// roundOver records the finished round and either schedules the next one
// or ends the session.
func (c *Coordinator) roundOver() {
	g := c.game
	c.stopTurnTimer()

	finish := c.roles(g.Finished())
	rec := protocol.RoundRecord{
		Round:       c.round,
		FinishOrder: finish,
		Turns:       int(g.TotalTurns),
		Forced:      g.Forced,
		Watched:     c.mode == ModeWatch,
	}
	c.results = append(c.results, rec)

	outcome := "finished"
	if g.Forced {
		outcome = "forced"
	}
	metrics.Rounds.WithLabelValues(outcome).Inc()
	metrics.RoundTurns.Observe(float64(g.TotalTurns))

	if c.mode == ModeWatch {
		c.watchLeft--
	}
	ends := c.stopRequested || (c.mode == ModeWatch && c.watchLeft <= 0)

	result := protocol.RoundResult{
		Round:         c.round,
		FinishOrder:   finish,
		Loser:         c.roleOf(g.Loser()),
		Turns:         int(g.TotalTurns),
		Forced:        g.Forced,
		StopRequested: ends,
	}
	c.log.Infof("Round %d: over after %d turns (%s). Finish order %v.", c.round, g.TotalTurns, outcome, finish)
	c.logAction("", "round_over", map[string]any{"finish_order": finish, "turns": rec.Turns, "forced": rec.Forced})
	c.broadcastAll(protocol.Inform{Event: protocol.EventRoundOver, RoundOver: &result})

	if ends {
		c.endSession()
		return
	}
	c.scheduleGrace()
}

// abortRound ends a round the engine could not continue. It is not
// recorded; the session moves on to the next round.
func (c *Coordinator) abortRound(err error) {
	c.log.WithError(err).Errorf("Round %d: aborted.", c.round)
	c.stopTurnTimer()
	metrics.Rounds.WithLabelValues("aborted").Inc()
	c.game.Phase = engine.PhaseRoundOver
	c.logAction("", "round_aborted", map[string]any{"reason": err.Error()})
	c.broadcastAll(protocol.InfoMessage(fmt.Sprintf("round %d aborted", c.round)))
	c.scheduleGrace()
}

// scheduleGrace starts the next round after the grace delay unless the
// session ends first.
func (c *Coordinator) scheduleGrace() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
	}
	c.graceID++
	id := c.graceID
	c.graceTimer = time.AfterFunc(c.settings.GraceDelay, func() {
		c.Mu.Lock()
		defer c.Mu.Unlock()
		if c.closed || !c.running || c.graceID != id {
			return
		}
		c.graceTimer = nil
		c.startRound()
	})
}

// endSession stops the session, reverts to normal mode and reports every
// recorded round to all subscribers.
func (c *Coordinator) endSession() {
	c.stopTimers()
	c.running = false
	c.stopRequested = false
	c.mode = ModeNormal
	c.watchLeft = 0
	metrics.SessionRunning.Set(0)

	report := c.report()
	c.log.Infof("Session stopped after %d recorded rounds.", report.TotalRounds)
	c.logAction("", "session_stop", map[string]any{"total_rounds": report.TotalRounds})
	c.broadcastAll(protocol.Inform{Event: protocol.EventSessionReport, Report: &report})
}

// report aggregates the session log.
func (c *Coordinator) report() protocol.SessionReport {
	standings := make(map[protocol.Role]protocol.Standing)
	for _, rec := range c.results {
		for i, r := range rec.FinishOrder {
			s := standings[r]
			s.Rounds++
			if i == 0 {
				s.Wins++
			}
			if i == len(rec.FinishOrder)-1 {
				s.Losses++
			}
			standings[r] = s
		}
	}
	return protocol.SessionReport{
		GameStopped: true,
		TotalRounds: len(c.results),
		AllRounds:   append([]protocol.RoundRecord{}, c.results...),
		Standings:   standings,
	}
}
