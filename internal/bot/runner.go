// Package bot runs a non-interactive participant: it subscribes a role,
// answers the coordinator's requests with a policy and logs everything
// else it is told.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hazz2-game/hazz2/internal/logger"
	"github.com/hazz2-game/hazz2/internal/policy"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// Transport carries one participant's messages.
type Transport interface {
	Send(ctx context.Context, msg protocol.Inbound) error
	Receive(ctx context.Context) (protocol.Outbound, error)
	Close() error
}

// Stats counts what a runner has done.
type Stats struct {
	Requests int
	Actions  int
	Suits    int
	Rejects  int
	Rounds   int
}

// Runner is one bot participant.
type Runner struct {
	Role protocol.Role
	// Policy is closed when Run returns if it implements io.Closer.
	Policy    policy.Policy
	Transport Transport
	// IdleTimeout bounds each receive so the runner wakes up periodically
	// even when nothing arrives. Zero waits indefinitely.
	IdleTimeout time.Duration

	log   *log.Entry
	stats Stats
}

func NewRunner(role protocol.Role, p policy.Policy, t Transport, idle time.Duration) *Runner {
	return &Runner{
		Role:        role,
		Policy:      p,
		Transport:   t,
		IdleTimeout: idle,
		log:         logger.Component("bot").WithFields(log.Fields{"role": role, "policy": p.Name()}),
	}
}

// Stats returns the counters. Not safe to call while Run is active.
func (r *Runner) Stats() Stats { return r.stats }

// Run subscribes and serves requests until ctx is done or the transport
// fails. A cancelled ctx is not an error.
func (r *Runner) Run(ctx context.Context) error {
	if c, ok := r.Policy.(io.Closer); ok {
		defer c.Close()
	}
	if err := r.Transport.Send(ctx, protocol.Subscribe{Player: r.Role}); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.Role, err)
	}
	for {
		msg, err := r.receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				r.log.Debug("Idle, still waiting.")
				continue
			}
			return fmt.Errorf("receive %s: %w", r.Role, err)
		}
		if err := r.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (r *Runner) receive(ctx context.Context) (protocol.Outbound, error) {
	if r.IdleTimeout <= 0 {
		return r.Transport.Receive(ctx)
	}
	rctx, cancel := context.WithTimeout(ctx, r.IdleTimeout)
	defer cancel()
	return r.Transport.Receive(rctx)
}

func (r *Runner) handle(ctx context.Context, msg protocol.Outbound) error {
	switch m := msg.(type) {
	case protocol.Confirm:
		r.log.Infof("Subscribed as %s.", m.Player)
	case protocol.Request:
		r.stats.Requests++
		return r.answer(ctx, m)
	case protocol.Reject:
		// The coordinator re-issues its request after every reject.
		r.stats.Rejects++
		r.log.Warnf("Rejected: %s (%s), current player %s.", m.Error, m.Detail, m.CurrentPlayer)
	case protocol.Inform:
		r.inform(m)
	default:
		r.log.Warnf("Unexpected message %T.", msg)
	}
	return nil
}

func (r *Runner) answer(ctx context.Context, req protocol.Request) error {
	if req.Request == protocol.RequestSuitChoice {
		suit := policy.MostFrequentSuit(req.Hand)
		r.stats.Suits++
		r.log.Debugf("Choosing suit %d.", suit)
		return r.Transport.Send(ctx, protocol.SuitChoice{Suit: suit})
	}

	s := policy.FromRequest(req)
	d, err := r.Policy.Choose(s)
	if err != nil {
		r.log.WithError(err).Warn("Policy failed, drawing instead.")
		d = policy.Decision{Draw: true}
	}
	r.stats.Actions++
	r.log.Debugf("Hand %d, valid %v: %s.", len(s.Hand), s.ValidCards, d)
	return r.Transport.Send(ctx, d.Action())
}

func (r *Runner) inform(m protocol.Inform) {
	switch m.Event {
	case protocol.EventState, protocol.EventWatch:
		if m.LastAction != nil {
			r.log.Debugf("State after %s by %s.", m.LastAction.Action, m.LastAction.Player)
		}
	case protocol.EventRoundOver:
		r.stats.Rounds++
		if ro := m.RoundOver; ro != nil {
			r.log.Infof("Round %d over after %d turns: %v.", ro.Round, ro.Turns, ro.FinishOrder)
		}
	case protocol.EventSessionReport:
		if rep := m.Report; rep != nil {
			r.log.Infof("Session stopped after %d rounds.", rep.TotalRounds)
		}
	case protocol.EventInfo:
		r.log.Infof("Info: %s", m.Info)
	}
}
