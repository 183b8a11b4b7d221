// Package game implements the authoritative session coordinator: it owns
// the round state, validates every inbound message against the engine and
// addresses the resulting broadcasts and requests to participants.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	engine "github.com/hazz2-game/hazz2/engine"
	"github.com/hazz2-game/hazz2/internal/cache"
	"github.com/hazz2-game/hazz2/internal/metrics"
	"github.com/hazz2-game/hazz2/internal/protocol"
)

// Sender delivers a message to the participant holding a role.
// Implementations must not block: Send is called with the coordinator lock held.
type Sender interface {
	Send(to protocol.Role, msg protocol.Outbound)
}

// Historian receives the live action feed.
type Historian interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

// Mode selects the roster used for new rounds.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeWatch  Mode = "watch"
)

// Settings configures a Coordinator.
type Settings struct {
	Roster      []protocol.Role   // full participant list
	Observer    protocol.Role     // role excluded from watch rounds
	Rules       engine.HouseRules // NumPlayers is set per round from the roster
	GraceDelay  time.Duration     // pause between a round end and the next deal
	TurnTimeout time.Duration     // 0 leaves a stalled turn blocked
	Seed        uint64            // fixed seed base for reproducible rounds; 0 uses the clock
}

// DefaultSettings returns the standard four-role table.
func DefaultSettings() Settings {
	return Settings{
		Roster:     protocol.Roster,
		Observer:   protocol.RoleHuman,
		Rules:      engine.DefaultHouseRules(),
		GraceDelay: 3 * time.Second,
	}
}

// Coordinator is the single writer of session and round state. Every
// exported method takes Mu, so messages are applied one at a time in the
// order the lock is acquired.
type Coordinator struct {
	ID uuid.UUID

	settings  Settings
	sender    Sender
	historian Historian
	log       *log.Entry

	Mu sync.Mutex

	subscribers map[protocol.Role]string // role -> transport address

	// Session
	running       bool
	stopRequested bool
	mode          Mode
	watchLeft     int
	round         int                    // never reset; counts across sessions
	results       []protocol.RoundRecord // append-only

	// Current round; nil between sessions
	game       *engine.GameState
	seats      []protocol.Role // seat index -> role
	lastAction *protocol.LastAction

	// Timers
	turnID      int
	turnTimer   *time.Timer
	graceID     int
	graceTimer  *time.Timer
	actionIndex int
	closed      bool
}

// NewCoordinator creates an idle coordinator. historian may be nil.
func NewCoordinator(settings Settings, sender Sender, historian Historian) *Coordinator {
	id, _ := uuid.NewRandom()
	if len(settings.Roster) == 0 {
		settings.Roster = protocol.Roster
	}
	if settings.Observer == "" {
		settings.Observer = protocol.RoleHuman
	}
	return &Coordinator{
		ID:          id,
		settings:    settings,
		sender:      sender,
		historian:   historian,
		log:         log.WithField("session", id.String()[:8]),
		subscribers: make(map[protocol.Role]string),
		mode:        ModeNormal,
	}
}

// HandleMessage applies one inbound message from role.
func (c *Coordinator) HandleMessage(from protocol.Role, msg protocol.Inbound) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if c.closed {
		return
	}

	switch m := msg.(type) {
	case protocol.Subscribe:
		c.handleSubscribe(m)
	case protocol.Command:
		c.handleCommand(from, m)
	case protocol.Action:
		c.handleAction(from, m)
	case protocol.SuitChoice:
		c.handleSuitChoice(from, m)
	case protocol.Invalid:
		c.handleInvalid(from, m)
	default:
		c.log.Warnf("Unhandled message type %T from %s", msg, from)
	}
}

// Unsubscribe forgets role if it is still subscribed from address. A
// subscription made by a newer connection is kept. A round waiting on role
// stays blocked until it subscribes again or the turn timeout fires.
func (c *Coordinator) Unsubscribe(role protocol.Role, address string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	current, ok := c.subscribers[role]
	if !ok {
		return
	}
	if current != address {
		c.log.Debugf("%s: ignoring disconnect of %s, subscribed from %s.", role, address, current)
		return
	}
	delete(c.subscribers, role)
	metrics.Connections.Set(float64(len(c.subscribers)))
	c.log.Infof("%s disconnected.", role)
	if c.roundInProgress() && c.actingRole() == role {
		c.log.Warnf("Round %d: waiting on disconnected %s.", c.round, role)
	}
}

// Shutdown stops all timers. The coordinator ignores messages afterwards.
func (c *Coordinator) Shutdown() {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.closed = true
	c.stopTimers()
}

// SessionInfo is a read-only summary of the session.
type SessionInfo struct {
	ID              uuid.UUID              `json:"id"`
	Running         bool                   `json:"running"`
	Mode            Mode                   `json:"mode"`
	Round           int                    `json:"round"`
	Phase           string                 `json:"phase"`
	WatchRoundsLeft int                    `json:"watch_rounds_left,omitempty"`
	Connected       []protocol.Role        `json:"connected"`
	Rounds          []protocol.RoundRecord `json:"rounds"`
}

// Info returns a snapshot of the session for the HTTP API.
func (c *Coordinator) Info() SessionInfo {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	info := SessionInfo{
		ID:              c.ID,
		Running:         c.running,
		Mode:            c.mode,
		Round:           c.round,
		Phase:           "idle",
		WatchRoundsLeft: c.watchLeft,
		Connected:       c.connected(),
		Rounds:          append([]protocol.RoundRecord{}, c.results...),
	}
	if c.game != nil {
		info.Phase = c.game.Phase.String()
	}
	return info
}

// ---------------------------------------------------------------------------
// Helpers. All assume the lock is held.
// ---------------------------------------------------------------------------

func (c *Coordinator) roundInProgress() bool {
	return c.game != nil && !c.game.IsTerminal()
}

// actingRole returns the role that must act next, or "" between rounds.
func (c *Coordinator) actingRole() protocol.Role {
	if !c.roundInProgress() {
		return ""
	}
	return c.roleOf(c.game.ActingPlayer())
}

func (c *Coordinator) roleOf(seat uint8) protocol.Role {
	if int(seat) >= len(c.seats) {
		return ""
	}
	return c.seats[seat]
}

func (c *Coordinator) seatOf(role protocol.Role) (uint8, bool) {
	for i, r := range c.seats {
		if r == role {
			return uint8(i), true
		}
	}
	return engine.NoPlayer, false
}

func (c *Coordinator) roles(seats []uint8) []protocol.Role {
	out := make([]protocol.Role, len(seats))
	for i, s := range seats {
		out[i] = c.roleOf(s)
	}
	return out
}

// connected lists subscribed roles in roster order.
func (c *Coordinator) connected() []protocol.Role {
	out := []protocol.Role{}
	for _, r := range c.settings.Roster {
		if _, ok := c.subscribers[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Coordinator) send(to protocol.Role, msg protocol.Outbound) {
	if c.sender == nil {
		c.log.Warnf("No sender configured, dropping %s for %s.", msg.Kind(), to)
		return
	}
	c.sender.Send(to, msg)
}

// broadcastAll sends msg to every subscribed role.
func (c *Coordinator) broadcastAll(msg protocol.Outbound) {
	for _, r := range c.connected() {
		c.send(r, msg)
	}
}

func (c *Coordinator) stopTimers() {
	c.stopTurnTimer()
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.graceID++
}

func (c *Coordinator) stopTurnTimer() {
	if c.turnTimer != nil {
		c.turnTimer.Stop()
		c.turnTimer = nil
	}
}

// logAction publishes one record of the action feed asynchronously.
func (c *Coordinator) logAction(actor protocol.Role, actionType string, payload map[string]any) {
	c.actionIndex++
	if c.historian == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	rec := cache.GameActionRecord{
		SessionID:     c.ID,
		Round:         c.round,
		ActionIndex:   c.actionIndex,
		Actor:         string(actor),
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.historian.PublishGameAction(ctx, rec); err != nil {
			c.log.Errorf("Failed publishing action %d (%s): %v", rec.ActionIndex, rec.ActionType, err)
		}
	}(rec)
}
