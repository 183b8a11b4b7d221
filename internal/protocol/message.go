// Package protocol defines the messages exchanged between participants and
// the coordinator. Every message kind is one Go type; frames are decoded
// and validated before they reach the coordinator.
package protocol

import (
	"fmt"
	"strings"
)

// Kind is the frame type tag.
type Kind string

const (
	KindSubscribe  Kind = "subscribe"
	KindConfirm    Kind = "confirm"
	KindCommand    Kind = "command"
	KindInform     Kind = "inform"
	KindRequest    Kind = "request"
	KindAction     Kind = "action"
	KindSuitChoice Kind = "suit_choice"
	KindReject     Kind = "reject"
)

// Reject codes.
const (
	CodeNotYourTurn      = "not_your_turn"
	CodeInvalidCardIndex = "invalid_card_index"
	CodeCardNotPlayable  = "card_not_playable"
	CodeMissingCardIndex = "missing_card_index"
	CodeUnknownAction    = "unknown_action"
	CodeInvalidSuit      = "invalid_suit"
	CodeMalformed        = "malformed_message"
	CodeUnknownCommand   = "unknown_command"
	CodeUnknownRole      = "unknown_role"
	CodeNotSubscribed    = "not_subscribed"
)

// Informational texts for session-control misuse.
const (
	InfoAlreadyRunning = "already running"
	InfoNoGameRunning  = "no game running"
	InfoUnknownCommand = "unknown command"
)

// MissingParticipants renders the info text for an incomplete roster.
func MissingParticipants(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("missing participants: [%s]", strings.Join(names, ", "))
}

// ---------------------------------------------------------------------------
// Inbound (participant -> coordinator)
// ---------------------------------------------------------------------------

// Inbound is implemented by every message a participant may send.
type Inbound interface {
	Kind() Kind
	inbound()
}

// Subscribe registers a role. Address is filled in by the transport.
type Subscribe struct {
	Player  Role   `json:"player"`
	Address string `json:"address,omitempty"`
}

type CommandKind string

const (
	CommandStart CommandKind = "start"
	CommandStop  CommandKind = "stop"
	CommandWatch CommandKind = "watch"
)

// Command controls the session. Rounds applies to watch only.
type Command struct {
	Command CommandKind `json:"command"`
	Rounds  int         `json:"rounds,omitempty"`
}

type ActionKind string

const (
	ActionPlay ActionKind = "play"
	ActionDraw ActionKind = "draw"
)

// Action is a move. CardIndex is set for plays only.
type Action struct {
	Action    ActionKind `json:"action"`
	CardIndex *int       `json:"card_index,omitempty"`
}

// SuitChoice resolves a pending seven.
type SuitChoice struct {
	Suit int `json:"suit"`
}

// Invalid stands in for a frame that failed validation, so the
// coordinator can answer it with a reject and re-issue its request.
type Invalid struct {
	Type   Kind   `json:"type,omitempty"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func (Subscribe) Kind() Kind  { return KindSubscribe }
func (Command) Kind() Kind    { return KindCommand }
func (Action) Kind() Kind     { return KindAction }
func (SuitChoice) Kind() Kind { return KindSuitChoice }
func (m Invalid) Kind() Kind  { return m.Type }

func (Subscribe) inbound()  {}
func (Command) inbound()    {}
func (Action) inbound()     {}
func (SuitChoice) inbound() {}
func (Invalid) inbound()    {}

// Play builds a play action for idx.
func Play(idx int) Action { return Action{Action: ActionPlay, CardIndex: &idx} }

// Draw builds a draw action.
func Draw() Action { return Action{Action: ActionDraw} }

// ---------------------------------------------------------------------------
// Outbound (coordinator -> participant)
// ---------------------------------------------------------------------------

// Outbound is implemented by every message the coordinator sends.
type Outbound interface {
	Kind() Kind
	outbound()
}

// Confirm acknowledges a subscription.
type Confirm struct {
	Status string `json:"status"`
	Player Role   `json:"player"`
}

// Reject reports an invalid submission.
type Reject struct {
	Error         string `json:"error"`
	CurrentPlayer Role   `json:"current_player,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

const (
	RequestAction     = "action"
	RequestSuitChoice = "suit_choice"
)

// Request solicits the next move from the acting participant.
type Request struct {
	Request      string     `json:"request"`
	State        *View      `json:"state,omitempty"`
	Observation  []int      `json:"observation,omitempty"`
	ValidActions []int      `json:"valid_actions,omitempty"`
	HandSize     int        `json:"hand_size"`
	Hand         []CardView `json:"hand,omitempty"`
	Suits        []int      `json:"suits,omitempty"`
}

// Inform events.
const (
	EventState         = "state"
	EventWatch         = "watch"
	EventRoundOver     = "round_over"
	EventSessionReport = "session_report"
	EventInfo          = "info"
)

// Inform is a broadcast. Event selects which of the optional fields is set.
type Inform struct {
	Event      string         `json:"event"`
	State      *View          `json:"state,omitempty"`
	Watch      *WatchView     `json:"watch,omitempty"`
	LastAction *LastAction    `json:"last_action,omitempty"`
	RoundOver  *RoundResult   `json:"round_over,omitempty"`
	Report     *SessionReport `json:"report,omitempty"`
	Info       string         `json:"info,omitempty"`
}

func (Confirm) Kind() Kind { return KindConfirm }
func (Reject) Kind() Kind  { return KindReject }
func (Request) Kind() Kind { return KindRequest }
func (Inform) Kind() Kind  { return KindInform }

func (Confirm) outbound() {}
func (Reject) outbound()  {}
func (Request) outbound() {}
func (Inform) outbound()  {}

// InfoMessage builds an info inform.
func InfoMessage(text string) Inform { return Inform{Event: EventInfo, Info: text} }
