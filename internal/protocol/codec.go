package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame is the wire envelope: {"type": <kind>, "body": {...}}.
type Frame struct {
	Type Kind            `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// DecodeError reports a frame that failed validation. Code is the reject
// code sent back to the participant.
type DecodeError struct {
	Type Kind
	Code string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("decode: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("decode %s: %s: %v", e.Type, e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AsInvalid converts a decode failure into the Invalid variant. Errors
// that are not a *DecodeError become a malformed_message.
func AsInvalid(err error) Invalid {
	var de *DecodeError
	if errors.As(err, &de) {
		return Invalid{Type: de.Type, Code: de.Code, Reason: de.Err.Error()}
	}
	return Invalid{Code: CodeMalformed, Reason: err.Error()}
}

func decodeErr(k Kind, code string, format string, args ...any) *DecodeError {
	return &DecodeError{Type: k, Code: code, Err: fmt.Errorf(format, args...)}
}

// DecodeInbound parses and validates a participant frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &DecodeError{Code: CodeMalformed, Err: err}
	}
	body := f.Body
	if len(body) == 0 {
		body = []byte("{}")
	}

	switch f.Type {
	case KindSubscribe:
		var raw struct {
			Player  string `json:"player"`
			Address string `json:"address"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &DecodeError{Type: f.Type, Code: CodeMalformed, Err: err}
		}
		role, err := ParseRole(raw.Player)
		if err != nil {
			return nil, &DecodeError{Type: f.Type, Code: CodeUnknownRole, Err: err}
		}
		return Subscribe{Player: role, Address: raw.Address}, nil

	case KindCommand:
		var c Command
		if err := json.Unmarshal(body, &c); err != nil {
			return nil, &DecodeError{Type: f.Type, Code: CodeMalformed, Err: err}
		}
		switch c.Command {
		case CommandStart, CommandStop:
			c.Rounds = 0
		case CommandWatch:
			if c.Rounds <= 0 {
				c.Rounds = 1
			}
		default:
			return nil, decodeErr(f.Type, CodeUnknownCommand, "command %q", c.Command)
		}
		return c, nil

	case KindAction:
		var raw struct {
			Action    string `json:"action"`
			CardIndex *int   `json:"card_index"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &DecodeError{Type: f.Type, Code: CodeMalformed, Err: err}
		}
		switch ActionKind(raw.Action) {
		case ActionPlay:
			if raw.CardIndex == nil {
				return nil, decodeErr(f.Type, CodeMissingCardIndex, "play without card_index")
			}
			return Action{Action: ActionPlay, CardIndex: raw.CardIndex}, nil
		case ActionDraw:
			return Action{Action: ActionDraw}, nil
		}
		return nil, decodeErr(f.Type, CodeUnknownAction, "action %q", raw.Action)

	case KindSuitChoice:
		var raw struct {
			Suit *int `json:"suit"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &DecodeError{Type: f.Type, Code: CodeMalformed, Err: err}
		}
		if raw.Suit == nil || *raw.Suit < 0 || *raw.Suit >= 4 {
			return nil, decodeErr(f.Type, CodeInvalidSuit, "suit must be 0..3")
		}
		return SuitChoice{Suit: *raw.Suit}, nil
	}
	return nil, decodeErr(f.Type, CodeMalformed, "unexpected frame type %q", f.Type)
}

// DecodeOutbound parses a coordinator frame, as read by participants.
func DecodeOutbound(data []byte) (Outbound, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	var m Outbound
	switch f.Type {
	case KindConfirm:
		var v Confirm
		if err := json.Unmarshal(f.Body, &v); err != nil {
			return nil, err
		}
		m = v
	case KindReject:
		var v Reject
		if err := json.Unmarshal(f.Body, &v); err != nil {
			return nil, err
		}
		m = v
	case KindRequest:
		var v Request
		if err := json.Unmarshal(f.Body, &v); err != nil {
			return nil, err
		}
		m = v
	case KindInform:
		var v Inform
		if err := json.Unmarshal(f.Body, &v); err != nil {
			return nil, err
		}
		m = v
	default:
		return nil, fmt.Errorf("unexpected frame type %q", f.Type)
	}
	return m, nil
}

// Marshal wraps any message in a frame.
func Marshal(m interface{ Kind() Kind }) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Kind(), err)
	}
	return json.Marshal(Frame{Type: m.Kind(), Body: body})
}
