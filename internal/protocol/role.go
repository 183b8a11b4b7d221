package protocol

import (
	"fmt"
	"strings"
)

// Role names a seat in the fixed roster.
type Role string

const (
	RoleHuman     Role = "human"
	RoleQAgent    Role = "qagent"
	RoleRandom    Role = "randomagent"
	RoleHeuristic Role = "heuristic"
)

// Roster is the full participant list in canonical order.
var Roster = []Role{RoleHuman, RoleQAgent, RoleRandom, RoleHeuristic}

// ParseRole validates s against the roster.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is on the roster.
func (r Role) Valid() bool {
	for _, x := range Roster {
		if r == x {
			return true
		}
	}
	return false
}

// Interactive reports whether r is played by a person, who is asked for
// explicit suit choices and receives the hand-oriented view only.
func (r Role) Interactive() bool { return r == RoleHuman }

func (r Role) String() string { return string(r) }

// Without returns the roster minus excluded, preserving order.
func Without(roster []Role, excluded Role) []Role {
	out := make([]Role, 0, len(roster))
	for _, r := range roster {
		if r != excluded {
			out = append(out, r)
		}
	}
	return out
}
