package policy

import (
	"fmt"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Lua delegates decisions to a script defining a global function
//
//	choose(obs, valid, hand) -> action
//
// where obs is the observation vector, valid the valid action indices and
// hand a list of {suit=, rank=} tables, all 1-based Lua arrays. The
// returned action index uses the same numbering as valid: hand positions,
// then the draw action.
type Lua struct {
	mu sync.Mutex
	L  *lua.LState
}

// NewLuaFile loads a policy script from path.
func NewLuaFile(path string) (*Lua, error) {
	L := lua.NewState()
	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("load lua policy %s: %w", path, err)
	}
	return newLua(L)
}

// NewLuaString loads a policy script from source.
func NewLuaString(src string) (*Lua, error) {
	L := lua.NewState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("load lua policy: %w", err)
	}
	return newLua(L)
}

func newLua(L *lua.LState) (*Lua, error) {
	if L.GetGlobal("choose").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("lua policy does not define choose()")
	}
	return &Lua{L: L}, nil
}

func (*Lua) Name() string { return "lua" }

func (p *Lua) Choose(s Situation) (Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	L := p.L

	obs := L.NewTable()
	for _, v := range s.Observation {
		obs.Append(lua.LNumber(v))
	}
	valid := L.NewTable()
	for _, a := range s.ValidActions {
		valid.Append(lua.LNumber(a))
	}
	hand := L.NewTable()
	for _, c := range s.Hand {
		card := L.NewTable()
		card.RawSetString("suit", lua.LNumber(c.Suit))
		card.RawSetString("rank", lua.LNumber(c.Rank))
		hand.Append(card)
	}

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("choose"),
		NRet:    1,
		Protect: true,
	}, obs, valid, hand); err != nil {
		return Decision{}, fmt.Errorf("lua choose: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return Decision{}, fmt.Errorf("lua choose returned %s, want number", ret.Type())
	}
	action := int(n)
	if !slices.Contains(s.ValidActions, action) {
		return Decision{}, fmt.Errorf("lua choose returned invalid action %d", action)
	}
	return DecisionFor(action, len(s.Hand)), nil
}

// Close releases the interpreter.
func (p *Lua) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.L.Close()
	return nil
}
