package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazz2-game/hazz2/internal/protocol"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "GRACE_DELAY", "MAX_TURNS", "TURN_TIMEOUT", "OBSERVER_ROLE", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.GraceDelay)
	assert.Equal(t, 500, cfg.MaxTurns)
	assert.Zero(t, cfg.TurnTimeout)
	assert.Equal(t, protocol.RoleHuman, cfg.ObserverRole)
	assert.Equal(t, "hazz2:actions", cfg.RedisChannel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRACE_DELAY", "250ms")
	t.Setenv("MAX_TURNS", "40")
	t.Setenv("LOCAL_BOTS", "heuristic, randomagent")
	t.Setenv("ALLOWED_ORIGINS", "example.com, localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.GraceDelay)
	assert.Equal(t, 40, cfg.MaxTurns)
	assert.Equal(t, []protocol.Role{protocol.RoleHeuristic, protocol.RoleRandom}, cfg.LocalBots)
	assert.Equal(t, []string{"example.com", "localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadEmptyLocalBots(t *testing.T) {
	t.Setenv("LOCAL_BOTS", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.LocalBots)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"GRACE_DELAY":   "soon",
		"MAX_TURNS":     "-3",
		"OBSERVER_ROLE": "dealer",
		"LOCAL_BOTS":    "qagent,ghost",
		"BOT_ROLES":     "banker",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadMaxTurnsCeiling(t *testing.T) {
	t.Setenv("MAX_TURNS", "70000")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_TURNS")
}

func TestLoadBotDefaults(t *testing.T) {
	t.Setenv("GATEWAY_URL", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.GatewayURL)
	assert.Equal(t, 2*time.Second, cfg.ReceiveTimeout)
}
