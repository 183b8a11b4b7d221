// Package config loads server and bot settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hazz2-game/hazz2/internal/protocol"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins []string
	LogLevel       string
	LogJSON        bool

	// Session
	GraceDelay     time.Duration
	MaxTurns       int
	TurnTimeout    time.Duration // 0 disables auto-moves
	ReceiveTimeout time.Duration
	ObserverRole   protocol.Role
	LocalBots      []protocol.Role

	// Policies
	QTablePath string
	LuaScript  string

	// Remote bots (hazz2bot)
	GatewayURL string
	BotRoles   []protocol.Role

	// Live action feed
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string
}

// Load reads the environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		QTablePath:    os.Getenv("QTABLE_PATH"),
		LuaScript:     os.Getenv("LUA_SCRIPT"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisChannel:  getenv("REDIS_CHANNEL", "hazz2:actions"),
		GatewayURL:    getenv("GATEWAY_URL", "ws://localhost:8080/ws"),
	}

	var err error
	if cfg.GraceDelay, err = duration("GRACE_DELAY", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.TurnTimeout, err = duration("TURN_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.ReceiveTimeout, err = duration("RECEIVE_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxTurns, err = integer("MAX_TURNS", 500); err != nil {
		return nil, err
	}
	if cfg.MaxTurns > math.MaxUint16 {
		return nil, fmt.Errorf("MAX_TURNS: %d exceeds %d", cfg.MaxTurns, math.MaxUint16)
	}
	if cfg.RedisDB, err = integer("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ObserverRole, err = protocol.ParseRole(getenv("OBSERVER_ROLE", string(protocol.RoleHuman))); err != nil {
		return nil, fmt.Errorf("OBSERVER_ROLE: %w", err)
	}
	if cfg.LocalBots, err = roles("LOCAL_BOTS", "qagent,randomagent,heuristic"); err != nil {
		return nil, err
	}
	if cfg.BotRoles, err = roles("BOT_ROLES", "qagent,randomagent,heuristic"); err != nil {
		return nil, err
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func roles(key, def string) ([]protocol.Role, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		v = def
	}
	var out []protocol.Role
	for _, s := range splitList(v) {
		r, err := protocol.ParseRole(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
