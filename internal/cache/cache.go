// Package cache publishes the live action feed to Redis pub/sub. Nothing
// is stored: records are fire-and-forget for external observers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// GameActionRecord is one entry of the action feed.
type GameActionRecord struct {
	SessionID     uuid.UUID      `json:"session_id"`
	Round         int            `json:"round"`
	ActionIndex   int            `json:"action_index"`
	Actor         string         `json:"actor,omitempty"` // empty for session events
	ActionType    string         `json:"action_type"`
	ActionPayload map[string]any `json:"action_payload"`
	Timestamp     int64          `json:"timestamp"` // unix millis
}

// Publisher wraps a Redis client and the feed channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

// NewPublisher connects and pings Redis with a 2s timeout.
func NewPublisher(addr, password string, db int, channel string) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Publisher{rdb: rdb, channel: channel}, nil
}

// PublishGameAction publishes rec as JSON on the feed channel.
func (p *Publisher) PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action %d: %w", rec.ActionIndex, err)
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// Subscribe opens a subscription to the feed channel.
func (p *Publisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.rdb.Subscribe(ctx, p.channel)
}

func (p *Publisher) Close() error { return p.rdb.Close() }
