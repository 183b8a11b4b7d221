package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishGameAction(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	p, err := NewPublisher(addr, os.Getenv("REDIS_PASSWORD"), 0, "hazz2:test:"+uuid.NewString())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := p.Subscribe(ctx)
	defer sub.Close()
	_, err = sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	rec := GameActionRecord{
		SessionID:     uuid.New(),
		Round:         2,
		ActionIndex:   7,
		Actor:         "heuristic",
		ActionType:    "play",
		ActionPayload: map[string]any{"card_index": float64(1)},
		Timestamp:     time.Now().UnixMilli(),
	}
	require.NoError(t, p.PublishGameAction(ctx, rec))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got GameActionRecord
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, rec, got)
}

func TestNewPublisherUnreachable(t *testing.T) {
	_, err := NewPublisher("127.0.0.1:1", "", 0, "hazz2:actions")
	assert.Error(t, err)
}
