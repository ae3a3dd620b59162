package sessionstates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

const (
	stateKeyPrefix = "session_state:"

	// TTL for idle session snapshots (7 days)
	stateTTL = 7 * 24 * time.Hour
)

// RedisStoreConfig holds configuration for the Redis store
type RedisStoreConfig struct {
	Client redis.UniversalClient
	TTL    time.Duration
}

type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store with the default TTL
func NewRedis(client redis.UniversalClient) Store {
	return NewRedisStore(&RedisStoreConfig{Client: client})
}

// NewRedisStore creates a Redis-backed session state store
func NewRedisStore(cfg *RedisStoreConfig) Store {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = stateTTL
	}
	return &redisStore{client: cfg.Client, ttl: ttl}
}

func (s *redisStore) Save(ctx context.Context, state *entities.SessionState) error {
	if state == nil || state.SessionID == "" {
		return dnderr.InvalidArgument("session state needs a session ID")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize session state: %w", err)
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state.SessionID, string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, sessionID string) (*entities.SessionState, error) {
	key := stateKeyPrefix + sessionID

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, dnderr.NotFoundf("session state not found: %s", sessionID)
		}
		return nil, fmt.Errorf("failed to get session state: %w", err)
	}

	var state entities.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize session state: %w", err)
	}

	// Refresh TTL
	s.client.Expire(ctx, key, s.ttl)

	return &state, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, stateKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}
