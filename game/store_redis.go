/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "guessbox:session:"

type RedisConfig struct {
	Client *redis.Client

	// TTL is refreshed on every save; zero keeps sessions forever.
	TTL time.Duration
}

// RedisStore keeps each session as a JSON document in Redis, so sessions
// survive a server restart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: cfg.Client,
		ttl:    cfg.TTL,
	}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (State, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	s.normalize()

	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, s State) error {
	s.normalize()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	if err := r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}

	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", sessionID, err)
	}

	return nil
}

func (r *RedisStore) ClearKeepingSetting(ctx context.Context, sessionID, name string, value int) error {
	s := New()
	if err := s.applySetting(name, value); err != nil {
		return err
	}

	return r.Save(ctx, sessionID, s)
}
