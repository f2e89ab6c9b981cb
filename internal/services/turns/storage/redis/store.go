// Package redis provides the Redis-backed quest-completion cache, used
// when multiple turn-engine instances must share cooldown memory.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "riftholm:quest_completion:"

// Store provides Redis-backed persistence for quest completions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a completion record is retained. Zero keeps
	// records indefinitely.
	TTL time.Duration
}

// NewStore builds a store against the configured Redis instance.
func NewStore(cfg Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client, ttl: cfg.TTL}
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// GetQuestCompletion returns the character's last completion timestamp.
func (s *Store) GetQuestCompletion(ctx context.Context, characterID string) (time.Time, bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+characterID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get quest completion: %w", err)
	}

	completedAt, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse quest completion %q: %w", value, err)
	}
	return completedAt, true, nil
}

// StoreQuestCompletion records a completion for the character.
func (s *Store) StoreQuestCompletion(ctx context.Context, characterID string, completedAt time.Time) error {
	value := completedAt.UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, keyPrefix+characterID, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("store quest completion: %w", err)
	}
	return nil
}
