// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nikokadi/kadi/internal/kadi"
)

// DefaultQueueName is the Redis list (queue) name for move audit records.
var DefaultQueueName = "kadi_moves"

// DefaultTTL is how long a user→room mapping survives without activity.
// Refreshed on every accepted operation.
var DefaultTTL = 2 * time.Hour

// ErrNoActiveRoom is returned when a user has no live session entry.
var ErrNoActiveRoom = errors.New("no active room for user")

// Store maps users to their active room and publishes the move audit queue.
// It is the collaborator-side home for the "which room is this user in"
// lookup; the core never consults it.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect initializes the Redis client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func Connect(ctx context.Context) (*Store, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Store{rdb: rdb, ttl: DefaultTTL}, nil
}

func sessionKey(userID string) string {
	return "kadi:session:" + userID
}

// SetActiveRoom records that userID is playing in roomID, refreshing the TTL.
func (s *Store) SetActiveRoom(ctx context.Context, userID string, roomID uuid.UUID) error {
	if err := s.rdb.Set(ctx, sessionKey(userID), roomID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("set session for %s: %w", userID, err)
	}
	return nil
}

// GetActiveRoom returns the room the user is currently mapped to.
func (s *Store) GetActiveRoom(ctx context.Context, userID string) (uuid.UUID, error) {
	val, err := s.rdb.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNoActiveRoom
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("get session for %s: %w", userID, err)
	}
	roomID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session for %s: %w", userID, err)
	}
	return roomID, nil
}

// ClearActiveRoom drops the user's mapping, typically on termination.
func (s *Store) ClearActiveRoom(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session for %s: %w", userID, err)
	}
	return nil
}

// RecordMove serializes the record to JSON and pushes it onto the audit
// queue for an out-of-process consumer. Does not block game processing
// beyond the network send.
func (s *Store) RecordMove(ctx context.Context, rec kadi.MoveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal MoveRecord: %w", err)
	}
	queueName := getEnv("KADI_AUDIT_QUEUE", DefaultQueueName)
	if err := s.rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
