package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/arshmeetsingh/lego-collection/internal/models"
)

// SessionKeyPrefix is the Redis key prefix for sessions
const SessionKeyPrefix = "session:"

// SessionBackend is the subset of the Redis client used for sessions.
type SessionBackend interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SessionStore keeps logged-in users in Redis under an opaque token.
// A session lives for duration and is extended by activeDuration whenever it
// is used with less than activeDuration left.
type SessionStore struct {
	backend        SessionBackend
	duration       time.Duration
	activeDuration time.Duration
}

func NewSessionStore(backend SessionBackend, duration, activeDuration time.Duration) *SessionStore {
	return &SessionStore{
		backend:        backend,
		duration:       duration,
		activeDuration: activeDuration,
	}
}

// Create stores user and returns the new session token.
func (s *SessionStore) Create(ctx context.Context, user models.SessionUser) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := s.backend.Set(ctx, SessionKeyPrefix+token, data, s.duration).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get returns the session user for token. An unknown or expired token is
// not an error.
func (s *SessionStore) Get(ctx context.Context, token string) (*models.SessionUser, bool, error) {
	if token == "" {
		return nil, false, nil
	}

	val, err := s.backend.Get(ctx, SessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var user models.SessionUser
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// Touch extends the session when it is about to expire.
func (s *SessionStore) Touch(ctx context.Context, token string) error {
	if token == "" || s.activeDuration <= 0 {
		return nil
	}

	key := SessionKeyPrefix + token
	ttl, err := s.backend.TTL(ctx, key).Result()
	if err != nil {
		return err
	}
	if ttl <= 0 || ttl >= s.activeDuration {
		return nil
	}
	return s.backend.Expire(ctx, key, ttl+s.activeDuration).Err()
}

// Destroy removes the session.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.backend.Del(ctx, SessionKeyPrefix+token).Err()
}
