package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatch/core/session"
)

// SessionStore keeps each session in a Redis hash. Values are JSON encoded,
// so numbers come back as float64 and structs as maps.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithPrefix sets the key prefix for session hashes.
func WithPrefix(prefix string) SessionOption {
	return func(s *SessionStore) {
		s.prefix = prefix
	}
}

// WithTTL sets the idle lifetime of a session. Every write extends it.
func WithTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) {
		s.ttl = ttl
	}
}

// NewSessionStore creates a session store on client.
func NewSessionStore(client redis.UniversalClient, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		client: client,
		prefix: "dispatch:session:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionStoreFromConfig creates a session store using cfg's prefix and TTL.
func NewSessionStoreFromConfig(client redis.UniversalClient, cfg Config) *SessionStore {
	opts := []SessionOption{}
	if cfg.SessionPrefix != "" {
		opts = append(opts, WithPrefix(cfg.SessionPrefix))
	}
	if cfg.SessionTTL > 0 {
		opts = append(opts, WithTTL(cfg.SessionTTL))
	}
	return NewSessionStore(client, opts...)
}

func (s *SessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Get returns the value stored under key, or nil.
func (s *SessionStore) Get(ctx context.Context, sessionID, key string) (any, error) {
	if !session.ValidID(sessionID) {
		return nil, session.ErrInvalidID
	}

	raw, err := s.client.HGet(ctx, s.key(sessionID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Join(session.ErrDecodeValue, err)
	}
	return v, nil
}

// Set stores value under key and extends the session TTL. A nil value deletes key;
// Redis drops the hash once its last field is gone.
func (s *SessionStore) Set(ctx context.Context, sessionID, key string, value any) error {
	if !session.ValidID(sessionID) {
		return session.ErrInvalidID
	}

	k := s.key(sessionID)
	if value == nil {
		if err := s.client.HDel(ctx, k, key).Err(); err != nil {
			return errors.Join(session.ErrSaveSession, err)
		}
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Join(session.ErrEncodeValue, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, key, raw)
		if s.ttl > 0 {
			pipe.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(session.ErrSaveSession, fmt.Errorf("session %s: %w", sessionID, err))
	}
	return nil
}
