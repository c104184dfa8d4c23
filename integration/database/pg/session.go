package pg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/dispatch/core/session"
)

const (
	sessionGetQuery = `SELECT value FROM dispatch_sessions
WHERE id = $1 AND key = $2 AND expires_at > now()`

	sessionDeleteQuery = `DELETE FROM dispatch_sessions WHERE id = $1 AND key = $2`

	sessionUpsertQuery = `INSERT INTO dispatch_sessions (id, key, value, expires_at)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (id, key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	sessionTouchQuery = `UPDATE dispatch_sessions SET expires_at = $2 WHERE id = $1`

	sessionDeleteExpiredQuery = `DELETE FROM dispatch_sessions WHERE expires_at <= now()`
)

// SessionStore keeps session values as JSONB rows in dispatch_sessions, one row
// per key. Run MigrateSessions before first use.
type SessionStore struct {
	db  querier
	ttl time.Duration
	now func() time.Time
}

// NewSessionStore creates a store on pool. A non-positive ttl defaults to 24h.
func NewSessionStore(pool *pgxpool.Pool, ttl time.Duration) *SessionStore {
	return newSessionStore(pool, ttl)
}

func newSessionStore(db querier, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{db: db, ttl: ttl, now: time.Now}
}

// Get returns the value stored under key, or nil when absent or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID, key string) (any, error) {
	if !session.ValidID(sessionID) {
		return nil, session.ErrInvalidID
	}

	var raw []byte
	err := conn(ctx, s.db).QueryRow(ctx, sessionGetQuery, sessionID, key).Scan(&raw)
	if IsNotFoundError(err) {
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

// Set stores value under key and extends the expiry of every key in the
// session. A nil value deletes key.
func (s *SessionStore) Set(ctx context.Context, sessionID, key string, value any) error {
	if !session.ValidID(sessionID) {
		return session.ErrInvalidID
	}

	if value == nil {
		if _, err := conn(ctx, s.db).Exec(ctx, sessionDeleteQuery, sessionID, key); err != nil {
			return errors.Join(session.ErrSaveSession, err)
		}
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Join(session.ErrEncodeValue, err)
	}

	expiresAt := s.now().Add(s.ttl)
	err = pgx.BeginFunc(ctx, conn(ctx, s.db), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sessionUpsertQuery, sessionID, key, string(raw), expiresAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, sessionTouchQuery, sessionID, expiresAt)
		return err
	})
	if err != nil {
		return errors.Join(session.ErrSaveSession, err)
	}
	return nil
}

// DeleteExpired removes expired rows and returns how many were deleted.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := conn(ctx, s.db).Exec(ctx, sessionDeleteExpiredQuery)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
