package session

import "context"

// Store persists per-session key/value state.
//
// Get returns (nil, nil) when the session or key does not exist.
// Set with a nil value deletes the key. Implementations must make each Get and
// Set atomic per key and be safe for concurrent use; callers do not lock.
//
// Backends that serialize values (file, Redis, Postgres) store them as JSON, so a
// value read back has its JSON shape: numbers become float64, objects map[string]any.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (any, error)
	Set(ctx context.Context, sessionID, key string, value any) error
}

// Cleaner is implemented by stores that can purge expired sessions.
type Cleaner interface {
	// DeleteExpired removes all expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// ValidID reports whether id is usable as a session identifier:
// 1 to 128 characters from [A-Za-z0-9_-].
func ValidID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
