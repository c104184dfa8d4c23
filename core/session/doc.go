// Package session provides key/value session stores for the dispatch engine.
//
// A session is an opaque identifier mapped to a set of keys. The Store interface
// is deliberately small: Get returns (nil, nil) for anything missing and Set with a
// nil value deletes. Stores are shared by concurrent dispatches and synchronize
// internally.
//
// # Backends
//
//   - MemoryStore: process-local map, values stored as-is
//   - FileStore: one JSON file per session in a directory
//   - Redis and Postgres stores live in integration/database/redis and
//     integration/database/pg
//
// Serializing backends round-trip values through JSON, so numbers come back as
// float64 and structs as map[string]any.
//
// # Usage
//
//	store := session.NewMemoryStore(session.WithTTL(2 * time.Hour))
//
//	if err := store.Set(ctx, sid, "user", "ada"); err != nil {
//		return err
//	}
//	v, err := store.Get(ctx, sid, "user") // "ada"
//
// # Expiration
//
// Every write extends the session TTL. Stores implementing Cleaner can purge
// expired sessions in bulk:
//
//	if c, ok := store.(session.Cleaner); ok {
//		n, err := c.DeleteExpired(ctx)
//	}
package session
