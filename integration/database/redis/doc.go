// Package redis provides Redis client initialization, health checking and a
// Redis-backed session store for the dispatcher.
//
// Connect parses the connection URL, creates a go-redis client and pings it
// with retries before returning:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  5 * time.Second,
//		ConnectTimeout: 30 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Healthcheck returns a function suitable for readiness probes:
//
//	d.Get("/ready", health.Readiness(log, redis.Healthcheck(client)))
//
// # Sessions
//
// SessionStore implements session.Store. Each session is a hash keyed by
// prefix + session id; every field holds one JSON encoded value and every write
// extends the hash TTL:
//
//	store := redis.NewSessionStore(client, redis.WithTTL(12*time.Hour))
//	d := dispatch.New(cfg, dispatch.WithStore(store))
//
// # Error Handling
//
//   - ErrFailedToParseRedisConnString: the connection URL is malformed
//   - ErrRedisNotReady: Redis did not answer within the retry budget
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrHealthcheckFailed: the health check ping failed
//
// The connection URL must use the redis:// or rediss:// (TLS) scheme.
package redis
