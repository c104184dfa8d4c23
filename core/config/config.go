package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (a value of that type)
	loadMu     sync.Mutex
)

// Load parses environment variables into cfg. The first call for a type parses
// the environment and caches the result; later calls for the same type copy the
// cached value. A .env file in the working directory is loaded once, without
// overriding variables already set.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target for %T", cfg)
	}

	t := reflect.TypeFor[T]()
	if v, ok := cache.Load(t); ok {
		*cfg = v.(T)
		return nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	// Re-check under lock
	if v, ok := cache.Load(t); ok {
		*cfg = v.(T)
		return nil
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", t, err)
	}

	cache.Store(t, parsed)
	*cfg = parsed
	return nil
}

// MustLoad is Load that panics on error. Intended for startup code.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset clears the cache. Tests use it to reload a type after changing the environment.
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	cache.Range(func(k, _ any) bool {
		cache.Delete(k)
		return true
	})
}
