package dispatch

import (
	"context"
	"maps"
)

// flashKey is the session key holding the flash generation written by the previous request.
const flashKey = "_flash"

// flashStore holds the two flash generations of one dispatch: old was written
// by the previous request and is consumed by reads, new is written now and
// becomes the next request's old.
type flashStore struct {
	loaded bool
	old    map[string]any
	new    map[string]any
}

func newFlashStore() *flashStore {
	return &flashStore{
		old: make(map[string]any),
		new: make(map[string]any),
	}
}

// load reads the previous generation once. A missing session means an empty generation.
func (f *flashStore) load(ctx context.Context, c *Context) error {
	if f.loaded {
		return nil
	}
	f.loaded = true

	sid := c.SessionID()
	if sid == "" || c.d.store == nil {
		return nil
	}

	v, err := c.d.store.Get(ctx, sid, flashKey)
	if err != nil {
		return err
	}
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			// now-writes made before the load take precedence
			if _, exists := f.old[k]; !exists {
				f.old[k] = val
			}
		}
	}
	return nil
}

// take returns and removes key from the old generation.
func (f *flashStore) take(key string) any {
	v, ok := f.old[key]
	if !ok {
		return nil
	}
	delete(f.old, key)
	return v
}

// persist writes the new generation for the next request, or clears the stored
// generation when nothing was flashed. Old values are never carried over.
func (f *flashStore) persist(ctx context.Context, c *Context) error {
	if c.d.store == nil {
		return nil
	}

	if len(f.new) == 0 {
		sid := c.SessionID()
		if sid == "" {
			return nil
		}
		return c.d.store.Set(ctx, sid, flashKey, nil)
	}

	sid, err := c.ensureSession()
	if err != nil {
		return err
	}
	return c.d.store.Set(ctx, sid, flashKey, maps.Clone(f.new))
}
