package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/session"
)

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("round trip through json", func(t *testing.T) {
		t.Parallel()
		store, err := session.NewFileStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "abc", "name", "ada"))
		require.NoError(t, store.Set(ctx, "abc", "n", 42))
		require.NoError(t, store.Set(ctx, "abc", "obj", map[string]any{"a": "b"}))

		v, err := store.Get(ctx, "abc", "name")
		require.NoError(t, err)
		assert.Equal(t, "ada", v)

		v, err = store.Get(ctx, "abc", "n")
		require.NoError(t, err)
		assert.Equal(t, float64(42), v)

		v, err = store.Get(ctx, "abc", "obj")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "b"}, v)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		t.Parallel()
		store, err := session.NewFileStore(t.TempDir())
		require.NoError(t, err)

		v, err := store.Get(ctx, "abc", "name")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("deleting last key removes file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		store, err := session.NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "abc", "k", "v"))
		_, err = os.Stat(filepath.Join(dir, "abc.json"))
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, "abc", "k", nil))
		_, err = os.Stat(filepath.Join(dir, "abc.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects invalid ids", func(t *testing.T) {
		t.Parallel()
		store, err := session.NewFileStore(t.TempDir())
		require.NoError(t, err)

		for _, id := range []string{"", "../etc", "a/b", "a.b"} {
			_, err := store.Get(ctx, id, "k")
			assert.ErrorIs(t, err, session.ErrInvalidID, id)
			assert.ErrorIs(t, store.Set(ctx, id, "k", "v"), session.ErrInvalidID, id)
		}
	})

	t.Run("unencodable value", func(t *testing.T) {
		t.Parallel()
		store, err := session.NewFileStore(t.TempDir())
		require.NoError(t, err)

		err = store.Set(ctx, "abc", "k", make(chan int))
		assert.ErrorIs(t, err, session.ErrEncodeValue)
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		store, err := session.NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json"), []byte("{"), 0o600))
		_, err = store.Get(ctx, "abc", "k")
		assert.ErrorIs(t, err, session.ErrDecodeValue)
	})
}

func TestFileStoreExpiration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := session.NewFileStore(dir, session.WithTTL(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "a", "k", "v"))
	require.NoError(t, store.Set(ctx, "b", "k", "v"))

	time.Sleep(40 * time.Millisecond)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	v, err := store.Get(ctx, "a", "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValidID(t *testing.T) {
	t.Parallel()

	assert.True(t, session.ValidID("6f1c0a4e-2b7d-4c1e-9f3a-0d2e5b8c7a91"))
	assert.True(t, session.ValidID("abc_DEF-123"))
	assert.False(t, session.ValidID(""))
	assert.False(t, session.ValidID("has space"))
	assert.False(t, session.ValidID(string(make([]byte, 129))))
}
