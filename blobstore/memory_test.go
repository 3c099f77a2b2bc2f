package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	_, err := store.Open(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)

	_, ok := store.Get("a")
	assert.False(t, ok)

	require.NoError(t, w.Close())

	size, err := store.Stat(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	w, err = store.Create(ctx, "b")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	assert.Equal(t, []string{"a"}, store.Names())
}
