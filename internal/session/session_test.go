package session

import (
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()

	store, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGet_EmptyStoreReturnsNil(t *testing.T) {
	store := openTestStore(t)

	sess, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)

	want := Session{UserID: 42, Token: "s3cret", Volume: 65, Muted: true}
	require.NoError(t, store.Save(want))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestSave_Upserts(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Session{UserID: 1, Token: "old", Volume: 80}))
	require.NoError(t, store.Save(Session{UserID: 2, Token: "new", Volume: 50}))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.UserID)
	assert.Equal(t, "new", got.Token)
	assert.Equal(t, 50, got.Volume)
}

func TestSaveVolume(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Session{UserID: 42, Token: "s3cret", Volume: 80}))
	require.NoError(t, store.SaveVolume(30, true))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 30, got.Volume)
	assert.True(t, got.Muted)
	// Credentials must survive a volume-only write.
	assert.Equal(t, 42, got.UserID)
	assert.Equal(t, "s3cret", got.Token)
}

func TestClear(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Session{UserID: 42, Token: "s3cret"}))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	sess, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, sess)
}
