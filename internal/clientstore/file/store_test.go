package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidascore/bidascore-go/internal/clientstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state.json"))
}

func TestPINRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetPIN(ctx, "room-1")
	assert.ErrorIs(t, err, clientstore.ErrNotFound)

	require.NoError(t, store.SavePIN(ctx, "room-1", "5555"))

	pin, err := store.GetPIN(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "5555", pin)
}

func TestDeletePINLeavesOtherRooms(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePIN(ctx, "room-1", "1111"))
	require.NoError(t, store.SavePIN(ctx, "room-2", "2222"))

	require.NoError(t, store.DeletePIN(ctx, "room-1"))

	_, err := store.GetPIN(ctx, "room-1")
	assert.ErrorIs(t, err, clientstore.ErrNotFound)

	pin, err := store.GetPIN(ctx, "room-2")
	require.NoError(t, err)
	assert.Equal(t, "2222", pin)
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	first := New(path)
	require.NoError(t, first.SavePIN(ctx, "room-1", "5555"))
	require.NoError(t, first.SaveGuestToken(ctx, "guest-abc"))

	second := New(path)
	pin, err := second.GetPIN(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, "5555", pin)

	token, err := second.GetGuestToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guest-abc", token)
}

func TestMissingFileReadsAsEmpty(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nested", "dir", "state.json"))
	ctx := context.Background()

	_, err := store.GetGuestToken(ctx)
	assert.ErrorIs(t, err, clientstore.ErrNotFound)

	// First write creates the parent directories.
	require.NoError(t, store.SaveGuestToken(ctx, "guest-abc"))
}
