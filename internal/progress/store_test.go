package progress_test

import (
	"path/filepath"
	"testing"

	"steam_sheet_enrich/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*progress.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress.json")
	return progress.NewStore(path), path
}

func TestLoadWithoutCursor(t *testing.T) {
	store, _ := newStore(t)

	_, ok, err := store.Load(progress.KindOwnership)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommitAndLoad(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Start(progress.KindOwnership, "sheet-A"))
	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 0))
	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 1))
	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 2))

	cursor, ok, err := store.Load(progress.KindOwnership)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sheet-A", cursor.SheetID)
	assert.Equal(t, 2, cursor.LastRow)
}

func TestCommitIsMonotonic(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 7))
	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 3))

	cursor, ok, err := store.Load(progress.KindOwnership)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, cursor.LastRow, "out-of-order lower commit must be ignored")
}

func TestCursorSurvivesRestart(t *testing.T) {
	store, path := newStore(t)

	require.NoError(t, store.Start(progress.KindReputation, "sheet-A"))
	require.NoError(t, store.Commit(progress.KindReputation, "sheet-A", 4))

	// A fresh Store over the same file stands in for a process restart.
	reopened := progress.NewStore(path)
	cursor, ok, err := reopened.Load(progress.KindReputation)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, cursor.LastRow)
}

func TestStartClearsPreviousCursor(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 9))
	require.NoError(t, store.Start(progress.KindOwnership, "sheet-B"))

	_, ok, err := store.Load(progress.KindOwnership)
	require.NoError(t, err)
	assert.False(t, ok, "Start must not leave counting state behind")
}

func TestKindsAreIndependent(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 5))
	require.NoError(t, store.Commit(progress.KindReputation, "sheet-A", 11))
	require.NoError(t, store.Clear(progress.KindOwnership))

	_, ok, err := store.Load(progress.KindOwnership)
	require.NoError(t, err)
	assert.False(t, ok)

	cursor, ok, err := store.Load(progress.KindReputation)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 11, cursor.LastRow)
}

func TestRebindKeepsRowPosition(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Commit(progress.KindOwnership, "sheet-A", 6))
	require.NoError(t, store.Rebind(progress.KindOwnership, "sheet-B"))

	cursor, ok, err := store.Load(progress.KindOwnership)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sheet-B", cursor.SheetID)
	assert.Equal(t, 6, cursor.LastRow)
}

func TestRebindWithoutCursorFails(t *testing.T) {
	store, _ := newStore(t)
	assert.Error(t, store.Rebind(progress.KindOwnership, "sheet-B"))
}
