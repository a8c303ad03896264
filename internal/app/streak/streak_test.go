package streak

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIncrementsOnSuccess(t *testing.T) {
	table := map[string]Entry{}
	Record(table, "example.com", true, 100)
	Record(table, "example.com", true, 200)
	assert.Equal(t, 2, table["example.com"].Streak)
	assert.EqualValues(t, 200, table["example.com"].LastTest)
	assert.EqualValues(t, 200, table["example.com"].LastSuccess)
}

func TestRecordResetsOnFailure(t *testing.T) {
	table := map[string]Entry{"h": {Streak: 5, LastSuccess: 50}}
	Record(table, "h", false, 60)
	assert.Equal(t, 0, table["h"].Streak)
	assert.EqualValues(t, 50, table["h"].LastSuccess)
	assert.EqualValues(t, 60, table["h"].LastTest)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "streaks.json"))

	table := map[string]Entry{"h": {Streak: 3, LastTest: 10, LastSuccess: 10}}
	require.NoError(t, store.Save(table, false))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, table, loaded)
}

func TestSaveSkipsOnOutageGuard(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "streaks.json"))
	require.NoError(t, store.Save(map[string]Entry{"h": {Streak: 1}}, false))

	require.NoError(t, store.Save(map[string]Entry{}, true))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded["h"].Streak)
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "missing.json"))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
