package table

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "zones.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "zones.db"))
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	db := openTemp(t)

	require.NoError(t, db.Create("zones"))
	require.NoError(t, db.Create("zones"), "create must be idempotent")

	assert.Error(t, db.Create(""))
	assert.Error(t, db.Create("meta"))
}

func TestInsertSelectDelete(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.Create("zones"))

	_, ok, err := db.Select("zones", []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Insert("zones", []byte("k"), []byte("v1")))
	require.NoError(t, db.Insert("zones", []byte("k"), []byte("v2")))

	v, ok, err := db.Select("zones", []byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, db.Delete("zones", []byte("k")))
	require.NoError(t, db.Delete("zones", []byte("k")))
	_, ok, err = db.Select("zones", []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingTable(t *testing.T) {
	db := openTemp(t)

	assert.ErrorIs(t, db.Insert("nope", []byte("k"), []byte("v")), ErrNoTable)
	_, _, err := db.Select("nope", []byte("k"))
	assert.ErrorIs(t, err, ErrNoTable)
	assert.ErrorIs(t, db.Delete("nope", []byte("k")), ErrNoTable)
	assert.ErrorIs(t, db.Fold("nope", func(_, _ []byte) error { return nil }), ErrNoTable)
	_, err = db.Len("nope")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestFold(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.Create("zones"))
	require.NoError(t, db.InsertMany("zones", map[string][]byte{
		"b": []byte("2"),
		"a": []byte("1"),
		"c": []byte("3"),
	}))

	var keys []string
	require.NoError(t, db.Fold("zones", func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	n, err := db.Len("zones")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stop := errors.New("stop")
	calls := 0
	err = db.Fold("zones", func(_, _ []byte) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestTouchUpdated(t *testing.T) {
	db := openTemp(t)

	got, err := db.Updated("zones")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	at := time.Date(2025, 8, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, db.Touch("zones", at))
	got, err = db.Updated("zones")
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Create("zones"))
	require.NoError(t, db.Insert("zones", []byte("k"), []byte("v")))
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.Select("zones", []byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
