package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabcli/internal/dataset"
)

func newTable(t *testing.T) *dataset.Table {
	t.Helper()
	table := dataset.NewTable("a")
	require.NoError(t, table.AppendRow([]dataset.Cell{dataset.Number(1)}))
	return table
}

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(time.Hour, 10)
	table := newTable(t)

	sess := store.Create(Meta{Filename: "data.csv", SizeBytes: 42}, table)
	require.NotEmpty(t, sess.ID)
	assert.False(t, sess.Meta.UploadedAt.IsZero())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "data.csv", got.Meta.Filename)
	assert.Same(t, table, got.Raw)
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore(time.Hour, 10)

	_, err := store.Get("missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSetCleaned(t *testing.T) {
	store := NewStore(time.Hour, 10)
	sess := store.Create(Meta{Filename: "data.csv"}, newTable(t))

	cleaned := newTable(t)
	require.NoError(t, store.SetCleaned(sess.ID, cleaned))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, cleaned, got.Cleaned)
	assert.Same(t, cleaned, got.Current())
	assert.False(t, got.Meta.CleanedAt.IsZero())

	assert.ErrorIs(t, store.SetCleaned("missing-id", cleaned), ErrNotFound)
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	store := NewStore(time.Hour, 10)
	sess := store.Create(Meta{Filename: "data.csv"}, newTable(t))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	require.Nil(t, got.Cleaned)

	cleaned := newTable(t)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = got.Current()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = store.SetCleaned(sess.ID, cleaned)
		}
	}()
	wg.Wait()

	// The snapshot reflects the state at Get time; the write is visible
	// only through a fresh Get.
	assert.Nil(t, got.Cleaned)

	fresh, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, cleaned, fresh.Cleaned)
}

func TestSessionCurrentFallsBackToRaw(t *testing.T) {
	raw := newTable(t)
	sess := &Session{Raw: raw}
	assert.Same(t, raw, sess.Current())
}

func TestStoreTTLExpiry(t *testing.T) {
	store := NewStore(time.Minute, 10)
	now := time.Now()
	store.now = func() time.Time { return now }

	sess := store.Create(Meta{Filename: "data.csv"}, newTable(t))

	_, err := store.Get(sess.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.Len())
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	store := NewStore(time.Hour, 2)
	now := time.Now()
	store.now = func() time.Time { return now }

	first := store.Create(Meta{Filename: "first.csv"}, newTable(t))
	now = now.Add(time.Second)
	second := store.Create(Meta{Filename: "second.csv"}, newTable(t))
	now = now.Add(time.Second)
	third := store.Create(Meta{Filename: "third.csv"}, newTable(t))

	_, err := store.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(second.ID)
	assert.NoError(t, err)
	_, err = store.Get(third.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(time.Hour, 10)
	sess := store.Create(Meta{Filename: "data.csv"}, newTable(t))

	store.Delete(sess.ID)
	_, err := store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
