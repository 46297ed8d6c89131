package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRecordAndGet(t *testing.T) {
	c := openTemp(t)

	created := time.Date(2021, 6, 1, 12, 0, 0, 42, time.UTC)
	id, err := c.Record(Entry{
		Created:      created,
		Kind:         KindGrid,
		Seed:         -17,
		InvaderWidth: 7,
		InvaderCount: 4,
		PictureWidth: 256,
		Scale:        7,
		MaxAttempts:  1000,
		Palette:      "fixed",
		Background:   "#201616",
		Detail:       "#323232",
		LUT:          "default",
		Path:         "output/Example-7x7-4-7-20210601-120000.000.png",
	})
	require.NoError(t, err)

	e, err := c.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.True(t, created.Equal(e.Created))
	assert.Equal(t, KindGrid, e.Kind)
	assert.Equal(t, int64(-17), e.Seed)
	assert.Equal(t, 4, e.InvaderCount)
	assert.Equal(t, 1000, e.MaxAttempts)
	assert.Equal(t, "fixed", e.Palette)
	assert.Equal(t, "#201616", e.Background)
	assert.Equal(t, "default", e.LUT)
}

func TestGetMissing(t *testing.T) {
	c := openTemp(t)

	_, err := c.Get(12345)
	assert.Equal(t, ErrNotFound, err)
}

func TestRecordInvalidKind(t *testing.T) {
	c := openTemp(t)

	_, err := c.Record(Entry{Kind: "mosaic"})
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	c := openTemp(t)

	for seed := int64(1); seed <= 5; seed++ {
		_, err := c.Record(Entry{Kind: KindSingle, Seed: seed})
		require.NoError(t, err)
	}

	all, err := c.List(0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, int64(5), all[0].Seed)
	assert.Equal(t, int64(1), all[4].Seed)
	assert.False(t, all[0].Created.IsZero())

	recent, err := c.List(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), recent[1].Seed)
}

func TestReopen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "catalog.db")

	c, err := Open(file)
	require.NoError(t, err)
	id, err := c.Record(Entry{Kind: KindSingle, Seed: 9})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(file)
	require.NoError(t, err)
	defer c.Close()

	e, err := c.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(9), e.Seed)
}
