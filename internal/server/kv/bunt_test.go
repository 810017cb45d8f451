package kv

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBunt(t *testing.T) *BuntStore {
	t.Helper()
	s, err := NewBuntStore(":memory:", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustItem(t *testing.T, pk, sk string, v any) Item {
	t.Helper()
	it, err := NewItem(pk, sk, v)
	require.NoError(t, err)
	return it
}

type doc struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func TestBunt_PutGet(t *testing.T) {
	s := newBunt(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, mustItem(t, "P", "S", doc{Name: "a"})))

	it, err := s.Get(ctx, "P", "S")
	require.NoError(t, err)
	var d doc
	require.NoError(t, it.Decode(&d))
	assert.Equal(t, "a", d.Name)

	_, err = s.Get(ctx, "P", "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestBunt_Create_Conflict(t *testing.T) {
	s := newBunt(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, mustItem(t, "P", "S", doc{Name: "first"})))
	err := s.Create(ctx, mustItem(t, "P", "S", doc{Name: "second"}))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	it, err := s.Get(ctx, "P", "S")
	require.NoError(t, err)
	var d doc
	require.NoError(t, it.Decode(&d))
	assert.Equal(t, "first", d.Name)
}

func TestBunt_Patch_OnlyTouchesGivenFields(t *testing.T) {
	s := newBunt(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, mustItem(t, "P", "S", doc{Name: "a", Color: "red"})))
	require.NoError(t, s.Patch(ctx, "P", "S", map[string]any{"color": "blue"}))

	it, err := s.Get(ctx, "P", "S")
	require.NoError(t, err)
	var d doc
	require.NoError(t, it.Decode(&d))
	assert.Equal(t, doc{Name: "a", Color: "blue"}, d)

	err = s.Patch(ctx, "P", "nope", map[string]any{"color": "x"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestBunt_Query_PrefixOrderAndPaging(t *testing.T) {
	s := newBunt(t)
	ctx := context.Background()

	for i := 5; i >= 1; i-- {
		require.NoError(t, s.Put(ctx, mustItem(t, "F#1", fmt.Sprintf("R#%d", i), doc{Name: fmt.Sprint(i)})))
	}
	require.NoError(t, s.Put(ctx, mustItem(t, "F#1", "FN#Smiths", doc{Name: "family"})))
	require.NoError(t, s.Put(ctx, mustItem(t, "F#10", "R#9", doc{Name: "other family"})))

	page, err := s.Query(ctx, Query{PK: "F#1", SKPrefix: "R#", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "R#1", page.Items[0].SK)
	assert.Equal(t, "R#2", page.Items[1].SK)
	assert.Equal(t, "R#2", page.LastSK)

	page, err = s.Query(ctx, Query{PK: "F#1", SKPrefix: "R#", Limit: 2, StartAfter: page.LastSK})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "R#3", page.Items[0].SK)

	page, err = s.Query(ctx, Query{PK: "F#1", SKPrefix: "R#", Limit: 2, StartAfter: page.LastSK})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "R#5", page.Items[0].SK)
	assert.Empty(t, page.LastSK)

	all, err := QueryAll(ctx, s, "F#1", "R#")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBunt_Query_ExactLimitHasNoNextPage(t *testing.T) {
	s := newBunt(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, mustItem(t, "P", "A#1", doc{})))
	require.NoError(t, s.Put(ctx, mustItem(t, "P", "A#2", doc{})))

	page, err := s.Query(ctx, Query{PK: "P", SKPrefix: "A#", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.LastSK)
}

func TestBunt_BatchPut(t *testing.T) {
	s := newBunt(t)
	ctx := context.Background()

	require.NoError(t, s.BatchPut(ctx,
		mustItem(t, "S#PEM", "S#PRIVATE", doc{Name: "priv"}),
		mustItem(t, "S#PEM", "S#PUBLIC#k1", doc{Name: "pub"}),
	))

	all, err := QueryAll(ctx, s, "S#PEM", "S#")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.NoError(t, s.Ping(ctx))
}

func TestBunt_TablesAreIsolated(t *testing.T) {
	a := newBunt(t)
	ctx := context.Background()
	require.NoError(t, a.Put(ctx, mustItem(t, "P", "S", doc{Name: "a"})))

	b := &BuntStore{db: a.db, table: "other"}
	_, err := b.Get(ctx, "P", "S")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
