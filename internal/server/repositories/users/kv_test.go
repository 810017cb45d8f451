package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/server/kv"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*KVRepository, kv.Store) {
	t.Helper()
	store, err := kv.NewBuntStore(":memory:", "users_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	r := NewKVRepository(store)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r, store
}

func TestCreate_NormalizesAndStores(t *testing.T) {
	r, store := newRepo(t)
	ctx := context.Background()

	u, err := r.Create(ctx, &models.User{Username: " Alice ", FamilyID: "f1", FamilyName: "Smiths", Password: "s$h"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.EntityUser, u.EntityType)

	_, err = store.Get(ctx, "UN#alice", "UN#alice")
	require.NoError(t, err)

	got, err := r.GetUserByLogin(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "f1", got.FamilyID)
	assert.Equal(t, "Smiths", got.FamilyName)
	assert.Equal(t, "s$h", got.Password)
	assert.Nil(t, got.LastLoginAt)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, &models.User{Username: "bob", Password: "a$b"})
	require.NoError(t, err)

	_, err = r.Create(ctx, &models.User{Username: "BOB", Password: "c$d"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := r.GetUserByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "a$b", got.Password)
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	r, _ := newRepo(t)
	_, err := r.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTouchLastLogin(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, &models.User{Username: "carol", FamilyID: "f1", Password: "a$b"})
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, r.TouchLastLogin(ctx, "Carol", at))

	got, err := r.GetUserByLogin(ctx, "carol")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(*got.LastLoginAt))
	assert.Equal(t, "f1", got.FamilyID)

	assert.ErrorIs(t, r.TouchLastLogin(ctx, "ghost", at), common.ErrorNotFound)
}

func TestUpdatePassword_TouchesOnlyCredential(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()

	_, err := r.Create(ctx, &models.User{Username: "dave", FamilyID: "f1", FamilyName: "Smiths", Password: "old$old"})
	require.NoError(t, err)

	require.NoError(t, r.UpdatePassword(ctx, "dave", "new$new"))

	got, err := r.GetUserByLogin(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, "new$new", got.Password)
	assert.Equal(t, "Smiths", got.FamilyName)

	assert.ErrorIs(t, r.UpdatePassword(ctx, "ghost", "x$y"), common.ErrorNotFound)
}
