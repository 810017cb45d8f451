package secrets

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

func newRepo(t *testing.T) *KVRepository {
	t.Helper()
	store, err := kv.NewBuntStore(":memory:", "secrets_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewKVRepository(store)
}

func pair(id string) (*models.PrivateKey, *models.PublicKey) {
	now := time.Now().UTC()
	return &models.PrivateKey{ID: id, Name: models.PrivateKeyName, Secret: "priv-" + id, CreatedAt: now, UpdatedAt: now},
		&models.PublicKey{ID: id, Name: models.PublicKeyName, Secret: "pub-" + id, CreatedAt: now, UpdatedAt: now}
}

func TestEmptyStore(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	_, err := r.GetPrivate(ctx)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	keys, err := r.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSaveKeyPair(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	priv, pub := pair("k1")
	require.NoError(t, r.SaveKeyPair(ctx, priv, pub))

	got, err := r.GetPrivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID)
	assert.Equal(t, "priv-k1", got.Secret)
	assert.Equal(t, models.EntitySecret, got.EntityType)

	keys, err := r.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "pub-k1", keys[0].Secret)
}

func TestSaveKeyPair_OverwritesPrivateAppendsPublic(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	priv1, pub1 := pair("k1")
	require.NoError(t, r.SaveKeyPair(ctx, priv1, pub1))
	priv2, pub2 := pair("k2")
	require.NoError(t, r.SaveKeyPair(ctx, priv2, pub2))

	got, err := r.GetPrivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k2", got.ID)

	keys, err := r.ListPublic(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, k := range keys {
		ids = append(ids, k.ID)
	}
	assert.ElementsMatch(t, []string{"k1", "k2"}, ids)
}

func TestCreateKeyPair_KeepsExistingPrivate(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	priv1, pub1 := pair("k1")
	require.NoError(t, r.CreateKeyPair(ctx, priv1, pub1))

	priv2, pub2 := pair("k2")
	err := r.CreateKeyPair(ctx, priv2, pub2)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err := r.GetPrivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID)
	assert.Equal(t, "priv-k1", got.Secret)
}
