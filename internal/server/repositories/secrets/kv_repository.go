// Package secrets persists signing key material: one private key record in a
// fixed slot and an append-only set of public key records tagged by key id.
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/server/kv"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
)

type KVRepository struct {
	store kv.Store
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store}
}

func keyPairItems(private *models.PrivateKey, public *models.PublicKey) (kv.Item, kv.Item, error) {
	private.EntityType = models.EntitySecret
	public.EntityType = models.EntitySecret

	priv, err := kv.NewItem(models.SecretPK, models.PrivateKeySK, private)
	if err != nil {
		return kv.Item{}, kv.Item{}, err
	}
	pub, err := kv.NewItem(models.SecretPK, models.PublicKeySK(public.ID), public)
	if err != nil {
		return kv.Item{}, kv.Item{}, err
	}
	return priv, pub, nil
}

// SaveKeyPair writes both records in one batch. The private slot is
// overwritten; the public record is added next to the existing ones.
func (r *KVRepository) SaveKeyPair(ctx context.Context, private *models.PrivateKey, public *models.PublicKey) error {
	priv, pub, err := keyPairItems(private, public)
	if err != nil {
		return err
	}

	if err := r.store.BatchPut(ctx, priv, pub); err != nil {
		return fmt.Errorf("save key pair: %w", err)
	}
	return nil
}

// CreateKeyPair stores the pair only while the private slot is empty and
// returns common.ErrorAlreadyExists otherwise. The public record goes first,
// so a private key is never readable without its public half. A lost race
// leaves an extra public key that nothing signs with.
func (r *KVRepository) CreateKeyPair(ctx context.Context, private *models.PrivateKey, public *models.PublicKey) error {
	priv, pub, err := keyPairItems(private, public)
	if err != nil {
		return err
	}

	if err := r.store.Put(ctx, pub); err != nil {
		return fmt.Errorf("save public key: %w", err)
	}
	if err := r.store.Create(ctx, priv); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return err
		}
		return fmt.Errorf("save private key: %w", err)
	}
	return nil
}

// GetPrivate returns common.ErrorNotFound when no key was ever created.
func (r *KVRepository) GetPrivate(ctx context.Context) (*models.PrivateKey, error) {
	item, err := r.store.Get(ctx, models.SecretPK, models.PrivateKeySK)
	if err != nil {
		return nil, err
	}

	k := &models.PrivateKey{}
	if err := item.Decode(k); err != nil {
		return nil, err
	}
	return k, nil
}

// ListPublic returns every public key; the order carries no meaning.
func (r *KVRepository) ListPublic(ctx context.Context) ([]models.PublicKey, error) {
	items, err := kv.QueryAll(ctx, r.store, models.SecretPK, models.PublicKeySKPrefix)
	if err != nil {
		return nil, err
	}

	keys := make([]models.PublicKey, 0, len(items))
	for _, it := range items {
		var k models.PublicKey
		if err := it.Decode(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
