package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/server/kv"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/google/uuid"
)

type KVRepository struct {
	store kv.Store
	now   func() time.Time
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store, now: time.Now}
}

// Create stores a new user under its normalized username. A taken username
// yields common.ErrorAlreadyExists.
func (r *KVRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := r.now().UTC()

	user.Username = models.NormalizeUsername(user.Username)
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.EntityType = models.EntityUser
	user.CreatedAt = now
	user.UpdatedAt = now

	key := models.UserKey(user.Username)
	item, err := kv.NewItem(key, key, user)
	if err != nil {
		return nil, err
	}

	if err := r.store.Create(ctx, item); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (r *KVRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	key := models.UserKey(login)

	item, err := r.store.Get(ctx, key, key)
	if err != nil {
		return nil, err
	}

	user := &models.User{}
	if err := item.Decode(user); err != nil {
		return nil, err
	}
	return user, nil
}

// TouchLastLogin updates only the login timestamps; concurrent writers of
// other fields are not overwritten.
func (r *KVRepository) TouchLastLogin(ctx context.Context, login string, at time.Time) error {
	key := models.UserKey(login)
	at = at.UTC()
	return r.store.Patch(ctx, key, key, map[string]any{
		"lastLoginAt": at,
		"updatedAt":   at,
	})
}

// UpdatePassword replaces the stored "salt$hash" credential and nothing else.
func (r *KVRepository) UpdatePassword(ctx context.Context, login string, credential string) error {
	key := models.UserKey(login)
	return r.store.Patch(ctx, key, key, map[string]any{
		"password":  credential,
		"updatedAt": r.now().UTC(),
	})
}
