package families

import (
	"context"
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

// Create stores a family under a freshly generated id.
func (r *KVRepository) Create(ctx context.Context, name string) (*models.Family, error) {
	now := r.now().UTC()
	f := &models.Family{
		ID:         uuid.NewString(),
		Name:       name,
		EntityType: models.EntityFamily,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	item, err := kv.NewItem(models.FamilyPK(f.ID), models.FamilySK(f.Name), f)
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}
	return f, nil
}

// Get finds the family record by id. The sort key embeds the name, so the
// lookup is a prefix query on the family partition.
func (r *KVRepository) Get(ctx context.Context, id string) (*models.Family, error) {
	page, err := r.store.Query(ctx, kv.Query{
		PK:       models.FamilyPK(id),
		SKPrefix: models.FamilyNameSKPrefix,
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, common.ErrorNotFound
	}

	f := &models.Family{}
	if err := page.Items[0].Decode(f); err != nil {
		return nil, err
	}
	return f, nil
}
