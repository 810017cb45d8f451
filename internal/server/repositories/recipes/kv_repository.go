package recipes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/server/kv"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/google/uuid"
)

// cursorKey is the last key of a page, opaque to clients.
type cursorKey struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

func encodeCursor(pk, sk string) string {
	b, _ := json.Marshal(cursorKey{PK: pk, SK: sk})
	return base64.StdEncoding.EncodeToString(b)
}

// decodeCursor returns "" for anything that is not a cursor of this
// partition, which restarts the listing from the beginning.
func decodeCursor(cursor, pk string) string {
	if cursor == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return ""
	}
	var k cursorKey
	if err := json.Unmarshal(b, &k); err != nil || k.PK != pk {
		return ""
	}
	return k.SK
}

type KVRepository struct {
	store kv.Store
	now   func() time.Time
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store, now: time.Now}
}

// Create stores the recipe in its family's partition. Ids are UUIDv7, so
// the sort key order is creation order.
func (r *KVRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()

	recipe.ID = id.String()
	recipe.EntityType = models.EntityRecipe
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	item, err := kv.NewItem(models.FamilyPK(recipe.FamilyID), models.RecipeSK(recipe.ID), recipe)
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return recipe, nil
}

func (r *KVRepository) List(ctx context.Context, familyID string, limit int, cursor string) (*Page, error) {
	pk := models.FamilyPK(familyID)

	res, err := r.store.Query(ctx, kv.Query{
		PK:         pk,
		SKPrefix:   models.RecipeSKPrefix,
		StartAfter: decodeCursor(cursor, pk),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	page := &Page{Recipes: make([]models.Recipe, 0, len(res.Items))}
	for _, it := range res.Items {
		var rec models.Recipe
		if err := it.Decode(&rec); err != nil {
			return nil, err
		}
		page.Recipes = append(page.Recipes, rec)
	}
	if res.LastSK != "" {
		page.NextCursor = encodeCursor(pk, res.LastSK)
	}
	return page, nil
}
