package families

import (
	"context"

	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string) (*models.Family, error)
	Get(ctx context.Context, id string) (*models.Family, error)
}
