package recipes

import (
	"context"

	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
)

// Page is one slice of a family's recipes. NextCursor is empty on the last page.
type Page struct {
	Recipes    []models.Recipe `json:"recipes"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	List(ctx context.Context, familyID string, limit int, cursor string) (*Page, error)
}
