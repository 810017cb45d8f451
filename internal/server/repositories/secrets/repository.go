package secrets

import (
	"context"

	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
)

type Repository interface {
	SaveKeyPair(ctx context.Context, private *models.PrivateKey, public *models.PublicKey) error
	CreateKeyPair(ctx context.Context, private *models.PrivateKey, public *models.PublicKey) error
	GetPrivate(ctx context.Context) (*models.PrivateKey, error)
	ListPublic(ctx context.Context) ([]models.PublicKey, error)
}
