package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	TouchLastLogin(ctx context.Context, login string, at time.Time) error
	UpdatePassword(ctx context.Context, login string, credential string) error
}
