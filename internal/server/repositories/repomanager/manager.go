package repomanager

import (
	"context"

	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/families"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Users() users.Repository
	Families() families.Repository
	Secrets() secrets.Repository
	Recipes() recipes.Repository
	Close() error
}
