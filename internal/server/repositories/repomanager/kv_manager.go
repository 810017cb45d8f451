// Package repomanager vends the repositories of one composite-key store and
// owns its lifecycle (migrations, health, close).
package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/server/config"
	"github.com/dmitrijs2005/familyrecipe/internal/server/kv"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/families"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/users"
)

// Migrator is implemented by stores that own a schema.
type Migrator interface {
	RunMigrations(ctx context.Context) error
}

// KVRepositoryManager builds every repository over the same store.
type KVRepositoryManager struct {
	store    kv.Store
	migrator Migrator
}

func NewKVRepositoryManager(store kv.Store, migrator Migrator) *KVRepositoryManager {
	return &KVRepositoryManager{store: store, migrator: migrator}
}

const retryInterval = 50 * time.Millisecond

// openStore is a seam for testing.
var openStore = func(cfg *config.Config) (kv.Store, Migrator, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := kv.OpenPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		s := kv.NewPostgresStore(db, cfg.TableName)
		return s, s, nil
	case config.BackendBunt:
		s, err := kv.NewBuntStore(cfg.BuntPath, cfg.TableName)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Open connects the configured backend and wraps it with read retries.
// notify may be nil.
func Open(cfg *config.Config, notify kv.RetryNotify) (*KVRepositoryManager, error) {
	store, migrator, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewKVRepositoryManager(kv.NewRetryingStore(store, cfg.StoreRetryAttempts, retryInterval, notify), migrator), nil
}

// RunMigrations is a no-op for schemaless backends.
func (m *KVRepositoryManager) RunMigrations(ctx context.Context) error {
	if m.migrator == nil {
		return nil
	}
	return m.migrator.RunMigrations(ctx)
}

func (m *KVRepositoryManager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *KVRepositoryManager) Users() users.Repository {
	return users.NewKVRepository(m.store)
}

func (m *KVRepositoryManager) Families() families.Repository {
	return families.NewKVRepository(m.store)
}

func (m *KVRepositoryManager) Secrets() secrets.Repository {
	return secrets.NewKVRepository(m.store)
}

func (m *KVRepositoryManager) Recipes() recipes.Repository {
	return recipes.NewKVRepository(m.store)
}

func (m *KVRepositoryManager) Close() error {
	return m.store.Close()
}
