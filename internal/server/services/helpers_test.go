package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/kv"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

// countingStore counts every call that reaches the store.
type countingStore struct {
	kv.Store
	calls atomic.Int64
	fail  error
}

func (c *countingStore) hit() error {
	c.calls.Add(1)
	return c.fail
}

func (c *countingStore) Get(ctx context.Context, pk, sk string) (*kv.Item, error) {
	if err := c.hit(); err != nil {
		return nil, err
	}
	return c.Store.Get(ctx, pk, sk)
}

func (c *countingStore) Put(ctx context.Context, item kv.Item) error {
	if err := c.hit(); err != nil {
		return err
	}
	return c.Store.Put(ctx, item)
}

func (c *countingStore) Create(ctx context.Context, item kv.Item) error {
	if err := c.hit(); err != nil {
		return err
	}
	return c.Store.Create(ctx, item)
}

func (c *countingStore) BatchPut(ctx context.Context, items ...kv.Item) error {
	if err := c.hit(); err != nil {
		return err
	}
	return c.Store.BatchPut(ctx, items...)
}

func (c *countingStore) Patch(ctx context.Context, pk, sk string, fields map[string]any) error {
	if err := c.hit(); err != nil {
		return err
	}
	return c.Store.Patch(ctx, pk, sk, fields)
}

func (c *countingStore) Query(ctx context.Context, q kv.Query) (*kv.Page, error) {
	if err := c.hit(); err != nil {
		return nil, err
	}
	return c.Store.Query(ctx, q)
}

var errStoreDown = errors.New("store down")

type fixture struct {
	store    *countingStore
	manager  *repomanager.KVRepositoryManager
	keys     *KeyService
	users    *UserService
	families *FamilyService
	control  *Control
}

func newFixture(t *testing.T, passphrase string) *fixture {
	t.Helper()
	bunt, err := kv.NewBuntStore(":memory:", "services_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunt.Close() })

	f := &fixture{store: &countingStore{Store: bunt}}
	f.manager = repomanager.NewKVRepositoryManager(f.store, nil)
	log := logging.Nop()
	f.keys = NewKeyService(f.manager, passphrase, log)
	f.users = NewUserService(f.manager, f.keys, log, nil)
	f.families = NewFamilyService(f.manager, log)
	f.control = NewControl(f.families, f.users, f.keys, log)
	return f
}
