package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/tidwall/buntdb"
)

// keySep separates partition and sort key in a bunt key. It sorts below any
// printable character, so all items of a partition are contiguous.
const keySep = "\x1f"

// BuntStore keeps items in an embedded buntdb database, in memory (":memory:")
// or in a single append-only file.
type BuntStore struct {
	db    *buntdb.DB
	table string
}

func NewBuntStore(path, table string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open buntdb %q: %w", path, err)
	}
	return &BuntStore{db: db, table: table}, nil
}

func (s *BuntStore) key(pk, sk string) string {
	return s.table + keySep + pk + keySep + sk
}

func (s *BuntStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	var val string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(s.key(pk, sk))
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("bunt get: %w", err)
	}
	return &Item{PK: pk, SK: sk, Data: json.RawMessage(val)}, nil
}

func (s *BuntStore) Put(ctx context.Context, item Item) error {
	return s.BatchPut(ctx, item)
}

func (s *BuntStore) Create(ctx context.Context, item Item) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		k := s.key(item.PK, item.SK)
		if _, err := tx.Get(k); err == nil {
			return common.ErrorAlreadyExists
		} else if !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		_, _, err := tx.Set(k, string(item.Data), nil)
		return err
	})
	if err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
		return fmt.Errorf("bunt create: %w", err)
	}
	return err
}

// BatchPut writes all items in one buntdb transaction.
func (s *BuntStore) BatchPut(ctx context.Context, items ...Item) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		for _, item := range items {
			if _, _, err := tx.Set(s.key(item.PK, item.SK), string(item.Data), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bunt put: %w", err)
	}
	return nil
}

// Patch reads, merges and writes inside one update transaction, which buntdb
// serializes against every other writer.
func (s *BuntStore) Patch(ctx context.Context, pk, sk string, fields map[string]any) error {
	patch, err := marshalFields(fields)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		k := s.key(pk, sk)
		val, err := tx.Get(k)
		if err != nil {
			return err
		}
		doc := map[string]json.RawMessage{}
		if err := json.Unmarshal([]byte(val), &doc); err != nil {
			return err
		}
		for name, v := range patch {
			doc[name] = v
		}
		merged, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(k, string(merged), nil)
		return err
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("bunt patch: %w", err)
	}
	return nil
}

func (s *BuntStore) Query(ctx context.Context, q Query) (*Page, error) {
	partition := s.table + keySep + q.PK + keySep
	prefix := partition + q.SKPrefix
	pivot := prefix
	after := ""
	if q.StartAfter != "" {
		after = partition + q.StartAfter
		if after > pivot {
			pivot = after
		}
	}

	page := &Page{}
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendGreaterOrEqual("", pivot, func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return false
			}
			if after != "" && key <= after {
				return true
			}
			if q.Limit > 0 && len(page.Items) == q.Limit {
				page.LastSK = page.Items[len(page.Items)-1].SK
				return false
			}
			page.Items = append(page.Items, Item{
				PK:   q.PK,
				SK:   strings.TrimPrefix(key, partition),
				Data: json.RawMessage(value),
			})
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bunt query: %w", err)
	}
	return page, nil
}

func (s *BuntStore) Ping(ctx context.Context) error {
	return s.db.View(func(tx *buntdb.Tx) error { return nil })
}

func (s *BuntStore) Close() error {
	return s.db.Close()
}
