// Package kv is the composite-key store underneath every repository: items
// are JSON documents addressed by (partition key, sort key), with strongly
// consistent single-item reads and writes and ordered prefix queries inside
// one partition. There are no multi-item transactions apart from BatchPut.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// Item is one stored document.
type Item struct {
	PK   string
	SK   string
	Data json.RawMessage
}

// NewItem marshals v as the item's document.
func NewItem(pk, sk string, v any) (Item, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Item{}, fmt.Errorf("marshal item %s/%s: %w", pk, sk, err)
	}
	return Item{PK: pk, SK: sk, Data: b}, nil
}

// Decode unmarshals the item's document into v.
func (i Item) Decode(v any) error {
	if err := json.Unmarshal(i.Data, v); err != nil {
		return fmt.Errorf("decode item %s/%s: %w", i.PK, i.SK, err)
	}
	return nil
}

// Query selects items of one partition whose sort key starts with SKPrefix,
// in ascending sort-key order, strictly after StartAfter when it is set.
// Limit <= 0 means no limit.
type Query struct {
	PK         string
	SKPrefix   string
	StartAfter string
	Limit      int
}

// Page is a query result. LastSK is set only when more items remain; pass it
// back as StartAfter to continue.
type Page struct {
	Items  []Item
	LastSK string
}

// Store is implemented by PostgresStore and BuntStore.
//
// Get and Patch return common.ErrorNotFound for a missing item, Create
// returns common.ErrorAlreadyExists when the key is taken.
type Store interface {
	Get(ctx context.Context, pk, sk string) (*Item, error)
	Put(ctx context.Context, item Item) error
	Create(ctx context.Context, item Item) error
	BatchPut(ctx context.Context, items ...Item) error
	// Patch merges the given top-level document fields into an existing item
	// without touching the others.
	Patch(ctx context.Context, pk, sk string, fields map[string]any) error
	Query(ctx context.Context, q Query) (*Page, error)
	Ping(ctx context.Context) error
	Close() error
}

// QueryAll follows LastSK until the partition prefix is exhausted.
func QueryAll(ctx context.Context, s Store, pk, skPrefix string) ([]Item, error) {
	var out []Item
	q := Query{PK: pk, SKPrefix: skPrefix}
	for {
		page, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if page.LastSK == "" {
			return out, nil
		}
		q.StartAfter = page.LastSK
	}
}

func marshalFields(fields map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}
