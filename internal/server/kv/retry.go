package kv

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dmitrijs2005/familyrecipe/internal/common"
)

// RetryNotify is told about every retry of a read, before the wait.
type RetryNotify func(op string, err error, wait time.Duration)

// RetryingStore retries transient failures of reads (Get, Query, Ping) with
// bounded exponential backoff. Writes are passed through once: a write that
// timed out may have been applied.
type RetryingStore struct {
	Store
	maxTries        uint
	initialInterval time.Duration
	notify          RetryNotify
}

func NewRetryingStore(s Store, maxTries int, initialInterval time.Duration, notify RetryNotify) *RetryingStore {
	if maxTries < 1 {
		maxTries = 1
	}
	return &RetryingStore{
		Store:           s,
		maxTries:        uint(maxTries),
		initialInterval: initialInterval,
		notify:          notify,
	}
}

// retryable excludes outcomes that another attempt cannot change.
func retryable(err error) bool {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func retry[T any](ctx context.Context, r *RetryingStore, op string, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if r.initialInterval > 0 {
		b.InitialInterval = r.initialInterval
		b.MaxInterval = 20 * r.initialInterval
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			if r.notify != nil {
				r.notify(op, err, d)
			}
		}),
	)
}

func (r *RetryingStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	return retry(ctx, r, "get", func() (*Item, error) {
		return r.Store.Get(ctx, pk, sk)
	})
}

func (r *RetryingStore) Query(ctx context.Context, q Query) (*Page, error) {
	return retry(ctx, r, "query", func() (*Page, error) {
		return r.Store.Query(ctx, q)
	})
}

func (r *RetryingStore) Ping(ctx context.Context) error {
	_, err := retry(ctx, r, "ping", func() (struct{}, error) {
		return struct{}{}, r.Store.Ping(ctx)
	})
	return err
}
