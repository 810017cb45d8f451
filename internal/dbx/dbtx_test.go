package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openItems(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE items (pk TEXT NOT NULL, sk TEXT NOT NULL, data TEXT, PRIMARY KEY (pk, sk))`)
	require.NoError(t, err)
	return db
}

func putPair(ctx context.Context, tx DBTX) error {
	for _, sk := range []string{"S#PRIVATE", "S#PUBLIC#k1"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items (pk, sk, data) VALUES ('S#PEM', ?, '{}')`, sk); err != nil {
			return err
		}
	}
	return nil
}

func itemCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func TestWithTx_BatchCommits(t *testing.T) {
	db := openItems(t)

	require.NoError(t, WithTx(context.Background(), db, nil, putPair))
	assert.Equal(t, 2, itemCount(t, db))
}

func TestWithTx_PartialBatchRollsBack(t *testing.T) {
	db := openItems(t)
	ctx := context.Background()

	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		if err := putPair(ctx, tx); err != nil {
			return err
		}
		// duplicate primary key
		_, err := tx.ExecContext(ctx, `INSERT INTO items (pk, sk, data) VALUES ('S#PEM', 'S#PRIVATE', '{}')`)
		return err
	})
	require.Error(t, err)
	assert.Zero(t, itemCount(t, db))

	sentinel := errors.New("abort")
	err = WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		_ = putPair(ctx, tx)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Zero(t, itemCount(t, db))
}

func TestWithTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openItems(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, putPair(ctx, tx))
			panic("kaput")
		})
	})
	assert.Zero(t, itemCount(t, db))
}

func TestWithTx_BeginFailsOnClosedDB(t *testing.T) {
	db := openItems(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
