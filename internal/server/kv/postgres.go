package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/dbx"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore maps the composite-key model onto one table:
//
//	<table>(pk text, sk text, data jsonb, created_at, updated_at, primary key (pk, sk))
type PostgresStore struct {
	db    *sql.DB
	name  string
	table string
}

// OpenPostgres opens a pgx-backed *sql.DB for dsn. The caller owns Close.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, name: table, table: pgx.Identifier{table}.Sanitize()}
}

func (s *PostgresStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	query := `SELECT data FROM ` + s.table + `
		 WHERE pk = $1 AND sk = $2`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, pk, sk).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &Item{PK: pk, SK: sk, Data: data}, nil
}

func (s *PostgresStore) put(ctx context.Context, db dbx.DBTX, item Item) error {
	query := `INSERT INTO ` + s.table + ` (pk, sk, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (pk, sk) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	if _, err := db.ExecContext(ctx, query, item.PK, item.SK, []byte(item.Data)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, item Item) error {
	return s.put(ctx, s.db, item)
}

func (s *PostgresStore) Create(ctx context.Context, item Item) error {
	query := `INSERT INTO ` + s.table + ` (pk, sk, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (pk, sk) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, item.PK, item.SK, []byte(item.Data))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}
	return nil
}

// BatchPut upserts all items in one transaction.
func (s *PostgresStore) BatchPut(ctx context.Context, items ...Item) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, item := range items {
			if err := s.put(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Patch relies on jsonb concatenation, which replaces only the given
// top-level keys, in a single statement.
func (s *PostgresStore) Patch(ctx context.Context, pk, sk string, fields map[string]any) error {
	patch, err := marshalFields(fields)
	if err != nil {
		return err
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	query := `UPDATE ` + s.table + ` SET data = data || $3::jsonb, updated_at = now()
		 WHERE pk = $1 AND sk = $2`

	res, err := s.db.ExecContext(ctx, query, pk, sk, b)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// escapeLike makes prefix safe to use in LIKE with ESCAPE '\'.
func escapeLike(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}

func (s *PostgresStore) Query(ctx context.Context, q Query) (*Page, error) {
	query := `SELECT sk, data FROM ` + s.table + `
		 WHERE pk = $1 AND sk LIKE $2 ESCAPE '\' AND sk COLLATE "C" > $3
		 ORDER BY sk COLLATE "C"`
	args := []any{q.PK, escapeLike(q.SKPrefix) + "%", q.StartAfter}
	if q.Limit > 0 {
		// one extra row tells us whether another page exists
		query += ` LIMIT $4`
		args = append(args, q.Limit+1)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	page := &Page{}
	for rows.Next() {
		var (
			sk   string
			data []byte
		)
		if err := rows.Scan(&sk, &data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		page.Items = append(page.Items, Item{PK: q.PK, SK: sk, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if q.Limit > 0 && len(page.Items) > q.Limit {
		page.Items = page.Items[:q.Limit]
		page.LastSK = page.Items[q.Limit-1].SK
	}
	return page, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
