package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pressly/goose/v3"
)

func createTableSQL(table string) string {
	t := pgx.Identifier{table}.Sanitize()
	return `CREATE TABLE IF NOT EXISTS ` + t + ` (
		pk         TEXT        NOT NULL,
		sk         TEXT        NOT NULL,
		data       JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (pk, sk)
	)`
}

func dropTableSQL(table string) string {
	return `DROP TABLE IF EXISTS ` + pgx.Identifier{table}.Sanitize()
}

// migrations are Go migrations because the table name is deployment config.
func migrations(table string) []*goose.Migration {
	exec := func(stmt string) *goose.GoFunc {
		return &goose.GoFunc{RunTx: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, stmt)
			return err
		}}
	}
	return []*goose.Migration{
		goose.NewGoMigration(1, exec(createTableSQL(table)), exec(dropTableSQL(table))),
	}
}

// gooseUp is a seam for testing.
var gooseUp = func(ctx context.Context, db *sql.DB, ms []*goose.Migration) error {
	p, err := goose.NewProvider(goose.DialectPostgres, db, nil, goose.WithGoMigrations(ms...))
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// RunMigrations brings the store's table up to date.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	if err := gooseUp(ctx, s.db, migrations(s.name)); err != nil {
		return fmt.Errorf("migrate %s: %w", s.name, err)
	}
	return nil
}
