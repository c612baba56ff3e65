package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the narrow datastore contract the repositories require. It is
// satisfied by *pgxpool.Pool and by test doubles.
type DB interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
