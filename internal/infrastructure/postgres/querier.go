package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier lo que los repositorios necesitan de la conexión: *pgxpool.Pool o pgx.Tx.
// Begin sobre un pool abre una transacción; sobre una tx abre un savepoint.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// atomic ejecuta fn en un savepoint (o transacción si q es el pool). Un error revierte
// solo lo hecho por fn y deja usable la transacción exterior.
func atomic(ctx context.Context, q Querier, fn func(q Querier) error) error {
	tx, err := q.Begin(ctx)
	if err != nil {
		return mapError(err, "savepoint")
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "release savepoint")
	}
	return nil
}

// atomicScan ejecuta una sentencia con RETURNING en un savepoint y escanea la fila.
func atomicScan(ctx context.Context, q Querier, query string, args []any, dest ...any) error {
	return atomic(ctx, q, func(q Querier) error {
		return q.QueryRow(ctx, query, args...).Scan(dest...)
	})
}

// atomicExec ejecuta una sentencia en un savepoint.
func atomicExec(ctx context.Context, q Querier, query string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := atomic(ctx, q, func(q Querier) error {
		var err error
		tag, err = q.Exec(ctx, query, args...)
		return err
	})
	return tag, err
}
