package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBOM inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Cada escritura de los repos corre en su propio savepoint.
func (r *TxRunner) RunBOM(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos arma los repositorios sobre q: el pool (autocommit) o una tx.
func NewRepos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		BOMs:       NewBOMStore(q),
		Lines:      NewBOMLineRepository(q),
		Items:      NewItemRepository(q),
		References: NewReferenceRepository(q),
		Savepoint: func(ctx context.Context, fn func(repository.TxRepos) error) error {
			return atomic(ctx, q, func(sp Querier) error { return fn(NewRepos(sp)) })
		},
	}
}
