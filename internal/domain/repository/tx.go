package repository

import "context"

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	BOMs       BOMStore
	Lines      BOMLineRepository
	Items      ItemRepository
	References ReferenceRepository

	// Savepoint ejecuta fn con repositorios atados a un savepoint: si fn falla se revierte
	// solo lo hecho por fn y la transacción exterior sigue usable.
	Savepoint func(ctx context.Context, fn func(repos TxRepos) error) error
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback si no.
type TxRunner interface {
	RunBOM(ctx context.Context, fn func(repos TxRepos) error) error
}
