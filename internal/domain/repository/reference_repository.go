package repository

import (
	"context"

	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// ReferenceRepository puerto de referencias intercompañía. Las consultas se acotan a la
// empresa origen.
type ReferenceRepository interface {
	Create(ctx context.Context, ref *entity.Reference) error
	GetByID(ctx context.Context, sourceCompanyID int, id int64) (*entity.Reference, error)
	ListBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64) ([]*entity.Reference, error)
	// FindBySource devuelve ErrNotFound si no hay referencia con esa naturaleza.
	FindBySource(ctx context.Context, sourceCompanyID int, sourceItemID int64, nature string) (*entity.Reference, error)
	SetTarget(ctx context.Context, sourceCompanyID int, id, targetItemID int64) error
	Delete(ctx context.Context, sourceCompanyID int, id int64) error
}
