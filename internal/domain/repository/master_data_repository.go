package repository

import (
	"context"

	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// MasterDataRepository lectura de datos maestros por empresa.
type MasterDataRepository interface {
	ListWorkCenters(ctx context.Context, companyID int) ([]entity.WorkCenter, error)
	ListOperations(ctx context.Context, companyID int) ([]entity.Operation, error)
	ListSuppliers(ctx context.Context, companyID int) ([]entity.Supplier, error)
	ListUnits(ctx context.Context, companyID int) ([]entity.UnitOfMeasure, error)
}
