package repository

import (
	"context"

	"github.com/jhoicas/bom-api/internal/domain/bom"
	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// BOMStore define el puerto de persistencia de distintas base (DIP).
// Mutate recibe comandos ya resueltos: toda ComponentRef trae ItemID.
// Un acuse Ambiguous significa que el almacén no reportó error ni devolvió valor.
type BOMStore interface {
	Mutate(ctx context.Context, companyID int, userID string, m bom.Mutation) (bom.Ack, error)

	// GetHeader devuelve ErrNotFound si la distinta no existe en la empresa.
	GetHeader(ctx context.Context, companyID int, bomID int64) (*entity.BOM, error)
	// LatestBOM devuelve nil, nil si el artículo no tiene distinta.
	LatestBOM(ctx context.Context, companyID int, itemID int64) (*entity.BOM, error)
	// GetByVersion devuelve ErrNotFound si la versión no existe.
	GetByVersion(ctx context.Context, companyID int, itemID int64, version int) (*entity.BOM, error)
	Components(ctx context.Context, companyID int, bomID int64) ([]entity.BOMComponent, error)
	Routing(ctx context.Context, companyID int, bomID int64) ([]entity.BOMRouting, error)
	Versions(ctx context.Context, companyID int, itemID int64) ([]entity.BOMVersion, error)
	// ComponentAtLine devuelve nil, nil si la línea no existe.
	ComponentAtLine(ctx context.Context, companyID int, bomID int64, line int) (*entity.BOMComponent, error)
}

// BOMLineRepository operaciones fila a fila del motor de reordenamiento.
// Se usa siempre dentro de una transacción.
type BOMLineRepository interface {
	// LockHeader bloquea la cabecera (SELECT FOR UPDATE). ErrNotFound si no existe.
	LockHeader(ctx context.Context, companyID int, bomID int64) error
	// MoveComponentLine cambia el número de línea; devuelve las filas afectadas (0 = no existía).
	MoveComponentLine(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error)
	MoveRoutingStep(ctx context.Context, companyID int, bomID int64, from, to int) (int64, error)
}
