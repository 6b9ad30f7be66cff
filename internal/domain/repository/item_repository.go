package repository

import (
	"context"

	"github.com/jhoicas/bom-api/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
type ItemRepository interface {
	// Create asigna ID, CreatedAt y UpdatedAt.
	Create(ctx context.Context, item *entity.Item) error
	Update(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, companyID int, id int64) (*entity.Item, error)
	// FindByCode prefiere el artículo vinculado al ERP cuando hay más de uno con el código.
	FindByCode(ctx context.Context, companyID int, code string) (*entity.Item, error)
	// NextTemporarySeq reserva el siguiente secuencial para códigos con el prefijo dado.
	NextTemporarySeq(ctx context.Context, companyID int, prefix string) (int, error)
	Usage(ctx context.Context, companyID int, itemID int64) (entity.ItemUsage, error)
	Disable(ctx context.Context, companyID int, itemID int64) error
	// UpsertFromERP crea o actualiza el espejo local (único por empresa y código entre los
	// artículos vinculados al ERP); devuelve 0 si el motor no reportó id.
	UpsertFromERP(ctx context.Context, item *entity.Item) (int64, error)
	LinkProject(ctx context.Context, companyID int, projectID, itemID int64) error
	ListByCompany(ctx context.Context, companyID int, limit, offset int) ([]*entity.Item, error)
}

// ERPReader lectura del ERP externo. ErrNotFound si el código no existe.
type ERPReader interface {
	GetItem(ctx context.Context, companyID int, code string) (*entity.ERPItem, error)
	GetBOM(ctx context.Context, companyID int, code string) (*entity.ERPBOM, error)
}
