package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/bom-api/internal/domain/entity"
	"github.com/jhoicas/bom-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación de ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

const itemColumns = `id, company_id, code, description, diameter, width, height, length, nature, base_uom,
	status, disabled, erp_linked, erp_synced_at, created_by, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(&it.ID, &it.CompanyID, &it.Code, &it.Description, &it.Diameter, &it.Width, &it.Height, &it.Length,
		&it.Nature, &it.BaseUoM, &it.Status, &it.Disabled, &it.ERPLinked, &it.ERPSyncedAt, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create persiste el artículo y completa ID y fechas.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.Status == "" {
		item.Status = entity.ItemStatusActive
	}
	query := `
		INSERT INTO items (company_id, code, description, diameter, width, height, length, nature, base_uom,
			status, disabled, erp_linked, erp_synced_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`
	err := atomicScan(ctx, r.q, query, []any{
		item.CompanyID, item.Code, item.Description, item.Diameter, item.Width, item.Height, item.Length,
		item.Nature, item.BaseUoM, item.Status, item.Disabled, item.ERPLinked, item.ERPSyncedAt, item.CreatedBy,
	}, &item.ID, &item.CreatedAt, &item.UpdatedAt)
	return mapError(err, "insert item")
}

// Update modifica los campos descriptivos.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET description = $3, diameter = $4, width = $5, height = $6, length = $7,
			nature = $8, base_uom = $9, updated_at = NOW()
		WHERE company_id = $1 AND id = $2
		RETURNING updated_at`
	err := atomicScan(ctx, r.q, query, []any{item.CompanyID, item.ID, item.Description, item.Diameter, item.Width,
		item.Height, item.Length, item.Nature, item.BaseUoM}, &item.UpdatedAt)
	return mapError(err, fmt.Sprintf("update item %d", item.ID))
}

// GetByID obtiene un artículo de la empresa.
func (r *ItemRepo) GetByID(ctx context.Context, companyID int, id int64) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("item %d", id))
	}
	return it, nil
}

// FindByCode prefiere el artículo vinculado al ERP; entre iguales, el de menor id.
func (r *ItemRepo) FindByCode(ctx context.Context, companyID int, code string) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE company_id = $1 AND upper(code) = upper($2)
		ORDER BY erp_linked DESC, id ASC
		LIMIT 1`
	it, err := scanItem(r.q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		return nil, mapError(err, "item "+code)
	}
	return it, nil
}

// NextTemporarySeq incrementa y devuelve el secuencial del prefijo (upsert atómico).
func (r *ItemRepo) NextTemporarySeq(ctx context.Context, companyID int, prefix string) (int, error) {
	query := `
		INSERT INTO item_temp_seq (company_id, prefix, last_seq) VALUES ($1, $2, 1)
		ON CONFLICT (company_id, prefix) DO UPDATE SET last_seq = item_temp_seq.last_seq + 1
		RETURNING last_seq`
	var seq int
	if err := atomicScan(ctx, r.q, query, []any{companyID, prefix}, &seq); err != nil {
		return 0, mapError(err, "temp seq")
	}
	return seq, nil
}

// Usage cuenta proyectos vinculados y líneas de componente que usan el artículo.
func (r *ItemRepo) Usage(ctx context.Context, companyID int, itemID int64) (entity.ItemUsage, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM project_items WHERE company_id = i.company_id AND item_id = i.id),
			(SELECT COUNT(*) FROM bom_components WHERE company_id = i.company_id AND component_item_id = i.id)
		FROM items i WHERE i.company_id = $1 AND i.id = $2`
	var u entity.ItemUsage
	if err := r.q.QueryRow(ctx, query, companyID, itemID).Scan(&u.ProjectCount, &u.BOMUsageCount); err != nil {
		return entity.ItemUsage{}, mapError(err, fmt.Sprintf("usage item %d", itemID))
	}
	return u, nil
}

// Disable marca el artículo como deshabilitado.
func (r *ItemRepo) Disable(ctx context.Context, companyID int, itemID int64) error {
	tag, err := atomicExec(ctx, r.q, `
		UPDATE items SET disabled = TRUE, status = $3, updated_at = NOW()
		WHERE company_id = $1 AND id = $2`, companyID, itemID, entity.ItemStatusDisabled)
	if err != nil {
		return mapError(err, "disable item")
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, fmt.Sprintf("item %d", itemID))
	}
	return nil
}

// UpsertFromERP crea o actualiza el espejo ERP (único por empresa y código entre los
// vinculados al ERP) y devuelve su id.
func (r *ItemRepo) UpsertFromERP(ctx context.Context, item *entity.Item) (int64, error) {
	query := `
		INSERT INTO items (company_id, code, description, nature, base_uom, status, erp_linked, erp_synced_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)
		ON CONFLICT (company_id, upper(code)) WHERE erp_linked DO UPDATE SET
			description = EXCLUDED.description,
			nature = EXCLUDED.nature,
			base_uom = EXCLUDED.base_uom,
			erp_synced_at = EXCLUDED.erp_synced_at,
			updated_at = NOW()
		RETURNING id`
	status := item.Status
	if status == "" {
		status = entity.ItemStatusActive
	}
	var id int64
	err := atomicScan(ctx, r.q, query, []any{item.CompanyID, item.Code, item.Description, item.Nature, item.BaseUoM,
		status, item.ERPSyncedAt, item.CreatedBy}, &id)
	if err != nil {
		return 0, mapError(err, "upsert erp item "+item.Code)
	}
	return id, nil
}

// LinkProject vincula el artículo al proyecto (idempotente).
func (r *ItemRepo) LinkProject(ctx context.Context, companyID int, projectID, itemID int64) error {
	_, err := atomicExec(ctx, r.q, `
		INSERT INTO project_items (company_id, project_id, item_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, companyID, projectID, itemID)
	return mapError(err, "link project")
}

// ListByCompany artículos de la empresa ordenados por id.
func (r *ItemRepo) ListByCompany(ctx context.Context, companyID int, limit, offset int) ([]*entity.Item, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE company_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, mapError(err, "list items")
	}
	defer rows.Close()
	var out []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
